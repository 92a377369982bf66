package service

import (
	"regexp"
	"strings"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// The fast path matches bare "<genre> <media>" phrases so the analysis stage
// can be skipped. Genre vocabularies are per media kind: the screen kinds
// accept the sci-fi spellings their catalogs key, the book kind only the
// spelled-out form. Anything that misses falls through to the full pipeline,
// so a conservative vocabulary costs latency, never correctness.

const (
	screenGenreAlts = `action|adventure|animation|comedy|crime|documentary|drama|family|fantasy|history|horror|music|mystery|romance|sci-fi|sci fi|science fiction|thriller|war|western`
	bookGenreAlts   = `adventure|biography|comedy|crime|fantasy|fiction|history|horror|mystery|poetry|romance|science fiction|thriller`
)

var fastPathPatterns = []struct {
	media recommendation.MediaType
	re    *regexp.Regexp
}{
	{recommendation.MediaTypeMovie, regexp.MustCompile(`^(` + screenGenreAlts + `)\s+movies?$`)},
	{recommendation.MediaTypeBook, regexp.MustCompile(`^(` + bookGenreAlts + `)\s+books?$`)},
	{recommendation.MediaTypeTV, regexp.MustCompile(`^(` + screenGenreAlts + `)\s+(?:tv|shows?|series)$`)},
}

// FastPathMatch is the classification of a trivially simple request.
type FastPathMatch struct {
	MediaType recommendation.MediaType
	Genre     string
}

// ClassifyFastPath reports whether the request is a bare genre-plus-media
// phrase. The genre comes back canonicalized ("sci fi" as "sci-fi").
func ClassifyFastPath(userRequest string) (FastPathMatch, bool) {
	request := strings.ToLower(strings.TrimSpace(userRequest))
	for _, p := range fastPathPatterns {
		m := p.re.FindStringSubmatch(request)
		if m == nil {
			continue
		}
		genre := m[1]
		if genre == "sci fi" {
			genre = "sci-fi"
		}
		return FastPathMatch{MediaType: p.media, Genre: genre}, true
	}
	return FastPathMatch{}, false
}
