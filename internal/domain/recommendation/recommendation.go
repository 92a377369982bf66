// Package recommendation defines the Recommendation domain entity and its
// media-type and rating value types.
package recommendation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MediaType identifies the kind of media a recommendation refers to.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeBook    MediaType = "book"
	MediaTypeTV      MediaType = "tv"
	MediaTypeUnknown MediaType = "unknown"
)

// ParseMediaType validates a raw media-type string. Only the exact enum
// values are accepted; colloquial forms ("shows", "films") are the fast-path
// classifier's business, not this function's.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, nil
	case MediaTypeBook:
		return MediaTypeBook, nil
	case MediaTypeTV:
		return MediaTypeTV, nil
	default:
		return MediaTypeUnknown, fmt.Errorf("unknown media type %q", s)
	}
}

// Valid reports whether m is one of the three recommendable media types.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeBook || m == MediaTypeTV
}

// MaxSimilarTitles is the number of similar-title suggestions kept per record.
const MaxSimilarTitles = 3

// Rating is a review score: either a known value or the "N/A" sentinel.
// Movie and TV ratings use a 0-10 scale, book ratings 0-5. Known values
// are rounded to one decimal place.
type Rating struct {
	value float64
	known bool
}

// NewRating returns a known rating rounded to one decimal.
func NewRating(v float64) Rating {
	return Rating{value: math.Round(v*10) / 10, known: true}
}

// UnknownRating returns the "N/A" sentinel.
func UnknownRating() Rating {
	return Rating{}
}

// Known reports whether the rating carries a value.
func (r Rating) Known() bool { return r.known }

// Value returns the numeric rating; zero when unknown.
func (r Rating) Value() float64 { return r.value }

// String renders the rating as its number or "N/A".
func (r Rating) String() string {
	if !r.known {
		return "N/A"
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

// MarshalJSON encodes a known rating as a JSON number and the sentinel as "N/A".
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.known {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts numbers, numeric strings, and "x/y" fraction strings.
// Anything unparseable collapses to the sentinel rather than erroring, so a
// sloppy upstream value never poisons the whole record. Null must be checked
// first: unmarshaling it into a float64 is a silent no-op, which would read
// as a known 0.0.
func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = UnknownRating()
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*r = NewRating(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ParseRating(s)
		return nil
	}
	*r = UnknownRating()
	return nil
}

// ParseRating normalizes a raw rating of any upstream shape. Numbers pass
// through rounded to one decimal; strings containing "/" contribute their
// numerator; other strings must parse as floats; everything else is "N/A".
func ParseRating(raw any) Rating {
	switch v := raw.(type) {
	case nil:
		return UnknownRating()
	case Rating:
		return v
	case float64:
		return NewRating(v)
	case float32:
		return NewRating(float64(v))
	case int:
		return NewRating(float64(v))
	case int64:
		return NewRating(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return UnknownRating()
		}
		return NewRating(f)
	case string:
		return parseRatingString(v)
	default:
		return UnknownRating()
	}
}

func parseRatingString(s string) Rating {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownRating()
	}
	switch strings.ToLower(s) {
	case "n/a", "na", "none", "null", "unknown":
		return UnknownRating()
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return UnknownRating()
	}
	return NewRating(f)
}

// Recommendation is one recommended item as returned to callers. Records are
// created by the result parser or the fallback recommender, mutated exactly
// once by the post-processor, and immutable afterward.
type Recommendation struct {
	Title                 string    `json:"title"`
	Type                  MediaType `json:"type"`
	Year                  string    `json:"year,omitempty"`
	Genre                 string    `json:"genre,omitempty"`
	Rating                Rating    `json:"rating"`
	Description           string    `json:"description,omitempty"`
	WhyRecommended        string    `json:"why_recommended,omitempty"`
	SimilarTitles         []string  `json:"similar_titles"`
	ImageURL              string    `json:"image_url,omitempty"`
	TrailerURL            string    `json:"trailer_url,omitempty"`
	PreviewURL            string    `json:"preview_url,omitempty"`
	IsCompromise          bool      `json:"is_compromise,omitempty"`
	CompromiseExplanation string    `json:"compromise_explanation,omitempty"`
	Seasons               int       `json:"seasons,omitempty"`
	Episodes              int       `json:"episodes,omitempty"`
}
