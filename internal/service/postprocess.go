package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/memo"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
	"github.com/Strob0t/MediaScout/internal/workpool"
)

// Placeholder text for optional fields the pipeline left empty.
const (
	defaultDescription = "No description available"
	defaultWhy         = "Matches your preferences"
)

// errNoRating marks a lookup that completed but found nothing usable. It is
// returned instead of a zero value so the memoizer never caches the miss and
// a later run can try again.
var errNoRating = errors.New("no rating found")

// PostProcessService normalizes parsed records and enriches missing ratings
// with direct provider lookups. Records pass through exactly once; the whole
// pass is idempotent, so reprocessing its own output changes nothing.
type PostProcessService struct {
	movies  contentprovider.MovieProvider
	books   contentprovider.BookProvider
	tv      contentprovider.TVProvider
	ratings *memo.Memoizer
	pool    *workpool.Pool
}

// NewPostProcessService creates the post-processor. Any provider may be nil;
// records of that media kind then keep their rating sentinel. The ratings
// memoizer should wrap the long-TTL rating cache, not the general API cache.
func NewPostProcessService(
	movies contentprovider.MovieProvider,
	books contentprovider.BookProvider,
	tv contentprovider.TVProvider,
	ratings *memo.Memoizer,
	pool *workpool.Pool,
) *PostProcessService {
	return &PostProcessService{movies: movies, books: books, tv: tv, ratings: ratings, pool: pool}
}

// Process fills defaults, truncates date-like years, deduplicates by title,
// and runs the rating enrichment pass. It never fails: per-record enrichment
// errors are logged and leave the sentinel in place.
func (s *PostProcessService) Process(ctx context.Context, recs []recommendation.Recommendation) []recommendation.Recommendation {
	out := make([]recommendation.Recommendation, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		rec = normalizeRecord(rec)
		if rec.Title == "" {
			continue
		}
		key := strings.ToLower(rec.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	s.enrich(ctx, out)
	return out
}

func normalizeRecord(rec recommendation.Recommendation) recommendation.Recommendation {
	rec.Title = strings.TrimSpace(rec.Title)
	if m, err := recommendation.ParseMediaType(string(rec.Type)); err == nil {
		rec.Type = m
	} else {
		rec.Type = recommendation.MediaTypeUnknown
	}
	rec.Year = yearPrefix(rec.Year)
	if strings.TrimSpace(rec.Description) == "" {
		rec.Description = defaultDescription
	}
	if strings.TrimSpace(rec.WhyRecommended) == "" {
		rec.WhyRecommended = defaultWhy
	}
	if rec.SimilarTitles == nil {
		rec.SimilarTitles = []string{}
	}
	if len(rec.SimilarTitles) > recommendation.MaxSimilarTitles {
		rec.SimilarTitles = rec.SimilarTitles[:recommendation.MaxSimilarTitles]
	}
	return rec
}

// yearPrefix truncates a date-like year ("1994-09-23") to its leading four
// digits. Anything without four leading digits passes through untouched.
func yearPrefix(year string) string {
	year = strings.TrimSpace(year)
	if len(year) < 4 {
		return year
	}
	for _, r := range year[:4] {
		if r < '0' || r > '9' {
			return year
		}
	}
	return year[:4]
}

// enrich fills missing ratings (and TV season counts) concurrently, bounded
// by the shared pool. Every record is independent: a failed lookup logs and
// moves on.
func (s *PostProcessService) enrich(ctx context.Context, recs []recommendation.Recommendation) {
	var wg sync.WaitGroup
	for i := range recs {
		if !s.needsEnrichment(recs[i]) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.pool.Run(ctx, func() error {
				return s.enrichRecord(ctx, &recs[i])
			})
			if err != nil {
				slog.Debug("rating enrichment skipped",
					"title", recs[i].Title, "type", recs[i].Type, "error", err)
			}
		}()
	}
	wg.Wait()
}

func (s *PostProcessService) needsEnrichment(rec recommendation.Recommendation) bool {
	switch rec.Type {
	case recommendation.MediaTypeMovie, recommendation.MediaTypeBook:
		return !rec.Rating.Known()
	case recommendation.MediaTypeTV:
		return !rec.Rating.Known() || rec.Seasons == 0
	default:
		return false
	}
}

func (s *PostProcessService) enrichRecord(ctx context.Context, rec *recommendation.Recommendation) error {
	key := memo.Key("rating", []any{string(rec.Type), strings.ToLower(rec.Title)}, nil)
	switch rec.Type {
	case recommendation.MediaTypeMovie:
		if s.movies == nil {
			return nil
		}
		v, err := memo.Do(ctx, s.ratings, key, func(ctx context.Context) (float64, error) {
			return firstRating(s.movies.SearchMovies(ctx, rec.Title, ""))
		})
		if err != nil {
			return err
		}
		rec.Rating = recommendation.NewRating(v)
	case recommendation.MediaTypeBook:
		if s.books == nil {
			return nil
		}
		v, err := memo.Do(ctx, s.ratings, key, func(ctx context.Context) (float64, error) {
			return firstRating(s.books.SearchBooks(ctx, rec.Title, ""))
		})
		if err != nil {
			return err
		}
		rec.Rating = recommendation.NewRating(v)
	case recommendation.MediaTypeTV:
		if s.tv == nil {
			return nil
		}
		facts, err := memo.Do(ctx, s.ratings, key, func(ctx context.Context) (tvFacts, error) {
			return s.lookupTVFacts(ctx, rec.Title)
		})
		if err != nil {
			return err
		}
		if !rec.Rating.Known() && facts.Rating > 0 {
			rec.Rating = recommendation.NewRating(facts.Rating)
		}
		if rec.Seasons == 0 {
			rec.Seasons = facts.Seasons
		}
		if rec.Episodes == 0 {
			rec.Episodes = facts.Episodes
		}
	}
	return nil
}

// firstRating reduces a search result to its first item's known rating.
func firstRating(items []content.Item, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if len(items) == 0 || !items[0].Rating.Known() {
		return 0, errNoRating
	}
	return items[0].Rating.Value(), nil
}

// tvFacts is the cached shape of one TV enrichment lookup.
type tvFacts struct {
	Rating   float64 `json:"rating"`
	Seasons  int     `json:"seasons"`
	Episodes int     `json:"episodes"`
}

// lookupTVFacts resolves a show by title and pulls rating plus season counts
// from its details. When the details call fails, the search result's rating
// still counts.
func (s *PostProcessService) lookupTVFacts(ctx context.Context, title string) (tvFacts, error) {
	items, err := s.tv.SearchTV(ctx, title, "")
	if err != nil {
		return tvFacts{}, err
	}
	if len(items) == 0 {
		return tvFacts{}, errNoRating
	}
	hit := items[0]
	facts := tvFacts{Rating: hit.Rating.Value()}
	details, err := s.tv.TVDetails(ctx, hit.ID)
	if err != nil {
		slog.Debug("tv details unavailable, keeping search rating",
			"title", title, "error", err)
		if !hit.Rating.Known() {
			return tvFacts{}, errNoRating
		}
		return facts, nil
	}
	if details.Rating.Known() {
		facts.Rating = details.Rating.Value()
	}
	facts.Seasons = details.Seasons
	facts.Episodes = details.Episodes
	return facts, nil
}
