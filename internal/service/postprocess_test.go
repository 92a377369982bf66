package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/memo"
	"github.com/Strob0t/MediaScout/internal/workpool"
)

// newTestPostProcessor wires stub providers, skipping nil ones so the
// service sees a nil interface rather than a typed nil.
func newTestPostProcessor(movies *stubMovies, books *stubBooks, tv *stubTV) *PostProcessService {
	svc := &PostProcessService{
		ratings: memo.New(newStubCache(), 24*time.Hour),
		pool:    workpool.New(4),
	}
	if movies != nil {
		svc.movies = movies
	}
	if books != nil {
		svc.books = books
	}
	if tv != nil {
		svc.tv = tv
	}
	return svc
}

func TestProcessFillsDefaults(t *testing.T) {
	recs := []recommendation.Recommendation{{Title: "Blade Runner"}}
	out := newTestPostProcessor(nil, nil, nil).Process(context.Background(), recs)
	if len(out) != 1 {
		t.Fatalf("got %d records", len(out))
	}
	rec := out[0]
	if rec.Type != recommendation.MediaTypeUnknown {
		t.Errorf("type = %q, want unknown", rec.Type)
	}
	if rec.Rating.String() != "N/A" {
		t.Errorf("rating = %q, want N/A", rec.Rating)
	}
	if rec.Description != defaultDescription {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.WhyRecommended != defaultWhy {
		t.Errorf("why = %q", rec.WhyRecommended)
	}
	if rec.SimilarTitles == nil || len(rec.SimilarTitles) != 0 {
		t.Errorf("similar titles = %#v, want empty non-nil", rec.SimilarTitles)
	}
}

func TestProcessYearTruncation(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1994-09-23", "1994"},
		{"2010", "2010"},
		{"2023/05/01", "2023"},
		{"circa 1999", "circa 1999"},
		{"99", "99"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := yearPrefix(tt.in); got != tt.want {
			t.Errorf("yearPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessDedupesByTitle(t *testing.T) {
	recs := []recommendation.Recommendation{
		{Title: "Dune", Type: recommendation.MediaTypeBook, Year: "1965"},
		{Title: "DUNE", Type: recommendation.MediaTypeBook, Year: "2021"},
		{Title: "Hyperion", Type: recommendation.MediaTypeBook},
	}
	out := newTestPostProcessor(nil, nil, nil).Process(context.Background(), recs)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].Year != "1965" {
		t.Errorf("first occurrence must win, got year %s", out[0].Year)
	}
}

func TestProcessDropsUntitled(t *testing.T) {
	recs := []recommendation.Recommendation{
		{Title: "   "},
		{Title: "Kept", Type: recommendation.MediaTypeMovie, Rating: recommendation.NewRating(7)},
	}
	out := newTestPostProcessor(nil, nil, nil).Process(context.Background(), recs)
	if len(out) != 1 || out[0].Title != "Kept" {
		t.Fatalf("got %+v", out)
	}
}

func TestProcessCapsSimilarTitles(t *testing.T) {
	recs := []recommendation.Recommendation{{
		Title:         "Contact",
		Type:          recommendation.MediaTypeMovie,
		Rating:        recommendation.NewRating(7.5),
		SimilarTitles: []string{"Arrival", "Interstellar", "Sphere", "Signs", "Annihilation"},
	}}
	out := newTestPostProcessor(nil, nil, nil).Process(context.Background(), recs)
	if got := out[0].SimilarTitles; len(got) != recommendation.MaxSimilarTitles {
		t.Fatalf("similar titles = %v", got)
	}
}

func TestProcessEnrichesMovieRating(t *testing.T) {
	movies := &stubMovies{search: func(query, year string) ([]content.Item, error) {
		if query != "Heat" {
			t.Errorf("search query = %q", query)
		}
		return []content.Item{{Title: "Heat", Rating: recommendation.NewRating(8.3)}}, nil
	}}
	svc := newTestPostProcessor(movies, nil, nil)

	recs := []recommendation.Recommendation{{Title: "Heat", Type: recommendation.MediaTypeMovie}}
	out := svc.Process(context.Background(), recs)
	if out[0].Rating.String() != "8.3" {
		t.Fatalf("rating = %s, want 8.3", out[0].Rating)
	}

	// The second pass answers from the rating cache.
	out = svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Heat", Type: recommendation.MediaTypeMovie},
	})
	if out[0].Rating.String() != "8.3" {
		t.Fatalf("cached rating = %s", out[0].Rating)
	}
	if calls := movies.searchCalls.Load(); calls != 1 {
		t.Fatalf("provider called %d times, want 1", calls)
	}
}

func TestProcessEnrichesBookRating(t *testing.T) {
	books := &stubBooks{search: func(query, genre string) ([]content.Item, error) {
		return []content.Item{{Title: query, Rating: recommendation.NewRating(4.6)}}, nil
	}}
	svc := newTestPostProcessor(nil, books, nil)
	out := svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Project Hail Mary", Type: recommendation.MediaTypeBook},
	})
	if out[0].Rating.String() != "4.6" {
		t.Fatalf("rating = %s, want 4.6", out[0].Rating)
	}
}

func TestProcessEnrichesTVFacts(t *testing.T) {
	tv := &stubTV{
		search: func(query, year string) ([]content.Item, error) {
			return []content.Item{{ID: "1396", Title: query, Rating: recommendation.NewRating(8.9)}}, nil
		},
		details: func(id string) (content.Item, error) {
			if id != "1396" {
				t.Errorf("details id = %q", id)
			}
			return content.Item{Rating: recommendation.NewRating(8.9), Seasons: 5, Episodes: 62}, nil
		},
	}
	svc := newTestPostProcessor(nil, nil, tv)
	out := svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Breaking Bad", Type: recommendation.MediaTypeTV},
	})
	rec := out[0]
	if rec.Rating.String() != "8.9" {
		t.Errorf("rating = %s", rec.Rating)
	}
	if rec.Seasons != 5 || rec.Episodes != 62 {
		t.Errorf("seasons/episodes = %d/%d, want 5/62", rec.Seasons, rec.Episodes)
	}
}

func TestProcessTVSeasonsFilledWhenRatingKnown(t *testing.T) {
	tv := &stubTV{
		search: func(query, year string) ([]content.Item, error) {
			return []content.Item{{ID: "70523", Rating: recommendation.NewRating(8.0)}}, nil
		},
		details: func(id string) (content.Item, error) {
			return content.Item{Rating: recommendation.NewRating(8.0), Seasons: 3, Episodes: 26}, nil
		},
	}
	svc := newTestPostProcessor(nil, nil, tv)
	out := svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Dark", Type: recommendation.MediaTypeTV, Rating: recommendation.NewRating(9.9)},
	})
	rec := out[0]
	if rec.Rating.String() != "9.9" {
		t.Errorf("known rating overwritten: %s", rec.Rating)
	}
	if rec.Seasons != 3 {
		t.Errorf("seasons = %d, want 3", rec.Seasons)
	}
}

func TestProcessEnrichmentFailureTolerated(t *testing.T) {
	movies := &stubMovies{search: func(query, year string) ([]content.Item, error) {
		if query == "Broken" {
			return nil, errors.New("upstream down")
		}
		return []content.Item{{Rating: recommendation.NewRating(7.1)}}, nil
	}}
	svc := newTestPostProcessor(movies, nil, nil)
	out := svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Broken", Type: recommendation.MediaTypeMovie},
		{Title: "Fine", Type: recommendation.MediaTypeMovie},
	})
	if out[0].Rating.Known() {
		t.Errorf("failed lookup must keep the sentinel, got %s", out[0].Rating)
	}
	if out[1].Rating.String() != "7.1" {
		t.Errorf("sibling record not enriched: %s", out[1].Rating)
	}
}

func TestProcessEmptyResultNotCached(t *testing.T) {
	movies := &stubMovies{search: func(query, year string) ([]content.Item, error) {
		return nil, nil
	}}
	svc := newTestPostProcessor(movies, nil, nil)
	rec := []recommendation.Recommendation{{Title: "Obscure", Type: recommendation.MediaTypeMovie}}
	svc.Process(context.Background(), rec)
	svc.Process(context.Background(), rec)
	if calls := movies.searchCalls.Load(); calls != 2 {
		t.Fatalf("empty lookups must not be cached, provider called %d times", calls)
	}
}

func TestProcessUnknownTypeSkipsEnrichment(t *testing.T) {
	movies := &stubMovies{}
	svc := newTestPostProcessor(movies, nil, nil)
	svc.Process(context.Background(), []recommendation.Recommendation{
		{Title: "Mystery Item"},
	})
	if calls := movies.searchCalls.Load(); calls != 0 {
		t.Fatalf("unknown-type record reached a provider (%d calls)", calls)
	}
}

func TestProcessIdempotent(t *testing.T) {
	movies := &stubMovies{search: func(query, year string) ([]content.Item, error) {
		return []content.Item{{Rating: recommendation.NewRating(8.0)}}, nil
	}}
	svc := newTestPostProcessor(movies, nil, nil)
	in := []recommendation.Recommendation{
		{Title: "Heat", Type: recommendation.MediaTypeMovie, Year: "1995-12-15"},
		{Title: "Ronin", Type: "MOVIE", Rating: recommendation.NewRating(7.3)},
	}
	once := svc.Process(context.Background(), in)
	twice := svc.Process(context.Background(), append([]recommendation.Recommendation(nil), once...))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
