package service

import (
	"testing"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

func TestFallbackRecommendations(t *testing.T) {
	for _, media := range []recommendation.MediaType{
		recommendation.MediaTypeMovie,
		recommendation.MediaTypeBook,
		recommendation.MediaTypeTV,
	} {
		recs := FallbackRecommendations(media, 10)
		if len(recs) < 2 {
			t.Fatalf("%s: only %d fallback records", media, len(recs))
		}
		for _, rec := range recs {
			if rec.Title == "" {
				t.Errorf("%s: record without title", media)
			}
			if rec.Type != media {
				t.Errorf("%s: record typed %q", media, rec.Type)
			}
			if !rec.Rating.Known() {
				t.Errorf("%s: %q has no rating", media, rec.Title)
			}
			if rec.Description == "" || rec.WhyRecommended == "" {
				t.Errorf("%s: %q not fully populated", media, rec.Title)
			}
			if len(rec.SimilarTitles) == 0 {
				t.Errorf("%s: %q has no similar titles", media, rec.Title)
			}
		}
	}
}

func TestFallbackRecommendationsCount(t *testing.T) {
	if got := len(FallbackRecommendations(recommendation.MediaTypeMovie, 1)); got != 1 {
		t.Errorf("count 1: got %d records", got)
	}
	if got := len(FallbackRecommendations(recommendation.MediaTypeMovie, 10)); got != 3 {
		t.Errorf("count 10: got %d records, want all 3", got)
	}
}

func TestFallbackRecommendationsUnknownKind(t *testing.T) {
	recs := FallbackRecommendations(recommendation.MediaTypeUnknown, 3)
	if len(recs) == 0 || recs[0].Type != recommendation.MediaTypeMovie {
		t.Fatalf("unknown kind must fall back to movies, got %+v", recs)
	}
}

func TestFallbackRecommendationsCopies(t *testing.T) {
	first := FallbackRecommendations(recommendation.MediaTypeTV, 1)
	first[0].SimilarTitles[0] = "mutated"
	second := FallbackRecommendations(recommendation.MediaTypeTV, 1)
	if second[0].SimilarTitles[0] == "mutated" {
		t.Fatal("callers share the curated backing data")
	}
}
