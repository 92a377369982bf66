package service

import (
	"testing"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

func TestParseRecommendationsJSONArray(t *testing.T) {
	raw := `Here are your picks:
[
  {
    "title": "Inception",
    "type": "movie",
    "year": "2010",
    "genre": "Sci-Fi, Thriller",
    "rating": 8.8,
    "description": "A thief steals secrets through dreams.",
    "why_recommended": "You liked mind benders.",
    "similar_titles": ["Tenet", "The Matrix"],
    "image_url": "https://image.tmdb.org/t/p/w500/inception.jpg",
    "trailer_url": null,
    "is_compromise": false
  },
  {
    "title": "Interstellar",
    "type": "movie",
    "rating": "8.7/10"
  }
]
Enjoy!`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	first := recs[0]
	if first.Title != "Inception" || first.Type != recommendation.MediaTypeMovie {
		t.Fatalf("first record = %+v", first)
	}
	if first.Rating.String() != "8.8" {
		t.Errorf("rating = %s, want 8.8", first.Rating)
	}
	if len(first.SimilarTitles) != 2 || first.SimilarTitles[0] != "Tenet" {
		t.Errorf("similar titles = %v", first.SimilarTitles)
	}
	if first.TrailerURL != "" {
		t.Errorf("null trailer_url must stay empty, got %q", first.TrailerURL)
	}
	if recs[1].Rating.String() != "8.7" {
		t.Errorf("fraction rating = %s, want 8.7", recs[1].Rating)
	}
}

func TestParseRecommendationsBentTypes(t *testing.T) {
	raw := `[
  {
    "title": 1984,
    "type": "book",
    "year": 1949,
    "rating": null,
    "seasons": "0",
    "is_compromise": "true"
  },
  {
    "title": "Dark",
    "type": "tv",
    "seasons": "3 (if TV)",
    "episodes": 26,
    "similar_titles": "Stranger Things, The OA"
  }
]`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Title != "1984" || recs[0].Year != "1949" {
		t.Errorf("numeric scalars: %+v", recs[0])
	}
	if recs[0].Rating.Known() {
		t.Errorf("null rating read as known %s", recs[0].Rating)
	}
	if !recs[0].IsCompromise {
		t.Error("quoted boolean not decoded")
	}
	if recs[1].Seasons != 3 || recs[1].Episodes != 26 {
		t.Errorf("seasons/episodes = %d/%d, want 3/26", recs[1].Seasons, recs[1].Episodes)
	}
	if len(recs[1].SimilarTitles) != 2 || recs[1].SimilarTitles[1] != "The OA" {
		t.Errorf("comma-joined similar titles = %v", recs[1].SimilarTitles)
	}
}

func TestParseRecommendationsSkipsBadElements(t *testing.T) {
	raw := `[
  {"title": "Dune", "type": "book"},
  "just a string",
  {"type": "book", "description": "no title here"},
  {"title": "   ", "type": "book"},
  {"title": "Project Hail Mary", "type": "book"}
]`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(recs), recs)
	}
	if recs[0].Title != "Dune" || recs[1].Title != "Project Hail Mary" {
		t.Errorf("kept titles %q / %q", recs[0].Title, recs[1].Title)
	}
}

func TestParseRecommendationsObjectKey(t *testing.T) {
	raw := `The final list is {"recommendations": [
  {"title": "Breaking Bad", "type": "tv", "rating": 9.5},
  {"title": "The Wire", "type": "tv"}
], "note": "enjoy"} as requested.`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Title != "Breaking Bad" || recs[1].Title != "The Wire" {
		t.Errorf("titles = %q, %q", recs[0].Title, recs[1].Title)
	}
}

func TestParseRecommendationsJSONPrecedence(t *testing.T) {
	raw := `Title: Decoy Record
Rating: 1.0

[{"title": "Real Record", "type": "movie", "rating": 9.0}]

Title: Another Decoy`

	recs := ParseRecommendations(raw)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Title != "Real Record" {
		t.Fatalf("JSON must win over structured text, got %q", recs[0].Title)
	}
}

func TestParseRecommendationsStructuredText(t *testing.T) {
	raw := `### Recommendation 1
Title: The Shawshank Redemption
Year: 1994-09-23
Genre: Drama
Rating: 9.3/10
Description: Two imprisoned men bond over decades.
Why: You asked for hopeful stories.
Type: movie
Poster: https://example.com/shawshank.jpg

### Recommendation 2
Title: The Godfather
Score: 9.2
Summary: The aging patriarch hands over his empire.
Recommended because: classic crime pick.
Google Books: https://books.google.com/godfather`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(recs), recs)
	}
	first := recs[0]
	if first.Title != "The Shawshank Redemption" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Rating.String() != "9.3" {
		t.Errorf("rating = %s", first.Rating)
	}
	if first.WhyRecommended != "You asked for hopeful stories." {
		t.Errorf("why = %q", first.WhyRecommended)
	}
	if first.ImageURL != "https://example.com/shawshank.jpg" {
		t.Errorf("poster alias not captured: %q", first.ImageURL)
	}
	second := recs[1]
	if second.Rating.String() != "9.2" {
		t.Errorf("score alias rating = %s", second.Rating)
	}
	if second.Description != "The aging patriarch hands over his empire." {
		t.Errorf("summary alias = %q", second.Description)
	}
	if second.PreviewURL != "https://books.google.com/godfather" {
		t.Errorf("google books alias must map to preview, got %q", second.PreviewURL)
	}
	if second.Title != "The Godfather" {
		t.Errorf("google books line must not overwrite title, got %q", second.Title)
	}
}

func TestParseRecommendationsTrailingComma(t *testing.T) {
	raw := "```json\n[\n  {\"title\": \"Solaris\", \"type\": \"movie\", \"rating\": 8.1,},\n]\n```"

	recs := ParseRecommendations(raw)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Title != "Solaris" || recs[0].Rating.String() != "8.1" {
		t.Fatalf("repaired record = %+v", recs[0])
	}
}

func TestParseRecommendationsOrdinalBoundaries(t *testing.T) {
	raw := `1. First pick
Title: Arrival
Rating: 7.9
2) Second pick
Title: Annihilation
Rating: 6.8`

	recs := ParseRecommendations(raw)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(recs), recs)
	}
	if recs[0].Title != "Arrival" || recs[1].Title != "Annihilation" {
		t.Errorf("titles = %q, %q", recs[0].Title, recs[1].Title)
	}
}

func TestParseRecommendationsTVFields(t *testing.T) {
	raw := `Title: Dark
Type: tv
Seasons: 3
Episodes: 26
Similar Titles: Stranger Things, The OA, Twin Peaks
Image URL: https://image.tmdb.org/t/p/w500/dark.jpg
Trailer URL: https://www.youtube.com/watch?v=rrwycJ08PSA`

	recs := ParseRecommendations(raw)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(recs), recs)
	}
	rec := recs[0]
	if rec.Seasons != 3 || rec.Episodes != 26 {
		t.Errorf("seasons/episodes = %d/%d", rec.Seasons, rec.Episodes)
	}
	if len(rec.SimilarTitles) != 3 || rec.SimilarTitles[2] != "Twin Peaks" {
		t.Errorf("similar titles = %v", rec.SimilarTitles)
	}
	if rec.ImageURL != "https://image.tmdb.org/t/p/w500/dark.jpg" {
		t.Errorf("image url = %q", rec.ImageURL)
	}
	if rec.TrailerURL != "https://www.youtube.com/watch?v=rrwycJ08PSA" {
		t.Errorf("trailer url = %q", rec.TrailerURL)
	}
}

func TestParseRecommendationsRatingLineIsNotBoundary(t *testing.T) {
	raw := `Title: Primer
Rating: 1.5
Description: Engineers build a time machine in a garage.`

	recs := ParseRecommendations(raw)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(recs), recs)
	}
	if recs[0].Description == "" {
		t.Error("record split on a rating line that merely contains a digit and dot")
	}
}

func TestParseRecommendationsNothingRecognizable(t *testing.T) {
	raw := "I could not find anything matching that request. Sorry about that."
	if recs := ParseRecommendations(raw); recs != nil {
		t.Fatalf("got %+v, want nil", recs)
	}
}

func TestParseRecommendationsUntitledTextDropped(t *testing.T) {
	raw := `Rating: 8.0
Genre: Drama
Description: a record with every field except the one that matters`
	if recs := ParseRecommendations(raw); len(recs) != 0 {
		t.Fatalf("got %+v, want none", recs)
	}
}
