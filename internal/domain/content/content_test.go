package content

import (
	"strings"
	"testing"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

func TestFormatBlock(t *testing.T) {
	item := Item{
		ID:          "27205",
		Title:       "Inception",
		MediaType:   recommendation.MediaTypeMovie,
		Year:        "2010",
		Genres:      []string{"Action", "Sci-Fi"},
		Rating:      recommendation.NewRating(8.8),
		Description: "A thief who steals corporate secrets through dream-sharing.",
		ImageURL:    "https://image.example/inception.jpg",
	}
	block := item.FormatBlock()

	for _, want := range []string{
		"Title: Inception",
		"Year: 2010",
		"Rating: 8.8/10",
		"Genre: Action, Sci-Fi",
		"ID: 27205",
		"Image URL: https://image.example/inception.jpg",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}
	if strings.Contains(block, "Trailer URL") {
		t.Error("absent trailer URL must be omitted, not rendered empty")
	}
}

func TestFormatBlockBookScale(t *testing.T) {
	item := Item{
		Title:     "Dune",
		MediaType: recommendation.MediaTypeBook,
		Authors:   []string{"Frank Herbert"},
		Rating:    recommendation.NewRating(4.7),
	}
	block := item.FormatBlock()
	if !strings.Contains(block, "Rating: 4.7/5") {
		t.Fatalf("book rating must render on the 0-5 scale:\n%s", block)
	}
	if !strings.Contains(block, "Authors: Frank Herbert") {
		t.Fatalf("missing authors line:\n%s", block)
	}
}

func TestFormatList(t *testing.T) {
	if got := FormatList(nil); got != "No results found." {
		t.Fatalf("empty list renders %q", got)
	}
	got := FormatList([]Item{{Title: "A"}, {Title: "B"}})
	if !strings.Contains(got, "\n---\n") {
		t.Fatalf("blocks must be separated:\n%s", got)
	}
}
