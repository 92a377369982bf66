package service

import (
	"testing"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

func TestClassifyFastPath(t *testing.T) {
	tests := []struct {
		request string
		media   recommendation.MediaType
		genre   string
	}{
		{"action movies", recommendation.MediaTypeMovie, "action"},
		{"action movie", recommendation.MediaTypeMovie, "action"},
		{"sci-fi movies", recommendation.MediaTypeMovie, "sci-fi"},
		{"sci fi movies", recommendation.MediaTypeMovie, "sci-fi"},
		{"science fiction movies", recommendation.MediaTypeMovie, "science fiction"},
		{"Comedy Movies", recommendation.MediaTypeMovie, "comedy"},
		{"  horror movies  ", recommendation.MediaTypeMovie, "horror"},
		{"fantasy books", recommendation.MediaTypeBook, "fantasy"},
		{"biography book", recommendation.MediaTypeBook, "biography"},
		{"science fiction books", recommendation.MediaTypeBook, "science fiction"},
		{"drama tv", recommendation.MediaTypeTV, "drama"},
		{"crime shows", recommendation.MediaTypeTV, "crime"},
		{"crime show", recommendation.MediaTypeTV, "crime"},
		{"mystery series", recommendation.MediaTypeTV, "mystery"},
		{"sci fi series", recommendation.MediaTypeTV, "sci-fi"},
	}
	for _, tt := range tests {
		match, ok := ClassifyFastPath(tt.request)
		if !ok {
			t.Errorf("ClassifyFastPath(%q): no match", tt.request)
			continue
		}
		if match.MediaType != tt.media || match.Genre != tt.genre {
			t.Errorf("ClassifyFastPath(%q) = {%s %q}, want {%s %q}",
				tt.request, match.MediaType, match.Genre, tt.media, tt.genre)
		}
	}
}

func TestClassifyFastPathRejects(t *testing.T) {
	requests := []string{
		"",
		"give me an action movie please",
		"action movies from the 90s",
		"best action movies",
		"sci fi books",
		"sci-fi books",
		"polka movies",
		"action",
		"movies",
		"something fun to watch",
		"action series please",
	}
	for _, req := range requests {
		if match, ok := ClassifyFastPath(req); ok {
			t.Errorf("ClassifyFastPath(%q) matched {%s %q}, want no match",
				req, match.MediaType, match.Genre)
		}
	}
}
