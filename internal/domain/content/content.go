// Package content defines the normalized item record that every content
// provider maps its payload into before it reaches the pipeline, plus the
// text-block rendering the agent tools emit.
package content

import (
	"fmt"
	"strings"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// Item is one piece of content (a movie, book, or TV show) in provider-neutral
// form. URL fields are populated only when the source payload carried them.
type Item struct {
	ID          string
	Title       string
	MediaType   recommendation.MediaType
	Year        string
	Genres      []string
	Rating      recommendation.Rating
	VoteCount   int
	Authors     []string
	Description string
	ImageURL    string
	TrailerURL  string
	PreviewURL  string
	Seasons     int
	Episodes    int
}

// RatingScale returns the denominator of the item's rating scale.
func (i Item) RatingScale() int {
	if i.MediaType == recommendation.MediaTypeBook {
		return 5
	}
	return 10
}

// FormatBlock renders the item as the labeled text block agents consume.
// Absent fields are omitted entirely; URLs are never fabricated. The ID line
// is what lets an agent chain a search result into a details call.
func (i Item) FormatBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", i.Title)
	if len(i.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(i.Authors, ", "))
	}
	if i.Year != "" {
		fmt.Fprintf(&b, "Year: %s\n", i.Year)
	}
	if i.Rating.Known() {
		fmt.Fprintf(&b, "Rating: %s/%d\n", i.Rating.String(), i.RatingScale())
	}
	if len(i.Genres) > 0 {
		fmt.Fprintf(&b, "Genre: %s\n", strings.Join(i.Genres, ", "))
	}
	if i.Seasons > 0 {
		fmt.Fprintf(&b, "Seasons: %d\n", i.Seasons)
	}
	if i.Episodes > 0 {
		fmt.Fprintf(&b, "Episodes: %d\n", i.Episodes)
	}
	if i.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", i.Description)
	}
	if i.ID != "" {
		fmt.Fprintf(&b, "ID: %s\n", i.ID)
	}
	if i.ImageURL != "" {
		fmt.Fprintf(&b, "Image URL: %s\n", i.ImageURL)
	}
	if i.TrailerURL != "" {
		fmt.Fprintf(&b, "Trailer URL: %s\n", i.TrailerURL)
	}
	if i.PreviewURL != "" {
		fmt.Fprintf(&b, "Preview URL: %s\n", i.PreviewURL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatList renders items as blocks joined by a separator line, the shape
// every tool returns to its agent.
func FormatList(items []Item) string {
	if len(items) == 0 {
		return "No results found."
	}
	blocks := make([]string, len(items))
	for n, it := range items {
		blocks[n] = it.FormatBlock()
	}
	return strings.Join(blocks, "\n---\n")
}
