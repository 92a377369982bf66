// Package contentprovider defines the port interfaces for external content
// catalogs (TMDB, Google Books) and the web-search service the research
// tools use.
package contentprovider

import (
	"context"
	"errors"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// ErrNoAPIKey is returned when a provider is called without the credential
// its backing service requires. The tool layer turns it into a readable
// message instead of failing the run.
var ErrNoAPIKey = errors.New("api key not configured")

// DiscoverOptions filters a catalog discovery query.
type DiscoverOptions struct {
	// Genre is a human genre name ("sci-fi", "Comedy"); the provider maps it
	// to its own identifier scheme.
	Genre string

	// MinRating drops results averaging below this value (0 disables).
	MinRating float64

	// SortBy is a provider sort expression; empty means the provider default.
	SortBy string
}

// MovieProvider is the port for a movie catalog.
type MovieProvider interface {
	// SearchMovies returns matches for a free-text query. year narrows the
	// release year when non-empty.
	SearchMovies(ctx context.Context, query, year string) ([]content.Item, error)

	// MovieDetails returns the full record for one movie, trailer included
	// when the catalog has one.
	MovieDetails(ctx context.Context, id string) (content.Item, error)

	// PopularMovies returns the catalog's current popularity chart.
	PopularMovies(ctx context.Context) ([]content.Item, error)

	// DiscoverMovies returns movies matching the filter options.
	DiscoverMovies(ctx context.Context, opts DiscoverOptions) ([]content.Item, error)
}

// TVProvider is the port for a TV show catalog.
type TVProvider interface {
	// SearchTV returns matches for a free-text query. year narrows the
	// first-air year when non-empty.
	SearchTV(ctx context.Context, query, year string) ([]content.Item, error)

	// TVDetails returns the full record for one show, season and episode
	// counts included.
	TVDetails(ctx context.Context, id string) (content.Item, error)

	// PopularTV returns the catalog's current popularity chart.
	PopularTV(ctx context.Context) ([]content.Item, error)

	// DiscoverTV returns shows matching the filter options.
	DiscoverTV(ctx context.Context, opts DiscoverOptions) ([]content.Item, error)
}

// BookProvider is the port for a book catalog.
type BookProvider interface {
	// SearchBooks returns volumes for a free-text query. genre, when
	// non-empty, keeps only volumes whose categories mention it.
	SearchBooks(ctx context.Context, query, genre string) ([]content.Item, error)

	// BookDetails returns the full record for one volume.
	BookDetails(ctx context.Context, id string) (content.Item, error)
}

// Headline is one result from a news or trending search.
type Headline struct {
	Title   string `json:"title"`
	Source  string `json:"source,omitempty"`
	Date    string `json:"date,omitempty"`
	Link    string `json:"link,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchProvider is the port for general web search, serving the research
// agent's news, trending, and similar-title lookups.
type SearchProvider interface {
	// SearchNews returns recent news headlines for a query.
	SearchNews(ctx context.Context, query string) ([]Headline, error)

	// Trending returns what is currently popular for a media type.
	Trending(ctx context.Context, media recommendation.MediaType) ([]Headline, error)

	// SimilarTitles returns titles similar to the given one.
	SimilarTitles(ctx context.Context, title string, media recommendation.MediaType) ([]string, error)
}
