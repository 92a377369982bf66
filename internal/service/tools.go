package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	msotel "github.com/Strob0t/MediaScout/internal/adapter/otel"
	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/pipeline"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/memo"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
	"github.com/Strob0t/MediaScout/internal/port/cache"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
)

// Tool-level cache TTLs. Search results churn fastest; catalog details and
// popularity charts are stable for an hour; research queries sit in between.
const (
	screenSearchTTL = 5 * time.Minute
	bookSearchTTL   = 10 * time.Minute
	catalogTTL      = time.Hour
	researchTTL     = 30 * time.Minute
)

// Missing-credential messages. The model reads these and relays the
// limitation to the user instead of the run failing.
const (
	noTMDBKey  = "TMDB API key not configured; movie and TV lookups are disabled."
	noBooksKey = "Google Books API key not configured; book lookups are disabled."
	noSerpKey  = "SerpAPI key not configured; web research is disabled."
)

// ToolService executes agent tool calls against the content providers.
// Every call answers with text: results as labeled blocks, expected failures
// (missing API key, provider error, empty result) as a readable message.
// Lookups are memoized through the shared API cache with a per-tool TTL.
type ToolService struct {
	movies contentprovider.MovieProvider
	tv     contentprovider.TVProvider
	books  contentprovider.BookProvider
	search contentprovider.SearchProvider

	screenSearch *memo.Memoizer
	bookSearch   *memo.Memoizer
	catalog      *memo.Memoizer
	research     *memo.Memoizer

	metrics *msotel.Metrics
}

// NewToolService creates the tool registry over the given providers,
// memoizing lookups through apiCache.
func NewToolService(apiCache cache.Cache, movies contentprovider.MovieProvider, tv contentprovider.TVProvider, books contentprovider.BookProvider, search contentprovider.SearchProvider) *ToolService {
	return &ToolService{
		movies:       movies,
		tv:           tv,
		books:        books,
		search:       search,
		screenSearch: memo.New(apiCache, screenSearchTTL),
		bookSearch:   memo.New(apiCache, bookSearchTTL),
		catalog:      memo.New(apiCache, catalogTTL),
		research:     memo.New(apiCache, researchTTL),
	}
}

// toolDefs describes every tool an agent may advertise, keyed by the
// capability names the pipeline templates bind.
var toolDefs = map[string]agentrunner.ToolDef{
	pipeline.ToolSearchMovies: {
		Name:        pipeline.ToolSearchMovies,
		Description: "Search for movies by title or keywords",
		Parameters: objectSchema(map[string]any{
			"query": stringProp("Search query for movies"),
			"year":  stringProp("Release year filter"),
		}, "query"),
	},
	pipeline.ToolMovieDetails: {
		Name:        pipeline.ToolMovieDetails,
		Description: "Get detailed information about a specific movie",
		Parameters: objectSchema(map[string]any{
			"id": stringProp("Movie ID from a previous search result"),
		}, "id"),
	},
	pipeline.ToolPopularMovies: {
		Name:        pipeline.ToolPopularMovies,
		Description: "Get currently popular movies",
		Parameters:  objectSchema(map[string]any{}),
	},
	pipeline.ToolDiscoverMovies: {
		Name:        pipeline.ToolDiscoverMovies,
		Description: "Find movies by genre with diverse results. Use for broad genre requests like 'sci-fi movies'.",
		Parameters: objectSchema(map[string]any{
			"genre":      stringProp("Genre to filter by (e.g. 'Action', 'Science Fiction')"),
			"min_rating": numberProp("Minimum rating (0-10) to filter by"),
			"sort_by":    stringProp("Sort order (default: popularity.desc)"),
		}, "genre"),
	},
	pipeline.ToolSearchTV: {
		Name:        pipeline.ToolSearchTV,
		Description: "Search for TV shows by title or keywords",
		Parameters: objectSchema(map[string]any{
			"query": stringProp("Search query for TV shows"),
			"year":  stringProp("First air date year filter"),
		}, "query"),
	},
	pipeline.ToolTVDetails: {
		Name:        pipeline.ToolTVDetails,
		Description: "Get detailed information about a specific TV show, including seasons and episodes",
		Parameters: objectSchema(map[string]any{
			"id": stringProp("TV show ID from a previous search result"),
		}, "id"),
	},
	pipeline.ToolPopularTV: {
		Name:        pipeline.ToolPopularTV,
		Description: "Get currently popular TV shows",
		Parameters:  objectSchema(map[string]any{}),
	},
	pipeline.ToolDiscoverTV: {
		Name:        pipeline.ToolDiscoverTV,
		Description: "Find TV shows by genre with diverse results. Use for broad genre requests.",
		Parameters: objectSchema(map[string]any{
			"genre":      stringProp("Genre to filter by (e.g. 'Drama', 'Comedy')"),
			"min_rating": numberProp("Minimum rating (0-10) to filter by"),
			"sort_by":    stringProp("Sort order (default: popularity.desc)"),
		}, "genre"),
	},
	pipeline.ToolSearchBooks: {
		Name:        pipeline.ToolSearchBooks,
		Description: "Search for books by title, author, or keywords",
		Parameters: objectSchema(map[string]any{
			"query": stringProp("Search query for books"),
			"genre": stringProp("Genre filter"),
		}, "query"),
	},
	pipeline.ToolBookDetails: {
		Name:        pipeline.ToolBookDetails,
		Description: "Get detailed information about a specific book",
		Parameters: objectSchema(map[string]any{
			"id": stringProp("Book volume ID from a previous search result"),
		}, "id"),
	},
	pipeline.ToolSimilarTitles: {
		Name:        pipeline.ToolSimilarTitles,
		Description: "Find titles similar to a movie, book, or TV show",
		Parameters: objectSchema(map[string]any{
			"title":      stringProp("Title to find similar media for"),
			"media_type": stringProp("Type of media: 'movie', 'book', or 'tv'"),
		}, "title"),
	},
	pipeline.ToolNewsSearch: {
		Name:        pipeline.ToolNewsSearch,
		Description: "Search for recent news and articles about media",
		Parameters: objectSchema(map[string]any{
			"query": stringProp("Search query for news"),
		}, "query"),
	},
	pipeline.ToolTrendingSearch: {
		Name:        pipeline.ToolTrendingSearch,
		Description: "Find currently trending movies, books, or TV shows",
		Parameters: objectSchema(map[string]any{
			"media_type": stringProp("Type of media: 'movie', 'book', or 'tv' (default: movie)"),
		}),
	},
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

// Defs returns the wire definitions for the named tools, preserving order.
// Unknown names are skipped.
func (s *ToolService) Defs(names []string) []agentrunner.ToolDef {
	defs := make([]agentrunner.ToolDef, 0, len(names))
	for _, name := range names {
		if def, ok := toolDefs[name]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// toolArgs is the union of every argument the tools accept. Models are loose
// with argument types (numeric years, integer ids), so the permissive
// decoders from the parser are reused here.
type toolArgs struct {
	Query     string     `json:"query"`
	Year      flexString `json:"year"`
	Genre     string     `json:"genre"`
	MinRating float64    `json:"min_rating"`
	SortBy    string     `json:"sort_by"`
	ID        flexString `json:"id"`
	Title     string     `json:"title"`
	MediaType string     `json:"media_type"`
}

// SetMetrics attaches metric instruments; nil leaves recording disabled.
func (s *ToolService) SetMetrics(m *msotel.Metrics) {
	s.metrics = m
}

// Call executes one tool invocation and always returns text for the model.
// Failures degrade to readable messages, never errors: the agent loop must
// keep moving no matter what a provider does.
func (s *ToolService) Call(ctx context.Context, call agentrunner.ToolCall) string {
	ctx, span := msotel.StartToolCallSpan(ctx, call.ID, call.Name)
	defer span.End()
	if s.metrics != nil {
		s.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", call.Name),
		))
	}

	var args toolArgs
	if strings.TrimSpace(call.Args) != "" {
		if err := json.Unmarshal([]byte(call.Args), &args); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v. Send a JSON object matching the tool schema.", call.Name, err)
		}
	}

	switch call.Name {
	case pipeline.ToolSearchMovies:
		return s.searchMovies(ctx, args)
	case pipeline.ToolMovieDetails:
		return s.movieDetails(ctx, args)
	case pipeline.ToolPopularMovies:
		return s.popularMovies(ctx)
	case pipeline.ToolDiscoverMovies:
		return s.discoverMovies(ctx, args)
	case pipeline.ToolSearchTV:
		return s.searchTV(ctx, args)
	case pipeline.ToolTVDetails:
		return s.tvDetails(ctx, args)
	case pipeline.ToolPopularTV:
		return s.popularTV(ctx)
	case pipeline.ToolDiscoverTV:
		return s.discoverTV(ctx, args)
	case pipeline.ToolSearchBooks:
		return s.searchBooks(ctx, args)
	case pipeline.ToolBookDetails:
		return s.bookDetails(ctx, args)
	case pipeline.ToolSimilarTitles:
		return s.similarTitles(ctx, args)
	case pipeline.ToolNewsSearch:
		return s.newsSearch(ctx, args)
	case pipeline.ToolTrendingSearch:
		return s.trendingSearch(ctx, args)
	default:
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	}
}

func (s *ToolService) searchMovies(ctx context.Context, args toolArgs) string {
	if args.Query == "" {
		return "Missing required argument: query"
	}
	year := string(args.Year)
	key := memo.Key(pipeline.ToolSearchMovies, []any{args.Query}, map[string]any{"year": year})
	items, err := memo.Do(ctx, s.screenSearch, key, func(ctx context.Context) ([]content.Item, error) {
		return s.movies.SearchMovies(ctx, args.Query, year)
	})
	if err != nil {
		return failureText(noTMDBKey, "searching movies", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No movies found for query: '%s'", args.Query)
	}
	return content.FormatList(items)
}

func (s *ToolService) movieDetails(ctx context.Context, args toolArgs) string {
	id := string(args.ID)
	if id == "" {
		return "Missing required argument: id"
	}
	key := memo.Key(pipeline.ToolMovieDetails, []any{id}, nil)
	item, err := memo.Do(ctx, s.catalog, key, func(ctx context.Context) (content.Item, error) {
		return s.movies.MovieDetails(ctx, id)
	})
	if err != nil {
		return failureText(noTMDBKey, "getting movie details", err)
	}
	return item.FormatBlock()
}

func (s *ToolService) popularMovies(ctx context.Context) string {
	key := memo.Key(pipeline.ToolPopularMovies, nil, nil)
	items, err := memo.Do(ctx, s.catalog, key, func(ctx context.Context) ([]content.Item, error) {
		return s.movies.PopularMovies(ctx)
	})
	if err != nil {
		return failureText(noTMDBKey, "getting popular movies", err)
	}
	if len(items) == 0 {
		return "No popular movies found."
	}
	return content.FormatList(items)
}

// discoverMovies is deliberately not memoized: the provider randomizes the
// result page so repeated discovery surfaces different titles, and caching
// would freeze one page for the TTL.
func (s *ToolService) discoverMovies(ctx context.Context, args toolArgs) string {
	if args.Genre == "" {
		return "Missing required argument: genre"
	}
	items, err := s.movies.DiscoverMovies(ctx, contentprovider.DiscoverOptions{
		Genre:     args.Genre,
		MinRating: args.MinRating,
		SortBy:    args.SortBy,
	})
	if err != nil {
		return failureText(noTMDBKey, "discovering movies", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No movies found for genre: '%s'", args.Genre)
	}
	return content.FormatList(items)
}

func (s *ToolService) searchTV(ctx context.Context, args toolArgs) string {
	if args.Query == "" {
		return "Missing required argument: query"
	}
	year := string(args.Year)
	key := memo.Key(pipeline.ToolSearchTV, []any{args.Query}, map[string]any{"year": year})
	items, err := memo.Do(ctx, s.screenSearch, key, func(ctx context.Context) ([]content.Item, error) {
		return s.tv.SearchTV(ctx, args.Query, year)
	})
	if err != nil {
		return failureText(noTMDBKey, "searching TV shows", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No TV shows found for query: '%s'", args.Query)
	}
	return content.FormatList(items)
}

func (s *ToolService) tvDetails(ctx context.Context, args toolArgs) string {
	id := string(args.ID)
	if id == "" {
		return "Missing required argument: id"
	}
	key := memo.Key(pipeline.ToolTVDetails, []any{id}, nil)
	item, err := memo.Do(ctx, s.catalog, key, func(ctx context.Context) (content.Item, error) {
		return s.tv.TVDetails(ctx, id)
	})
	if err != nil {
		return failureText(noTMDBKey, "getting TV show details", err)
	}
	return item.FormatBlock()
}

func (s *ToolService) popularTV(ctx context.Context) string {
	key := memo.Key(pipeline.ToolPopularTV, nil, nil)
	items, err := memo.Do(ctx, s.catalog, key, func(ctx context.Context) ([]content.Item, error) {
		return s.tv.PopularTV(ctx)
	})
	if err != nil {
		return failureText(noTMDBKey, "getting popular TV shows", err)
	}
	if len(items) == 0 {
		return "No popular TV shows found."
	}
	return content.FormatList(items)
}

// discoverTV skips memoization for the same reason discoverMovies does.
func (s *ToolService) discoverTV(ctx context.Context, args toolArgs) string {
	if args.Genre == "" {
		return "Missing required argument: genre"
	}
	items, err := s.tv.DiscoverTV(ctx, contentprovider.DiscoverOptions{
		Genre:     args.Genre,
		MinRating: args.MinRating,
		SortBy:    args.SortBy,
	})
	if err != nil {
		return failureText(noTMDBKey, "discovering TV shows", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No TV shows found for genre: '%s'", args.Genre)
	}
	return content.FormatList(items)
}

func (s *ToolService) searchBooks(ctx context.Context, args toolArgs) string {
	if args.Query == "" {
		return "Missing required argument: query"
	}
	key := memo.Key(pipeline.ToolSearchBooks, []any{args.Query}, map[string]any{"genre": strings.ToLower(args.Genre)})
	items, err := memo.Do(ctx, s.bookSearch, key, func(ctx context.Context) ([]content.Item, error) {
		return s.books.SearchBooks(ctx, args.Query, args.Genre)
	})
	if err != nil {
		return failureText(noBooksKey, "searching books", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("No books found for query: '%s'", args.Query)
	}
	return content.FormatList(items)
}

func (s *ToolService) bookDetails(ctx context.Context, args toolArgs) string {
	id := string(args.ID)
	if id == "" {
		return "Missing required argument: id"
	}
	key := memo.Key(pipeline.ToolBookDetails, []any{id}, nil)
	item, err := memo.Do(ctx, s.catalog, key, func(ctx context.Context) (content.Item, error) {
		return s.books.BookDetails(ctx, id)
	})
	if err != nil {
		return failureText(noBooksKey, "getting book details", err)
	}
	return item.FormatBlock()
}

func (s *ToolService) similarTitles(ctx context.Context, args toolArgs) string {
	if args.Title == "" {
		return "Missing required argument: title"
	}
	media, _ := recommendation.ParseMediaType(args.MediaType)
	if media == recommendation.MediaTypeUnknown {
		media = recommendation.MediaTypeMovie
	}
	key := memo.Key(pipeline.ToolSimilarTitles, []any{strings.ToLower(args.Title)}, map[string]any{"media": string(media)})
	titles, err := memo.Do(ctx, s.research, key, func(ctx context.Context) ([]string, error) {
		return s.search.SimilarTitles(ctx, args.Title, media)
	})
	if err != nil {
		return failureText(noSerpKey, "finding similar titles", err)
	}
	if len(titles) == 0 {
		return fmt.Sprintf("No similar %s found for '%s'.", mediaPlural(media), args.Title)
	}
	lines := make([]string, 0, len(titles)+1)
	lines = append(lines, fmt.Sprintf("Similar %s to '%s':", mediaPlural(media), args.Title))
	for _, t := range titles {
		lines = append(lines, "- "+t)
	}
	return strings.Join(lines, "\n")
}

func (s *ToolService) newsSearch(ctx context.Context, args toolArgs) string {
	if args.Query == "" {
		return "Missing required argument: query"
	}
	key := memo.Key(pipeline.ToolNewsSearch, []any{args.Query}, nil)
	headlines, err := memo.Do(ctx, s.research, key, func(ctx context.Context) ([]contentprovider.Headline, error) {
		return s.search.SearchNews(ctx, args.Query)
	})
	if err != nil {
		return failureText(noSerpKey, "searching news", err)
	}
	if len(headlines) == 0 {
		return fmt.Sprintf("No recent news found for query: '%s'", args.Query)
	}
	return formatNews(headlines)
}

func (s *ToolService) trendingSearch(ctx context.Context, args toolArgs) string {
	media, _ := recommendation.ParseMediaType(args.MediaType)
	if media == recommendation.MediaTypeUnknown {
		media = recommendation.MediaTypeMovie
	}
	key := memo.Key(pipeline.ToolTrendingSearch, []any{string(media)}, nil)
	headlines, err := memo.Do(ctx, s.research, key, func(ctx context.Context) ([]contentprovider.Headline, error) {
		return s.search.Trending(ctx, media)
	})
	if err != nil {
		return failureText(noSerpKey, "searching trending media", err)
	}
	if len(headlines) == 0 {
		return fmt.Sprintf("No trending %s found.", mediaPlural(media))
	}
	return formatTrending(media, headlines)
}

// failureText maps a provider error to the text the model sees: the
// missing-credential message for ErrNoAPIKey, a generic readable line
// otherwise.
func failureText(noKey, doing string, err error) string {
	if errors.Is(err, contentprovider.ErrNoAPIKey) {
		return noKey
	}
	return fmt.Sprintf("Error %s: %v", doing, err)
}

func formatNews(headlines []contentprovider.Headline) string {
	blocks := make([]string, len(headlines))
	for i, h := range headlines {
		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s", h.Title)
		if h.Source != "" {
			fmt.Fprintf(&b, "\nSource: %s", h.Source)
		}
		if h.Date != "" {
			fmt.Fprintf(&b, "\nDate: %s", h.Date)
		}
		if h.Snippet != "" {
			fmt.Fprintf(&b, "\nSnippet: %s", h.Snippet)
		}
		blocks[i] = b.String()
	}
	return "Recent News:\n" + strings.Join(blocks, "\n---\n")
}

func formatTrending(media recommendation.MediaType, headlines []contentprovider.Headline) string {
	lines := make([]string, 0, len(headlines)+1)
	lines = append(lines, fmt.Sprintf("Currently trending %s:", mediaPlural(media)))
	for _, h := range headlines {
		line := "- " + h.Title
		if h.Snippet != "" {
			line += "\n  " + h.Snippet
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func mediaPlural(media recommendation.MediaType) string {
	switch media {
	case recommendation.MediaTypeBook:
		return "books"
	case recommendation.MediaTypeTV:
		return "TV shows"
	default:
		return "movies"
	}
}
