// Package tmdb implements the movie and TV content providers over The Movie
// Database v3 REST API (api_key query auth).
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
)

const (
	// DefaultBaseURL is the public TMDB API endpoint.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	posterBaseURL = "https://image.tmdb.org/t/p/w500"

	// maxResults caps how many results a list call maps; each mapped result
	// costs one extra videos lookup for its trailer.
	maxResults = 5
)

// Client talks to the TMDB API and maps its payloads into content items.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
}

var (
	_ contentprovider.MovieProvider = (*Client)(nil)
	_ contentprovider.TVProvider    = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a TMDB client. An empty apiKey is allowed; calls then fail
// with contentprovider.ErrNoAPIKey so the tool layer can degrade gracefully.
func New(apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   "en-US",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult mirrors one entry of a TMDB search, discover, or popular
// response. Movie payloads fill Title/ReleaseDate, TV payloads fill
// Name/FirstAirDate.
type searchResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	GenreIDs     []int   `json:"genre_ids"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// detailsResponse mirrors the movie/tv details payload with videos appended.
type detailsResponse struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	Name             string         `json:"name"`
	Overview         string         `json:"overview"`
	ReleaseDate      string         `json:"release_date"`
	FirstAirDate     string         `json:"first_air_date"`
	PosterPath       string         `json:"poster_path"`
	VoteAverage      float64        `json:"vote_average"`
	VoteCount        int            `json:"vote_count"`
	NumberOfSeasons  int            `json:"number_of_seasons"`
	NumberOfEpisodes int            `json:"number_of_episodes"`
	Genres           []genreRef     `json:"genres"`
	Videos           videosResponse `json:"videos"`
}

type genreRef struct {
	Name string `json:"name"`
}

type videosResponse struct {
	Results []video `json:"results"`
}

type video struct {
	Site string `json:"site"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

// SearchMovies searches movies by free text, optionally narrowed to a
// release year.
func (c *Client) SearchMovies(ctx context.Context, query, year string) ([]content.Item, error) {
	params := c.baseParams()
	params.Set("query", query)
	params.Set("page", "1")
	if y := yearDigits(year); y != "" {
		params.Set("year", y)
	}
	var payload searchResponse
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return c.movieItems(ctx, payload.Results), nil
}

// MovieDetails fetches one movie with its videos appended, so the trailer
// costs no second round trip.
func (c *Client) MovieDetails(ctx context.Context, id string) (content.Item, error) {
	params := c.baseParams()
	params.Set("append_to_response", "videos")
	var payload detailsResponse
	if err := c.get(ctx, "/movie/"+url.PathEscape(id), params, &payload); err != nil {
		return content.Item{}, fmt.Errorf("movie details: %w", err)
	}
	item := content.Item{
		ID:          strconv.Itoa(payload.ID),
		Title:       payload.Title,
		MediaType:   recommendation.MediaTypeMovie,
		Year:        yearOf(payload.ReleaseDate),
		Genres:      detailGenres(payload.Genres),
		VoteCount:   payload.VoteCount,
		Description: payload.Overview,
		ImageURL:    posterURL(payload.PosterPath),
		TrailerURL:  youtubeTrailer(payload.Videos.Results),
	}
	if payload.VoteAverage > 0 {
		item.Rating = recommendation.NewRating(payload.VoteAverage)
	}
	return item, nil
}

// PopularMovies returns the first page of the popularity chart.
func (c *Client) PopularMovies(ctx context.Context) ([]content.Item, error) {
	params := c.baseParams()
	params.Set("page", "1")
	var payload searchResponse
	if err := c.get(ctx, "/movie/popular", params, &payload); err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}
	return c.movieItems(ctx, payload.Results), nil
}

// DiscoverMovies filters the catalog by genre with a vote-count floor that
// keeps obscure entries out. The page is randomized so repeated discovery
// for the same genre surfaces different titles.
func (c *Client) DiscoverMovies(ctx context.Context, opts contentprovider.DiscoverOptions) ([]content.Item, error) {
	id := genreID(movieGenreIDs, opts.Genre)
	if id == 0 {
		return nil, fmt.Errorf("unknown movie genre %q", opts.Genre)
	}
	params := c.discoverParams(opts, id)
	params.Set("vote_count.gte", "100")
	var payload searchResponse
	if err := c.get(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, fmt.Errorf("discover movies: %w", err)
	}
	return c.movieItems(ctx, payload.Results), nil
}

// SearchTV searches shows by free text, optionally narrowed to a first-air
// year.
func (c *Client) SearchTV(ctx context.Context, query, year string) ([]content.Item, error) {
	params := c.baseParams()
	params.Set("query", query)
	params.Set("page", "1")
	if y := yearDigits(year); y != "" {
		params.Set("first_air_date_year", y)
	}
	var payload searchResponse
	if err := c.get(ctx, "/search/tv", params, &payload); err != nil {
		return nil, fmt.Errorf("search tv: %w", err)
	}
	return c.tvItems(ctx, payload.Results), nil
}

// TVDetails fetches one show with season and episode counts and its videos
// appended.
func (c *Client) TVDetails(ctx context.Context, id string) (content.Item, error) {
	params := c.baseParams()
	params.Set("append_to_response", "videos")
	var payload detailsResponse
	if err := c.get(ctx, "/tv/"+url.PathEscape(id), params, &payload); err != nil {
		return content.Item{}, fmt.Errorf("tv details: %w", err)
	}
	item := content.Item{
		ID:          strconv.Itoa(payload.ID),
		Title:       payload.Name,
		MediaType:   recommendation.MediaTypeTV,
		Year:        yearOf(payload.FirstAirDate),
		Genres:      detailGenres(payload.Genres),
		VoteCount:   payload.VoteCount,
		Description: payload.Overview,
		ImageURL:    posterURL(payload.PosterPath),
		TrailerURL:  youtubeTrailer(payload.Videos.Results),
		Seasons:     payload.NumberOfSeasons,
		Episodes:    payload.NumberOfEpisodes,
	}
	if payload.VoteAverage > 0 {
		item.Rating = recommendation.NewRating(payload.VoteAverage)
	}
	return item, nil
}

// PopularTV returns the first page of the popularity chart.
func (c *Client) PopularTV(ctx context.Context) ([]content.Item, error) {
	params := c.baseParams()
	params.Set("page", "1")
	var payload searchResponse
	if err := c.get(ctx, "/tv/popular", params, &payload); err != nil {
		return nil, fmt.Errorf("popular tv: %w", err)
	}
	return c.tvItems(ctx, payload.Results), nil
}

// DiscoverTV filters the catalog by genre. TV uses a lower vote-count floor
// than movies because vote volume on shows is thinner.
func (c *Client) DiscoverTV(ctx context.Context, opts contentprovider.DiscoverOptions) ([]content.Item, error) {
	id := genreID(tvGenreIDs, opts.Genre)
	if id == 0 {
		return nil, fmt.Errorf("unknown tv genre %q", opts.Genre)
	}
	params := c.discoverParams(opts, id)
	params.Set("vote_count.gte", "50")
	var payload searchResponse
	if err := c.get(ctx, "/discover/tv", params, &payload); err != nil {
		return nil, fmt.Errorf("discover tv: %w", err)
	}
	return c.tvItems(ctx, payload.Results), nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("language", c.language)
	return params
}

func (c *Client) discoverParams(opts contentprovider.DiscoverOptions, genreID int) url.Values {
	params := c.baseParams()
	params.Set("with_genres", strconv.Itoa(genreID))
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)
	params.Set("page", strconv.Itoa(rand.IntN(5)+1))
	if opts.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.MinRating, 'f', -1, 64))
	}
	return params
}

func (c *Client) movieItems(ctx context.Context, results []searchResult) []content.Item {
	items := make([]content.Item, 0, min(len(results), maxResults))
	for _, r := range results[:min(len(results), maxResults)] {
		item := content.Item{
			ID:          strconv.Itoa(r.ID),
			Title:       r.Title,
			MediaType:   recommendation.MediaTypeMovie,
			Year:        yearOf(r.ReleaseDate),
			Genres:      genreNames(movieGenreNames, r.GenreIDs),
			VoteCount:   r.VoteCount,
			Description: r.Overview,
			ImageURL:    posterURL(r.PosterPath),
			TrailerURL:  c.trailer(ctx, "movie", r.ID),
		}
		if r.VoteAverage > 0 {
			item.Rating = recommendation.NewRating(r.VoteAverage)
		}
		items = append(items, item)
	}
	return items
}

func (c *Client) tvItems(ctx context.Context, results []searchResult) []content.Item {
	items := make([]content.Item, 0, min(len(results), maxResults))
	for _, r := range results[:min(len(results), maxResults)] {
		item := content.Item{
			ID:          strconv.Itoa(r.ID),
			Title:       r.Name,
			MediaType:   recommendation.MediaTypeTV,
			Year:        yearOf(r.FirstAirDate),
			Genres:      genreNames(tvGenreNames, r.GenreIDs),
			VoteCount:   r.VoteCount,
			Description: r.Overview,
			ImageURL:    posterURL(r.PosterPath),
			TrailerURL:  c.trailer(ctx, "tv", r.ID),
		}
		if r.VoteAverage > 0 {
			item.Rating = recommendation.NewRating(r.VoteAverage)
		}
		items = append(items, item)
	}
	return items
}

// trailer looks up the first YouTube trailer for a movie or tv id. Lookup
// failures leave the trailer absent; they never fail the parent call.
func (c *Client) trailer(ctx context.Context, kind string, id int) string {
	params := c.baseParams()
	var payload videosResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/videos", kind, id), params, &payload); err != nil {
		slog.Debug("tmdb trailer lookup failed", "kind", kind, "id", id, "error", err)
		return ""
	}
	return youtubeTrailer(payload.Results)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return contentprovider.ErrNoAPIKey
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func youtubeTrailer(videos []video) string {
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return "https://www.youtube.com/watch?v=" + v.Key
		}
	}
	return ""
}

func detailGenres(genres []genreRef) []string {
	names := make([]string, 0, 3)
	for _, g := range genres {
		if len(names) == 3 {
			break
		}
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}

// yearOf truncates a release or first-air date to its year.
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// yearDigits pulls a 4-digit year out of free-form input ("2010",
// "around 2010"); returns "" when the input carries fewer than four digits.
func yearDigits(s string) string {
	digits := make([]byte, 0, 4)
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
			if len(digits) == 4 {
				return string(digits)
			}
		}
	}
	return ""
}
