// Package googlebooks implements the book content provider over the Google
// Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain/content"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
)

const (
	// DefaultBaseURL is the public Google Books API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	// requestVolumes is asked of the API; maxVolumes is what a search maps
	// after the optional category filter has something to chew on.
	requestVolumes = 8
	maxVolumes     = 5

	// searchDescriptionLimit keeps list output compact; details return the
	// full description.
	searchDescriptionLimit = 300
)

// Client talks to the Google Books API and maps volumes into content items.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ contentprovider.BookProvider = (*Client)(nil)

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

// New creates a Google Books client. An empty apiKey is allowed; calls then
// fail with contentprovider.ErrNoAPIKey.
func New(apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// volume mirrors one entry of a volumes response.
type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string     `json:"title"`
	Authors       []string   `json:"authors"`
	PublishedDate string     `json:"publishedDate"`
	Categories    []string   `json:"categories"`
	Description   string     `json:"description"`
	AverageRating float64    `json:"averageRating"`
	RatingsCount  int        `json:"ratingsCount"`
	ImageLinks    imageLinks `json:"imageLinks"`
	PreviewLink   string     `json:"previewLink"`
	InfoLink      string     `json:"infoLink"`
}

type imageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

type searchResponse struct {
	Items []volume `json:"items"`
}

// SearchBooks queries volumes by free text. genre, when non-empty, keeps
// only volumes whose categories mention it. Descriptions are truncated for
// list output.
func (c *Client) SearchBooks(ctx context.Context, query, genre string) ([]content.Item, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprint(requestVolumes))
	params.Set("printType", "books")

	var payload searchResponse
	if err := c.get(ctx, "/volumes", params, &payload); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	vols := payload.Items
	if len(vols) > maxVolumes {
		vols = vols[:maxVolumes]
	}
	items := make([]content.Item, 0, len(vols))
	for _, v := range vols {
		item := volumeItem(v)
		if genre != "" && !containsFold(strings.Join(v.VolumeInfo.Categories, ", "), genre) {
			continue
		}
		item.Description = truncate(item.Description, searchDescriptionLimit)
		items = append(items, item)
	}
	return items, nil
}

// BookDetails fetches one volume with its full description.
func (c *Client) BookDetails(ctx context.Context, id string) (content.Item, error) {
	var payload volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &payload); err != nil {
		return content.Item{}, fmt.Errorf("book details: %w", err)
	}
	return volumeItem(payload), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return contentprovider.ErrNoAPIKey
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google books request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google books %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode google books response: %w", err)
	}
	return nil
}

func volumeItem(v volume) content.Item {
	info := v.VolumeInfo
	item := content.Item{
		ID:          v.ID,
		Title:       info.Title,
		MediaType:   recommendation.MediaTypeBook,
		Year:        yearOf(info.PublishedDate),
		Genres:      info.Categories,
		VoteCount:   info.RatingsCount,
		Authors:     info.Authors,
		Description: info.Description,
		ImageURL:    httpsThumbnail(info.ImageLinks.Thumbnail),
		PreviewURL:  info.PreviewLink,
	}
	if item.PreviewURL == "" {
		item.PreviewURL = info.InfoLink
	}
	if info.AverageRating > 0 {
		item.Rating = recommendation.NewRating(info.AverageRating)
	}
	return item
}

// httpsThumbnail upgrades the http thumbnail links Google Books still serves.
func httpsThumbnail(link string) string {
	return strings.Replace(link, "http://", "https://", 1)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
