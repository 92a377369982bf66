// Package serp implements the web-search provider over a SerpAPI-compatible
// endpoint, backing the news, trending, and similar-title lookups.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/port/contentprovider"
)

const (
	// DefaultBaseURL is the public SerpAPI endpoint.
	DefaultBaseURL = "https://serpapi.com"

	maxNews     = 3
	maxOrganic  = 5
	snippetSize = 100
)

// Client talks to a SerpAPI-compatible search endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

var _ contentprovider.SearchProvider = (*Client)(nil)

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

// New creates a search client. An empty apiKey is allowed; calls then fail
// with contentprovider.ErrNoAPIKey.
func New(apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	NewsResults    []newsResult    `json:"news_results"`
	OrganicResults []organicResult `json:"organic_results"`
}

type newsResult struct {
	Title   string     `json:"title"`
	Source  newsSource `json:"source"`
	Date    string     `json:"date"`
	Link    string     `json:"link"`
	Snippet string     `json:"snippet"`
}

// newsSource tolerates both payload shapes SerpAPI has served over time:
// an object with a name field and a bare string.
type newsSource struct {
	Name string
}

func (s *newsSource) UnmarshalJSON(data []byte) error {
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		s.Name = obj.Name
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
	}
	return nil
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchNews returns up to three recent news headlines for a query.
func (c *Client) SearchNews(ctx context.Context, query string) ([]contentprovider.Headline, error) {
	params := c.baseParams()
	params.Set("q", query)
	params.Set("tbm", "nws")

	var payload searchResponse
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("search news: %w", err)
	}

	results := payload.NewsResults
	if len(results) > maxNews {
		results = results[:maxNews]
	}
	headlines := make([]contentprovider.Headline, 0, len(results))
	for _, r := range results {
		headlines = append(headlines, contentprovider.Headline{
			Title:   r.Title,
			Source:  r.Source.Name,
			Date:    r.Date,
			Link:    r.Link,
			Snippet: truncate(r.Snippet, snippetSize),
		})
	}
	return headlines, nil
}

// Trending returns what is currently popular for a media type, phrased as a
// year-anchored query so stale lists drop out of the results.
func (c *Client) Trending(ctx context.Context, media recommendation.MediaType) ([]contentprovider.Headline, error) {
	year := strconv.Itoa(c.now().Year())
	query := "trending " + string(media) + "s " + year
	if media == recommendation.MediaTypeBook {
		query = "best selling books " + year
	}

	params := c.baseParams()
	params.Set("q", query)

	var payload searchResponse
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("search trending: %w", err)
	}

	headlines := make([]contentprovider.Headline, 0, maxOrganic)
	for _, r := range payload.OrganicResults {
		if len(headlines) == maxOrganic {
			break
		}
		if r.Title == "" || strings.HasPrefix(r.Title, "People also ask") {
			continue
		}
		headlines = append(headlines, contentprovider.Headline{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: truncate(r.Snippet, snippetSize),
		})
	}
	return headlines, nil
}

// SimilarTitles returns up to five deduplicated titles similar to the given
// one, with the search engine's "Similar …" suffixes stripped.
func (c *Client) SimilarTitles(ctx context.Context, title string, media recommendation.MediaType) ([]string, error) {
	params := c.baseParams()
	params.Set("q", similarQuery(title, media))

	var payload searchResponse
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("similar titles: %w", err)
	}

	titles := make([]string, 0, maxOrganic)
	seen := make(map[string]bool, maxOrganic)
	for _, r := range payload.OrganicResults {
		if len(titles) == maxOrganic {
			break
		}
		cleaned := stripSimilarSuffix(r.Title)
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		titles = append(titles, cleaned)
	}
	return titles, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("gl", "us")
	params.Set("hl", "en")
	return params
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if c.apiKey == "" {
		return contentprovider.ErrNoAPIKey
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("serp request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("serp search returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode serp response: %w", err)
	}
	return nil
}

func similarQuery(title string, media recommendation.MediaType) string {
	if media == recommendation.MediaTypeTV {
		return "tv shows similar to " + title
	}
	return string(media) + "s similar to " + title
}

func stripSimilarSuffix(title string) string {
	for _, suffix := range []string{" - Similar movies", " - Similar books", " - Similar tv shows"} {
		title = strings.Replace(title, suffix, "", 1)
	}
	return strings.TrimSpace(title)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
