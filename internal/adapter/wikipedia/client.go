// Package wikipedia is the search/content provider adapter. The MediaWiki
// API is treated as unreliable: transient server errors are retried a fixed
// number of times with fixed backoff, and every other failure surfaces as
// an empty result rather than an error the pipeline would have to handle.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"briefly/internal/text"
)

const (
	defaultAPIURL  = "https://en.wikipedia.org/w/api.php"
	userAgent      = "briefly/1.0 (research assistant pipeline)"
	maxQueryChars  = 120
	pageURLPrefix  = "https://en.wikipedia.org/wiki/"
	requestTimeout = 20 * time.Second
)

var blankLines = regexp.MustCompile(`\n{2,}`)

type Client struct {
	apiURL       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	attempts     int
	backoff      time.Duration
	maxPageChars int
}

type Option func(*Client)

func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) { c.attempts = attempts; c.backoff = backoff }
}

func WithRateLimit(perSecond float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

func WithMaxPageChars(n int) Option {
	return func(c *Client) { c.maxPageChars = n }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		apiURL:       defaultAPIURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
		limiter:      rate.NewLimiter(rate.Limit(5), 1),
		attempts:     3,
		backoff:      800 * time.Millisecond,
		maxPageChars: 4000,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search returns page URLs for a query, trying the "search" list endpoint
// first and falling back to "opensearch" when it yields nothing. Long
// queries are whitespace-collapsed and trimmed before being sent.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	q := text.Truncate(strings.Join(strings.Fields(query), " "), maxQueryChars)

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {q},
		"srlimit":  {strconv.Itoa(limit)},
		"format":   {"json"},
	}
	if titles := c.searchTitles(ctx, params); len(titles) > 0 {
		return titleURLs(titles), nil
	}

	params = url.Values{
		"action":    {"opensearch"},
		"search":    {q},
		"limit":     {strconv.Itoa(limit)},
		"namespace": {"0"},
		"format":    {"json"},
	}
	if titles := c.opensearchTitles(ctx, params); len(titles) > 0 {
		return titleURLs(titles), nil
	}

	return nil, nil
}

// ReadPage fetches the plaintext extract for a page URL, collapses runs of
// blank lines and truncates to the configured character budget.
func (c *Client) ReadPage(ctx context.Context, pageURL string) (string, error) {
	title := pageURL
	if i := strings.LastIndex(pageURL, "/wiki/"); i >= 0 {
		title = pageURL[i+len("/wiki/"):]
	}
	title = strings.ReplaceAll(title, "_", " ")
	if decoded, err := url.QueryUnescape(title); err == nil {
		title = decoded
	}

	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"titles":      {title},
		"format":      {"json"},
		"redirects":   {"1"},
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}

	var payload struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decoding extract response: %w", err)
	}

	var extract string
	for _, p := range payload.Query.Pages {
		extract = p.Extract
		break
	}

	extract = strings.TrimSpace(blankLines.ReplaceAllString(extract, "\n\n"))
	return text.Truncate(extract, c.maxPageChars), nil
}

func (c *Client) searchTitles(ctx context.Context, params url.Values) []string {
	body, err := c.get(ctx, params)
	if err != nil {
		return nil
	}

	var payload struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	titles := make([]string, 0, len(payload.Query.Search))
	for _, s := range payload.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles
}

func (c *Client) opensearchTitles(ctx context.Context, params url.Values) []string {
	body, err := c.get(ctx, params)
	if err != nil {
		return nil
	}

	// opensearch responds with a positional array: [query, titles, ...].
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) < 2 {
		return nil
	}

	var titles []string
	if err := json.Unmarshal(payload[1], &titles); err != nil {
		return nil
	}
	return titles
}

// get performs one rate-limited API request, retrying 429/502/503 with
// fixed backoff before giving up.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
			resp.Body.Close()
			lastErr = fmt.Errorf("wikipedia api transient error: %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("wikipedia api error: %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

func titleURLs(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		out = append(out, pageURLPrefix+strings.ReplaceAll(t, " ", "_"))
	}
	return out
}
