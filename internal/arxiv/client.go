// Package arxiv fetches paper metadata from the arXiv query API.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/arxivindex/internal/paper"
)

const (
	// BaseURL is the arXiv query API endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// DefaultPageSize is the largest page arXiv serves per request.
	DefaultPageSize = 100

	// DefaultDelay is the politeness delay between requests asked for by arXiv.
	DefaultDelay = 3 * time.Second

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second
)

// Client is a rate-limited HTTP client for the arXiv query API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	pageSize   int
	maxResults int
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithDelay sets the minimum time between requests. Zero disables the limit.
func WithDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithPageSize sets the number of results requested per page.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxResults stops SearchAll after n papers. Zero means no limit.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		c.maxResults = n
	}
}

// WithLogger sets the logger used for request and parse diagnostics.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultDelay), 1),
		baseURL:    BaseURL,
		pageSize:   DefaultPageSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildSearchQuery returns the search_query values for keywords within
// category. Each keyword gets its own query unless combine is set, in which
// case the keywords are OR-joined into one. No keywords selects the whole
// category.
func BuildSearchQuery(keywords []string, category string, combine bool) []string {
	var terms []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, `all:"`+strings.ReplaceAll(kw, `"`, "")+`"`)
		}
	}

	scope := func(expr string) string {
		switch {
		case category == "":
			return expr
		case expr == "":
			return "cat:" + category
		default:
			return "cat:" + category + " AND " + expr
		}
	}

	if len(terms) == 0 {
		return []string{scope("")}
	}
	if combine && len(terms) > 1 {
		return []string{scope("(" + strings.Join(terms, " OR ") + ")")}
	}
	queries := make([]string, len(terms))
	for i, t := range terms {
		queries[i] = scope(t)
	}
	return queries
}

// FetchPage fetches one page of results for query starting at start.
// A body that does not parse as a feed is logged and yields an empty page.
func (c *Client) FetchPage(ctx context.Context, query string, start int) ([]paper.Paper, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(c.pageSize))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "ascending")

	body, err := c.get(ctx, params, query)
	if err != nil {
		return nil, err
	}

	papers, err := ParseFeed(body)
	if err != nil {
		c.logger.Warn("unparseable arXiv page, treating as empty",
			zap.String("query", query),
			zap.Int("start", start),
			zap.Error(err),
		)
		return nil, nil
	}
	return papers, nil
}

// SearchAll pages through every result for query, calling onPage after each
// non-empty page. It stops at the first empty page, at the configured
// result limit, or when onPage returns an error. It returns the number of
// papers delivered.
func (c *Client) SearchAll(ctx context.Context, query string, onPage func([]paper.Paper) error) (int, error) {
	total := 0
	for start := 0; ; start += c.pageSize {
		papers, err := c.FetchPage(ctx, query, start)
		if err != nil {
			return total, fmt.Errorf("fetching page at %d: %w", start, err)
		}
		if len(papers) == 0 {
			c.logger.Debug("no more results", zap.String("query", query), zap.Int("start", start))
			return total, nil
		}
		if c.maxResults > 0 && total+len(papers) > c.maxResults {
			papers = papers[:c.maxResults-total]
		}
		total += len(papers)
		if err := onPage(papers); err != nil {
			return total, err
		}
		if c.maxResults > 0 && total >= c.maxResults {
			return total, nil
		}
	}
}

// FetchByID fetches a single paper by arXiv identifier or abs URL.
func (c *Client) FetchByID(ctx context.Context, idOrURL string) (*paper.Paper, error) {
	id := NormalizeID(idOrURL)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	params := url.Values{}
	params.Set("id_list", id)
	body, err := c.get(ctx, params, id)
	if err != nil {
		return nil, err
	}

	papers, err := ParseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed for %s: %w", id, err)
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &papers[0], nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, params url.Values, label string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug("arXiv request", zap.String("url", reqURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, label); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetworkError, err)
	}
	return body, nil
}
