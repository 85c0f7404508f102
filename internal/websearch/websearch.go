// Package websearch provides web search and page fetching for the
// enhancement pipeline. Search goes through the DuckDuckGo HTML
// endpoint (no API key required); fetches honor robots.txt and extract
// readable text from the page markup.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notewise/internal/config"
	"notewise/internal/generation"
	"notewise/internal/platform/logger"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Page is the readable content of a fetched URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

const (
	searchEndpoint = "https://html.duckduckgo.com/html/?q=%s"
	maxBodyBytes   = 2 << 20
)

// Client performs searches and fetches with shared HTTP settings.
type Client struct {
	http       *http.Client
	userAgent  string
	maxResults int

	// endpoint is overridable for tests.
	endpoint string
}

// New builds a Client from the search configuration.
func New(cfg config.SearchConfig) *Client {
	return &Client{
		http:       &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		userAgent:  cfg.UserAgent,
		maxResults: cfg.MaxResults,
		endpoint:   searchEndpoint,
	}
}

// Search queries DuckDuckGo and returns up to max results (client
// default when max <= 0). No results is not an error; callers decide
// whether an empty hit list matters.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", generation.ErrEmptyResult)
	}
	if max <= 0 {
		max = c.maxResults
	}

	searchURL := fmt.Sprintf(c.endpoint, url.QueryEscape(query))
	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", query, err)
	}

	results, err := ParseResults(string(body), max)
	if err != nil {
		return nil, fmt.Errorf("parsing search results for %q: %w", query, err)
	}

	logger.FromContext(ctx).Debug("web search completed",
		"query", query,
		"result_count", len(results))
	return results, nil
}

// Fetch retrieves a page and extracts its readable text. Pages whose
// robots.txt disallows us, or that yield no extractable text, return
// an error; the pipeline's aggregation layer treats per-page failures
// as tolerable.
func (c *Client) Fetch(ctx context.Context, pageURL string) (Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Page{}, fmt.Errorf("%w: invalid page url %q", generation.ErrNetwork, pageURL)
	}

	if !c.robotsAllowed(ctx, parsed) {
		return Page{}, fmt.Errorf("%w: robots.txt disallows %s", generation.ErrEmptyResult, pageURL)
	}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}

	title, content := ExtractText(string(body))
	if strings.TrimSpace(content) == "" {
		return Page{}, fmt.Errorf("%w: no readable text at %s", generation.ErrEmptyResult, pageURL)
	}

	logger.FromContext(ctx).Debug("page fetched",
		"url", pageURL,
		"content_chars", len(content))
	return Page{URL: pageURL, Title: title, Content: content}, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", generation.ErrNetwork, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", generation.ErrNetwork, err)
	}
	return body, nil
}

// robotsAllowed checks the host's robots.txt for a blanket disallow of
// the page path. Unreachable or malformed robots.txt counts as allowed.
func (c *Client) robotsAllowed(ctx context.Context, page *url.URL) bool {
	robotsURL := page.Scheme + "://" + page.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return true
	}
	return robotsAllow(string(body), page.Path)
}

// robotsAllow applies the User-agent: * group's Disallow rules as path
// prefixes. Allow rules and wildcards are ignored; this is a courtesy
// check, not a full robots.txt implementation.
func robotsAllow(robots, path string) bool {
	if path == "" {
		path = "/"
	}

	applies := false
	for _, line := range strings.Split(robots, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "user-agent:"):
			agent := strings.TrimSpace(line[len("user-agent:"):])
			applies = agent == "*"
		case applies && strings.HasPrefix(lower, "disallow:"):
			rule := strings.TrimSpace(line[len("disallow:"):])
			if rule != "" && strings.HasPrefix(path, rule) {
				return false
			}
		}
	}
	return true
}
