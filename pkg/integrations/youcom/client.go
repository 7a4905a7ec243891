package youcom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/integrations"
)

const service = "youcom"

// DefaultBaseURL is the You.com search index API.
const DefaultBaseURL = "https://api.ydc-index.io"

// Hit is one search result.
type Hit struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Snippets    []string `json:"snippets,omitempty"`
}

// SearchResult is the decoded response of a search.
type SearchResult struct {
	Hits []Hit `json:"hits"`
}

// Text renders the first limit hits as plain text for a Research node:
// title, description and URL per hit, separated by blank lines. A limit of
// zero or less renders every hit.
func (r *SearchResult) Text(limit int) string {
	hits := r.Hits
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	if len(hits) == 0 {
		return "No results."
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		var b strings.Builder
		b.WriteString(strings.TrimSpace(h.Title))
		desc := strings.TrimSpace(h.Description)
		if desc == "" && len(h.Snippets) > 0 {
			desc = strings.TrimSpace(h.Snippets[0])
		}
		if desc != "" {
			b.WriteString("\n" + desc)
		}
		if h.URL != "" {
			b.WriteString("\n" + h.URL)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Client queries the You.com search API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	apiKey  string
}

// NewClient creates a search client. Results are cached in backend for
// cacheTTL.
func NewClient(backend cache.Cache, apiKey string, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, service, cacheTTL, nil),
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}
}

// WithBaseURL points the client at another host. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Configured reports whether the client holds a usable API key.
func (c *Client) Configured() bool { return integrations.HasKey(c.apiKey) }

// Search runs query. If refresh is true, the cache is bypassed.
//
// Returns:
//   - an INVALID_INPUT error for blank or oversized queries
//   - an INVALID_CONFIG error when no API key is configured
//   - NETWORK_ERROR, TIMEOUT or RATE_LIMITED errors from the remote
func (c *Client) Search(ctx context.Context, query string, refresh bool) (*SearchResult, error) {
	if err := errors.ValidateQuery(query); err != nil {
		return nil, err
	}
	if !c.Configured() {
		return nil, integrations.ErrNoCredentials(service)
	}
	query = strings.TrimSpace(query)

	var res SearchResult
	err := c.Cached(ctx, "search", "", query, refresh, &res, func() error {
		url := fmt.Sprintf("%s/search?query=%s", c.baseURL, integrations.URLEncode(query))
		return c.Get(ctx, url, map[string]string{"X-API-Key": c.apiKey}, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Mock returns the canned result used when search is unavailable.
func Mock(query string) *SearchResult {
	return &SearchResult{Hits: []Hit{{
		Title:       "Research Results for " + strings.TrimSpace(query),
		Description: "Offline placeholder result. Configure YOU_COM_API_KEY to search the web.",
		URL:         "https://you.com",
	}}}
}
