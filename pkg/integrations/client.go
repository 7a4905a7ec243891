package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/storyboard/pkg/buildinfo"
	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/httputil"
	"github.com/matzehuels/storyboard/pkg/observability"
)

// Client provides shared HTTP functionality for all enrichment API clients.
// It handles caching, retry logic, and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	service string
	headers map[string]string
}

// NewClient creates a Client for service with the given cache and default
// headers. service names the remote in errors, cache keys and metrics.
// Pass nil for headers if no default headers are needed; a nil backend
// disables caching.
func NewClient(backend cache.Cache, service string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   backend,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     ttl,
		service: service,
		headers: headers,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetKeyer replaces the cache keyer.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// Service returns the service name given to NewClient.
func (c *Client) Service() string { return c.service }

// Cached retrieves the result of op on input from cache, or executes fetch
// and caches the result. If refresh is true, the cache is bypassed and fetch
// is always called. The fetch function should populate v; on success, v is
// stored in the cache. Cache failures never fail the call.
func (c *Client) Cached(ctx context.Context, op, model, input string, refresh bool, v any, fetch func() error) error {
	key := c.keyer.EnrichKey(c.service+"."+op, model, input)
	if !refresh {
		if ok, _ := cache.GetJSON(ctx, c.cache, key, v); ok {
			observability.Cache().OnCacheHit(ctx, c.service)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, c.service)
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, c.cache, key, v, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, c.service, 0)
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.Do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	return decode(body, v)
}

// PostJSON encodes in as the request body, POSTs it and decodes the
// response into out. A nil out discards the response.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "%s: encode request", c.service)
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	body, err := c.Do(ctx, http.MethodPost, url, bytes.NewReader(data), h)
	if err != nil {
		return err
	}
	defer body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	return decode(body, out)
}

// GetBytes performs an HTTP GET and returns the body, capped at limit
// bytes.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string, limit int64) ([]byte, error) {
	body, err := c.Do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s: read body", c.service))
	}
	if int64(len(data)) > limit {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: response larger than %d bytes", c.service, limit)
	}
	return data, nil
}

// Do sends a request with the client's default headers merged with
// headers (request headers win) and returns the body of a 2xx response.
// Transport failures and 5xx responses come back wrapped in
// [httputil.RetryableError].
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: build request", c.service)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := errors.ErrCodeNetwork
		if isTimeout(err) {
			code = errors.ErrCodeTimeout
		}
		cause := fmt.Errorf("%w: %v", ErrTransport, err)
		return nil, httputil.Retryable(errors.Wrap(code, cause, "%s: %s %s", c.service, method, path))
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp, c.service); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode response")
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}
