package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/httputil"
)

func newTestClient(t *testing.T, server *httptest.Server, headers map[string]string) *Client {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	client := NewClient(c, "test", time.Hour, headers)
	if server != nil {
		client.SetHTTPClient(server.Client())
	}
	return client
}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token"}
	client := newTestClient(t, nil, headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
	if client.Service() != "test" {
		t.Errorf("Service() = %q, want %q", client.Service(), "test")
	}
}

func TestNewClientNilCache(t *testing.T) {
	client := NewClient(nil, "test", time.Hour, nil)
	if client.cache == nil {
		t.Fatal("NewClient() should default to a null cache")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	var resp response
	if err := client.Get(context.Background(), server.URL, nil, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientHeadersOverrideDefaults(t *testing.T) {
	var got, def string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Override")
		def = r.Header.Get("X-Default")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := newTestClient(t, server, map[string]string{"X-Override": "default", "X-Default": "kept"})

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "overridden" {
		t.Errorf("header = %q, want %q", got, "overridden")
	}
	if def != "kept" {
		t.Errorf("default header = %q, want %q", def, "kept")
	}
}

func TestClientPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	var out map[string]string
	if err := client.PostJSON(context.Background(), server.URL, nil, map[string]string{"q": "hi"}, &out); err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("PostJSON() echo = %q", out["echo"])
	}
}

func TestClientGetBytesLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	data, err := client.GetBytes(context.Background(), server.URL, nil, 100)
	if err != nil || len(data) != 100 {
		t.Fatalf("GetBytes() = %d bytes, %v", len(data), err)
	}
	_, err = client.GetBytes(context.Background(), server.URL, nil, 99)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("GetBytes() over limit error = %v, want INVALID_FORMAT", err)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.Code
		retryable bool
	}{
		{http.StatusInternalServerError, errors.ErrCodeNetwork, true},
		{http.StatusServiceUnavailable, errors.ErrCodeUnavailable, true},
		{http.StatusTooManyRequests, errors.ErrCodeRateLimited, true},
		{http.StatusUnauthorized, errors.ErrCodeInvalidConfig, false},
		{http.StatusBadRequest, errors.ErrCodeNetwork, false},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		client := newTestClient(t, server, nil)

		var resp map[string]string
		err := client.Get(context.Background(), server.URL, nil, &resp)
		if !errors.Is(err, tt.code) {
			t.Errorf("status %d: error = %v, want %s", tt.status, err, tt.code)
		}
		if httputil.IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, httputil.IsRetryable(err), tt.retryable)
		}
		server.Close()
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, nil, nil)
	var resp map[string]string
	err := client.Get(context.Background(), url, nil, &resp)
	if !httputil.IsRetryable(err) {
		t.Errorf("connection failure should be retryable, got %v", err)
	}
}

func TestClientCached(t *testing.T) {
	client := newTestClient(t, nil, nil)
	ctx := context.Background()

	type testData struct {
		Value string `json:"value"`
	}

	fetchCount := 0
	fetch := func(v *testData) func() error {
		return func() error {
			fetchCount++
			*v = testData{Value: "fetched"}
			return nil
		}
	}

	var first testData
	if err := client.Cached(ctx, "op", "", "input", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	var second testData
	if err := client.Cached(ctx, "op", "", "input", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetchCount != 1 {
		t.Errorf("fetch count = %d, want 1", fetchCount)
	}
	if second.Value != "fetched" {
		t.Errorf("cached value = %q, want %q", second.Value, "fetched")
	}

	var third testData
	if err := client.Cached(ctx, "op", "", "input", true, &third, fetch(&third)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetchCount != 2 {
		t.Errorf("refresh should bypass the cache, fetch count = %d", fetchCount)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client := newTestClient(t, nil, nil)

	fetchCount := 0
	var value string
	err := client.Cached(context.Background(), "op", "", "input", false, &value, func() error {
		fetchCount++
		return errors.New(errors.ErrCodeInvalidInput, "bad")
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Cached() error = %v, want INVALID_INPUT", err)
	}
	if fetchCount != 1 {
		t.Errorf("non-retryable error should not retry, fetch count = %d", fetchCount)
	}
}

func TestHasKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"your_key_here", false},
		{"your_openrouter_key", false},
		{"sk-abc123", true},
	}
	for _, tt := range tests {
		if got := HasKey(tt.key); got != tt.want {
			t.Errorf("HasKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestURLEncode(t *testing.T) {
	if got := URLEncode("a b&c"); got != "a+b%26c" {
		t.Errorf("URLEncode() = %q", got)
	}
	if got := PathEncode("a b/c"); got != "a%20b%2Fc" {
		t.Errorf("PathEncode() = %q", got)
	}
}
