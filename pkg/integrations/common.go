package integrations

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/storyboard/pkg/errors"
)

const httpTimeout = 30 * time.Second

// MaxImageBytes caps downloaded images.
const MaxImageBytes = 8 << 20

// ErrTransport marks failures where no HTTP response was received:
// refused connections, DNS errors, timeouts.
var ErrTransport = stderrors.New("transport failure")

// NewHTTPClient creates an HTTP client with the standard timeout for
// enrichment requests. Image generation is slow, so the timeout is generous.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// HasKey reports whether key looks like a real credential. Empty keys and
// the placeholders shipped in example env files do not count.
func HasKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.Contains(key, "your_key_here") && !strings.HasPrefix(key, "your_")
}

// ErrNoCredentials builds the error returned when a client is used without
// credentials.
func ErrNoCredentials(service string) error {
	return errors.New(errors.ErrCodeInvalidConfig, "%s: no API key configured", service)
}

// URLEncode percent-encodes a string for use in a query.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// PathEncode percent-encodes a string for use as one path segment.
func PathEncode(s string) string { return url.PathEscape(s) }
