package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/storyboard/pkg/errors"
)

// CheckStatus maps an HTTP response status to a structured error. 2xx is
// success. 429 and 5xx are retryable; 429 honors a Retry-After given in
// seconds. Everything else fails immediately.
func CheckStatus(resp *http.Response, service string) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		re := &RetryableError{Err: errors.New(errors.ErrCodeRateLimited, "%s: status %d", service, code)}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			re.After = time.Duration(secs) * time.Second
		}
		return re
	case code == http.StatusServiceUnavailable:
		return Retryable(errors.New(errors.ErrCodeUnavailable, "%s: status %d", service, code))
	case code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", service, code))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeInvalidConfig, "%s: status %d (check credentials)", service, code)
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d", service, code)
	}
}
