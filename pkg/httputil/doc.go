// Package httputil provides the retry and status handling shared by the
// remote enrichment clients and the dispatcher.
//
// # Retry
//
// [Retry] re-runs an operation whose error is wrapped in [RetryableError],
// doubling the delay between attempts:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp, "search")
//	})
//
// Errors that are not wrapped stop immediately, so a 400 response or a
// validation failure is never retried.
//
// # Status mapping
//
// [CheckStatus] turns a response into a [errors.Error] carrying a code:
//
//   - 429: RATE_LIMITED, retryable, waits for Retry-After when present
//   - 503: SERVICE_UNAVAILABLE, retryable
//   - other 5xx: NETWORK_ERROR, retryable
//   - 401, 403: INVALID_CONFIG
//
// [errors.Error]: github.com/matzehuels/storyboard/pkg/errors#Error
package httputil
