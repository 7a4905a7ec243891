package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again. A positive After
// replaces the backoff delay for the next attempt, as a 429 Retry-After
// header asks.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	Attempts int           // total tries, at least one
	Delay    time.Duration // wait before the second try, doubled after each
	MaxDelay time.Duration // cap on the doubled delay; zero means none
}

// DefaultPolicy is three tries starting at one second, capped at ten.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Do calls fn until it succeeds, returns an error not wrapped with
// [RetryableError], or the attempts run out. The last error is returned,
// or ctx.Err() when the context ends during a wait.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.Delay
	for attempt := 1; ; attempt++ {
		err := fn()
		var re *RetryableError
		if err == nil || !errors.As(err, &re) || attempt >= p.Attempts {
			return err
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn under an uncapped policy of attempts tries starting at delay.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Policy{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}

// RetryWithBackoff runs fn under [DefaultPolicy].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultPolicy.Do(ctx, fn)
}
