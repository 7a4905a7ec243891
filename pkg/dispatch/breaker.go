package dispatch

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/matzehuels/storyboard/pkg/errors"
)

// BreakerSettings configures Guard.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open period before probing
	MinRequests      uint32        // requests before the ratio is judged
	FailureThreshold float64       // failure ratio that opens the breaker
	Logger           *log.Logger
}

// DefaultBreakerSettings opens after 80% of at least five requests fail and
// probes again after a minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "backend",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.8,
	}
}

// Guard wraps b in a circuit breaker. While the breaker is open every call
// fails at once with SERVICE_UNAVAILABLE. Invalid input does not count as
// a backend failure.
func Guard(b Backend, s BreakerSettings) Backend {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if s.Logger != nil {
				s.Logger.Warn("circuit breaker state changed", "name", name, "from", from, "to", to)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errors.ErrCodeInvalidInput) ||
				stderrors.Is(err, context.Canceled)
		},
	})
	return &guarded{next: b, cb: cb}
}

type guarded struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

func execute[T any](g *guarded, fn func() (T, error)) (T, error) {
	out, err := g.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, errors.Wrap(errors.ErrCodeUnavailable, err, "backend unavailable, retry later")
		}
		return zero, err
	}
	return out.(T), nil
}

func (g *guarded) Search(ctx context.Context, query string) (string, error) {
	return execute(g, func() (string, error) { return g.next.Search(ctx, query) })
}

func (g *guarded) Visualize(ctx context.Context, prompt string) ([]byte, error) {
	return execute(g, func() ([]byte, error) { return g.next.Visualize(ctx, prompt) })
}

func (g *guarded) Expand(ctx context.Context, model, concept string) (string, error) {
	return execute(g, func() (string, error) { return g.next.Expand(ctx, model, concept) })
}

func (g *guarded) Export(ctx context.Context, report string) (string, error) {
	return execute(g, func() (string, error) { return g.next.Export(ctx, report) })
}
