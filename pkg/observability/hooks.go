// Package observability provides hooks for metrics and tracing.
//
// Library packages report events through hook interfaces and never import a
// metrics backend. Consumers register implementations at startup; until
// then every hook is a no-op.
//
// # Architecture
//
//   - Hook interfaces per event category (canvas, dispatch, cache, HTTP)
//   - No-op default implementations
//   - A global registry written once by main
//
// [Collector] implements every interface on top of Prometheus and is what
// the storyboard binary registers.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    c := observability.NewCollector("storyboard")
//	    observability.Register(c)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	// ... draw a frame ...
//	observability.Canvas().OnFrame(ctx, time.Since(start), drawn, culled)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Canvas Hooks
// =============================================================================

// CanvasHooks receives events from the frame driver.
type CanvasHooks interface {
	// OnFrame records one completed frame and how many nodes it drew and culled.
	OnFrame(ctx context.Context, duration time.Duration, drawn, culled int)

	// OnPhysicsStep records the time spent in one physics step.
	OnPhysicsStep(ctx context.Context, nodes int, duration time.Duration)

	// OnDrain records the outcome of one inbox drain: results applied,
	// results for deleted nodes, and results the node could not take.
	OnDrain(ctx context.Context, applied, stale, rejected int)
}

// =============================================================================
// Dispatch Hooks
// =============================================================================

// DispatchHooks receives events from the remote operation dispatcher.
type DispatchHooks interface {
	// OnDispatchStart records an operation leaving for the proxy.
	OnDispatchStart(ctx context.Context, op string)

	// OnDispatchComplete records an operation's outcome.
	OnDispatchComplete(ctx context.Context, op string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCanvasHooks is a no-op implementation of CanvasHooks.
type NoopCanvasHooks struct{}

func (NoopCanvasHooks) OnFrame(context.Context, time.Duration, int, int)  {}
func (NoopCanvasHooks) OnPhysicsStep(context.Context, int, time.Duration) {}
func (NoopCanvasHooks) OnDrain(context.Context, int, int, int)            {}

// NoopDispatchHooks is a no-op implementation of DispatchHooks.
type NoopDispatchHooks struct{}

func (NoopDispatchHooks) OnDispatchStart(context.Context, string)                          {}
func (NoopDispatchHooks) OnDispatchComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds the registered implementation of one hook interface.
type slot[T any] struct {
	mu   sync.RWMutex
	h    T
	noop T
}

func newSlot[T any](noop T) *slot[T] { return &slot[T]{h: noop, noop: noop} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h
}

// set installs h. A nil interface value is ignored.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.h = s.noop
	s.mu.Unlock()
}

var (
	canvasHooks   = newSlot[CanvasHooks](NoopCanvasHooks{})
	dispatchHooks = newSlot[DispatchHooks](NoopDispatchHooks{})
	cacheHooks    = newSlot[CacheHooks](NoopCacheHooks{})
	httpHooks     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetCanvasHooks registers canvas hooks. Call it before the first frame.
func SetCanvasHooks(h CanvasHooks) { canvasHooks.set(h) }

func SetDispatchHooks(h DispatchHooks) { dispatchHooks.set(h) }
func SetCacheHooks(h CacheHooks)       { cacheHooks.set(h) }
func SetHTTPHooks(h HTTPHooks)         { httpHooks.set(h) }

// Register installs c for every hook category.
func Register(c *Collector) {
	SetCanvasHooks(c)
	SetDispatchHooks(c)
	SetCacheHooks(c)
	SetHTTPHooks(c)
}

func Canvas() CanvasHooks     { return canvasHooks.get() }
func Dispatch() DispatchHooks { return dispatchHooks.get() }
func Cache() CacheHooks       { return cacheHooks.get() }
func HTTP() HTTPHooks         { return httpHooks.get() }

// Reset restores the no-op hooks. Tests that register a Collector defer it.
func Reset() {
	canvasHooks.reset()
	dispatchHooks.reset()
	cacheHooks.reset()
	httpHooks.reset()
}
