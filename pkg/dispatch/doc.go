// Package dispatch runs canvas operations in the background and posts their
// results to a frame driver's inbox.
//
// A [Dispatcher] implements frame.Dispatcher. Each Dispatch call starts one
// goroutine that calls a [Backend] and sends exactly one inbox message for
// the requesting node: a text result, an image result or a failure. The
// number of operations in flight is bounded; when the bound is reached
// Dispatch refuses the request and the node leaves its pending state at
// once.
//
// Two backends are provided. An enrich.Service calls the remote services
// in-process. A [Proxy] forwards to a running `storyboard serve`. Either
// can be wrapped in a circuit breaker with [Guard].
//
//	d := frame.New(state, cfg)
//	disp := dispatch.New(dispatch.Guard(backend, dispatch.DefaultBreakerSettings()), d.Inbox)
//	d.SetDispatcher(disp)
package dispatch
