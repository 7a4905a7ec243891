package dispatch

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/canvas/inbox"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/observability"
)

// Defaults for New.
const (
	DefaultMaxInFlight = 8
	DefaultTimeout     = 90 * time.Second
)

// Backend performs the remote work behind each operation.
type Backend interface {
	Search(ctx context.Context, query string) (string, error)
	Visualize(ctx context.Context, prompt string) ([]byte, error)
	Expand(ctx context.Context, model, concept string) (string, error)
	Export(ctx context.Context, report string) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxInFlight bounds concurrent operations. Values below one are
// ignored.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.max = n
		}
	}
}

// WithTimeout bounds each operation. Zero disables the bound.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNotify registers fn to be called after each result is queued. The
// TUI uses it to wake its event loop.
func WithNotify(fn func()) Option {
	return func(d *Dispatcher) { d.notify = fn }
}

// Dispatcher runs operations on a Backend. It is safe for concurrent use.
type Dispatcher struct {
	backend Backend
	inbox   *inbox.Inbox
	sem     *semaphore.Weighted
	max     int
	timeout time.Duration
	logger  *log.Logger
	notify  func()

	mu       sync.Mutex
	inflight map[string]canvas.Request
	wg       sync.WaitGroup
}

var _ frame.Dispatcher = (*Dispatcher)(nil)

// New creates a Dispatcher that delivers results to in.
func New(backend Backend, in *inbox.Inbox, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:  backend,
		inbox:    in,
		max:      DefaultMaxInFlight,
		timeout:  DefaultTimeout,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		inflight: make(map[string]canvas.Request),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.sem = semaphore.NewWeighted(int64(d.max))
	return d
}

// Dispatch starts req in the background. It fails without starting
// anything when the in-flight bound is reached or req is not an operation
// this package knows.
func (d *Dispatcher) Dispatch(ctx context.Context, req canvas.Request) error {
	if d.backend == nil || d.inbox == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "dispatcher has no backend")
	}
	switch req.Op {
	case canvas.OpSearch, canvas.OpVisualize, canvas.OpExpand, canvas.OpExport:
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown operation %q", req.Op)
	}
	if !d.sem.TryAcquire(1) {
		return errors.New(errors.ErrCodeRateLimited, "%d operations already running", d.max)
	}

	id := uuid.NewString()
	d.mu.Lock()
	d.inflight[id] = req
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx, id, req)
	return nil
}

func (d *Dispatcher) run(ctx context.Context, id string, req canvas.Request) {
	defer d.wg.Done()
	defer d.sem.Release(1)
	defer func() {
		d.mu.Lock()
		delete(d.inflight, id)
		d.mu.Unlock()
	}()

	op := string(req.Op)
	logger := d.logger.With("task", id[:8], "node", req.Node, "op", op)
	hooks := observability.Dispatch()
	hooks.OnDispatchStart(ctx, op)
	start := time.Now()

	opCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	msg, err := d.perform(opCtx, req)
	hooks.OnDispatchComplete(ctx, op, time.Since(start), err)
	if err != nil {
		logger.Warn("operation failed", "err", err)
		msg = inbox.Failure{NodeID: req.Node, Reason: errors.UserMessage(err)}
	} else {
		logger.Debug("operation done", "took", time.Since(start))
	}

	if err := d.inbox.Send(ctx, msg); err != nil {
		logger.Debug("result dropped", "err", err)
		return
	}
	if d.notify != nil {
		d.notify()
	}
}

func (d *Dispatcher) perform(ctx context.Context, req canvas.Request) (inbox.Message, error) {
	switch req.Op {
	case canvas.OpSearch:
		text, err := d.backend.Search(ctx, req.Query)
		return inbox.TextResult{NodeID: req.Node, Text: text}, err
	case canvas.OpVisualize:
		data, err := d.backend.Visualize(ctx, req.Prompt)
		return inbox.ImageResult{NodeID: req.Node, Data: data}, err
	case canvas.OpExpand:
		text, err := d.backend.Expand(ctx, req.Model, req.Prompt)
		return inbox.TextResult{NodeID: req.Node, Text: text}, err
	default:
		text, err := d.backend.Export(ctx, req.Report)
		return inbox.TextResult{NodeID: req.Node, Text: text}, err
	}
}

// InFlight returns the requests currently running, keyed by task id.
func (d *Dispatcher) InFlight() map[string]canvas.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]canvas.Request, len(d.inflight))
	for k, v := range d.inflight {
		out[k] = v
	}
	return out
}

// Wait blocks until every started operation has delivered its result or
// given up.
func (d *Dispatcher) Wait() { d.wg.Wait() }
