package dispatch

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/integrations/pollinations"
)

var _ Backend = (*enrich.Service)(nil)

// fakeBackend answers every call with fixed values. A non-nil block makes
// calls wait until it is closed.
type fakeBackend struct {
	err   error
	block chan struct{}
	calls atomic.Int32
	mu    sync.Mutex
	seen  []string
}

func (f *fakeBackend) record(s string) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, s)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func (f *fakeBackend) Search(_ context.Context, q string) (string, error) {
	return "found " + q, f.record(q)
}

func (f *fakeBackend) Visualize(_ context.Context, p string) ([]byte, error) {
	return pollinations.Placeholder(p, 8, 8), f.record(p)
}

func (f *fakeBackend) Expand(_ context.Context, model, concept string) (string, error) {
	return "scene for " + concept, f.record(model)
}

func (f *fakeBackend) Export(_ context.Context, report string) (string, error) {
	return "exported", f.record(report)
}

func newDriver(t *testing.T, b Backend, opts ...Option) (*frame.Driver, *Dispatcher) {
	t.Helper()
	d := frame.New(canvas.Demo(canvas.Options{}), frame.Config{})
	d.SetPaused(true)
	disp := New(b, d.Inbox, opts...)
	d.SetDispatcher(disp)
	return d, disp
}

var screen = geom.Rect{Max: geom.V(800, 600)}

func TestDispatchDeliversResults(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	var notified atomic.Int32
	d, disp := newDriver(t, b, WithNotify(func() { notified.Add(1) }))

	for _, id := range []canvas.NodeID{1, 2, 3, 4} {
		require.NoError(t, d.Trigger(ctx, id))
	}
	disp.Wait()
	rep := d.Frame(ctx, screen, nil)
	assert.Equal(t, 4, rep.Inbox.Applied)
	assert.Empty(t, rep.Inbox.Errors)
	assert.EqualValues(t, 4, notified.Load())

	n, _ := d.State.Node(1)
	concept := n.Content.(*canvas.Concept)
	require.NotNil(t, concept.Expansion)
	assert.Contains(t, *concept.Expansion, "lighthouse keeper")
	assert.False(t, concept.Pending())

	n, _ = d.State.Node(2)
	assert.Equal(t, "found history of lighthouse keepers", *n.Content.(*canvas.Research).Result)

	n, _ = d.State.Node(3)
	assert.NotNil(t, n.Content.(*canvas.Visual).Image)

	n, _ = d.State.Node(4)
	assert.Equal(t, "exported", n.Content.(*canvas.Export).Status)
}

func TestDispatchFailure(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{err: errors.New(errors.ErrCodeNetwork, "boom")}
	d, disp := newDriver(t, b)

	require.NoError(t, d.Trigger(ctx, 4))
	disp.Wait()
	d.Frame(ctx, screen, nil)

	n, _ := d.State.Node(4)
	exp := n.Content.(*canvas.Export)
	assert.False(t, exp.Pending())
	assert.Equal(t, "Ready", exp.Status)
}

func TestDispatchBound(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{block: make(chan struct{})}
	d, disp := newDriver(t, b, WithMaxInFlight(1))

	require.NoError(t, d.Trigger(ctx, 2))
	err := d.Trigger(ctx, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRateLimited))
	assert.Len(t, disp.InFlight(), 1)

	n, _ := d.State.Node(3)
	assert.False(t, n.Content.Pending(), "refused request leaves no pending flag")

	close(b.block)
	disp.Wait()
	assert.Empty(t, disp.InFlight())
	require.NoError(t, d.Trigger(ctx, 3), "slot is free again")
	disp.Wait()
}

func TestDispatchStaleResult(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{block: make(chan struct{})}
	d, disp := newDriver(t, b)

	require.NoError(t, d.Trigger(ctx, 2))
	d.State.RemoveNode(2)
	close(b.block)
	disp.Wait()

	rep := d.Frame(ctx, screen, nil)
	assert.Equal(t, 1, rep.Inbox.Stale)
	assert.False(t, d.State.Has(2))
}

func TestDispatchRejects(t *testing.T) {
	disp := New(nil, nil)
	err := disp.Dispatch(context.Background(), canvas.Request{Node: 1, Op: canvas.OpSearch})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	d, disp := newDriver(t, &fakeBackend{})
	err = disp.Dispatch(context.Background(), canvas.Request{Node: 1, Op: "teleport"})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
	assert.Zero(t, d.Inbox.Len())
}

func TestTimeout(t *testing.T) {
	ctx := context.Background()
	slow := &ctxBackend{}
	d, disp := newDriver(t, slow, WithTimeout(10*time.Millisecond))

	require.NoError(t, d.Trigger(ctx, 2))
	disp.Wait()
	d.Frame(ctx, screen, nil)
	n, _ := d.State.Node(2)
	assert.False(t, n.Content.Pending())
	assert.Nil(t, n.Content.(*canvas.Research).Result)
}

// ctxBackend blocks until its context ends.
type ctxBackend struct{ fakeBackend }

func (c *ctxBackend) Search(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGuardOpens(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{err: errors.New(errors.ErrCodeNetwork, "down")}
	s := DefaultBreakerSettings()
	s.MinRequests = 2
	s.FailureThreshold = 0.5
	g := Guard(b, s)

	for range 2 {
		_, err := g.Search(ctx, "q")
		assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	}
	_, err := g.Search(ctx, "q")
	assert.True(t, errors.Is(err, errors.ErrCodeUnavailable))
	assert.EqualValues(t, 2, b.calls.Load(), "open breaker does not call the backend")
}

func TestGuardIgnoresInvalidInput(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{err: errors.New(errors.ErrCodeInvalidInput, "empty")}
	s := DefaultBreakerSettings()
	s.MinRequests = 1
	g := Guard(b, s)

	for range 3 {
		_, err := g.Export(ctx, "")
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	}
	assert.EqualValues(t, 3, b.calls.Load())
}

func TestGuardPassesValues(t *testing.T) {
	g := Guard(&fakeBackend{}, DefaultBreakerSettings())
	data, err := g.Visualize(context.Background(), "sea")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestProxy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/research", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"title":"Keepers","description":"A history"}]}`))
	})
	mux.HandleFunc("POST /api/visualize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pollinations.Placeholder("x", 4, 4))
	})
	mux.HandleFunc("POST /api/expand", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("FADE IN."))
	})
	mux.HandleFunc("POST /api/export", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p, err := NewProxy(server.URL + "/")
	require.NoError(t, err)
	p.SetHTTPClient(server.Client())
	ctx := context.Background()

	text, err := p.Search(ctx, "keepers")
	require.NoError(t, err)
	assert.Contains(t, text, "Keepers")

	img, err := p.Visualize(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, pollinations.Placeholder("x", 4, 4), img)

	scene, err := p.Expand(ctx, canvas.DefaultModel, "concept")
	require.NoError(t, err)
	assert.Equal(t, "FADE IN.", scene)

	_, err = p.Export(ctx, "report")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestNewProxyRejectsBadURL(t *testing.T) {
	_, err := NewProxy("localhost:8033")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestProxyUnreachable(t *testing.T) {
	p, err := NewProxy("http://127.0.0.1:1")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	_, err = p.Expand(ctx, canvas.DefaultModel, "x")
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, context.DeadlineExceeded))
}
