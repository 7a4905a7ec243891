package frame

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/inbox"
	"github.com/matzehuels/storyboard/pkg/canvas/interact"
	"github.com/matzehuels/storyboard/pkg/canvas/physics"
	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/observability"
)

// Dispatcher starts remote operations. Dispatch must return quickly: it
// hands req to background work, which later sends exactly one message for
// req.Node to the driver's inbox. A non-nil error means nothing was started.
type Dispatcher interface {
	Dispatch(ctx context.Context, req canvas.Request) error
}

// Config configures a Driver. Zero fields select defaults.
type Config struct {
	Physics       physics.Params
	Input         interact.Options
	Render        RenderOptions
	InboxCapacity int
	Dispatcher    Dispatcher
	Logger        *log.Logger
}

// DefaultConfig returns the shipped physics, zoom steps and theme.
func DefaultConfig() Config {
	return Config{
		Physics: physics.DefaultParams(),
		Input:   interact.DefaultOptions(),
		Render:  RenderOptions{Theme: DefaultTheme(), LODZoom: DefaultLODZoom},
	}
}

// Driver runs the per-frame cycle over one canvas:
//
//  1. drain the inbox
//  2. step the physics
//  3. apply queued input events
//  4. render
//
// Driver is owned by a single goroutine, the same one that owns State.
// Only Inbox may be shared with other goroutines.
type Driver struct {
	State   *canvas.State
	Physics *physics.Engine
	Input   *interact.Controller
	Inbox   *inbox.Inbox

	dispatcher Dispatcher
	render     RenderOptions
	events     []interact.Event
	stats      Stats
	paused     bool
	logger     *log.Logger
	now        func() time.Time
}

// New creates a driver for s.
func New(s *canvas.State, cfg Config) *Driver {
	def := DefaultConfig()
	if cfg.Physics == (physics.Params{}) {
		cfg.Physics = def.Physics
	}
	if cfg.Render.Theme.Accent == nil {
		cfg.Render.Theme = def.Render.Theme
	}
	if cfg.Render.LODZoom <= 0 {
		cfg.Render.LODZoom = def.Render.LODZoom
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Input.Logger == nil {
		cfg.Input.Logger = cfg.Logger
	}
	return &Driver{
		State:      s,
		Physics:    physics.New(cfg.Physics),
		Input:      interact.New(cfg.Input),
		Inbox:      inbox.New(cfg.InboxCapacity),
		dispatcher: cfg.Dispatcher,
		render:     cfg.Render,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// SetDispatcher replaces the dispatcher used by Trigger.
func (d *Driver) SetDispatcher(disp Dispatcher) { d.dispatcher = disp }

// SetStyle switches between card and circle rendering.
func (d *Driver) SetStyle(s Style) { d.render.Style = s }

// Paused reports whether physics is suspended.
func (d *Driver) Paused() bool { return d.paused }

// SetPaused suspends or resumes physics. Input, inbox and rendering keep
// running while paused.
func (d *Driver) SetPaused(p bool) { d.paused = p }

// Stats returns the frame timing ring.
func (d *Driver) Stats() *Stats { return &d.stats }

// Post queues an input event for the next frame.
func (d *Driver) Post(ev interact.Event) { d.events = append(d.events, ev) }

// Report describes one frame.
type Report struct {
	Inbox    inbox.Report
	Render   RenderStats
	Effects  []interact.Effect
	Duration time.Duration
}

// Frame runs one cycle against screen. A nil surface skips rendering, which
// is how headless runs and benchmarks advance the simulation.
func (d *Driver) Frame(ctx context.Context, screen geom.Rect, surf Surface) Report {
	start := d.now()
	var rep Report

	rep.Inbox = d.Inbox.Drain(d.State)
	if rep.Inbox.Applied+rep.Inbox.Stale+rep.Inbox.Rejected > 0 {
		observability.Canvas().OnDrain(ctx, rep.Inbox.Applied, rep.Inbox.Stale, rep.Inbox.Rejected)
	}
	for _, err := range rep.Inbox.Errors {
		d.logger.Warn("apply result", "err", err)
	}

	if !d.paused {
		t := d.now()
		d.Physics.Step(d.State)
		observability.Canvas().OnPhysicsStep(ctx, d.State.NodeCount(), d.now().Sub(t))
	}

	for _, ev := range d.events {
		eff := d.Input.Handle(d.State, screen, ev)
		if eff != (interact.Effect{}) {
			rep.Effects = append(rep.Effects, eff)
		}
	}
	clear(d.events)
	d.events = d.events[:0]

	if surf != nil {
		rep.Render = Render(d.State, d.State.Viewport(screen), surf, d.render)
	}

	rep.Duration = d.now().Sub(start)
	d.stats.Record(rep.Duration)
	observability.Canvas().OnFrame(ctx, rep.Duration, rep.Render.Nodes, rep.Render.Culled)
	return rep
}

// Trigger starts the remote operation of node id. The node is marked
// pending before the dispatcher sees the request; if the dispatcher refuses
// it the flag is cleared again.
func (d *Driver) Trigger(ctx context.Context, id canvas.NodeID) error {
	req, err := d.State.BeginOperation(id)
	if err != nil {
		return err
	}
	if d.dispatcher == nil {
		_ = d.State.Fail(id)
		return errs.New(errs.ErrCodeUnsupported, "no dispatcher configured for %s", req.Op)
	}
	if err := d.dispatcher.Dispatch(ctx, req); err != nil {
		_ = d.State.Fail(id)
		return err
	}
	d.logger.Debug("dispatched", "node", id, "op", req.Op)
	return nil
}

// TriggerSelected triggers the selected node, if any.
func (d *Driver) TriggerSelected(ctx context.Context) error {
	id, ok := d.State.Selected()
	if !ok {
		return errs.New(errs.ErrCodeInvalidInput, "no node selected")
	}
	return d.Trigger(ctx, id)
}

// LinkFromSelected enters linking mode with the selected node as source.
func (d *Driver) LinkFromSelected() error {
	id, ok := d.State.Selected()
	if !ok {
		return errs.New(errs.ErrCodeInvalidInput, "no node selected")
	}
	return d.Input.BeginLink(d.State, id)
}

// DeleteSelected removes the selected node and its edges.
func (d *Driver) DeleteSelected() bool {
	id, ok := d.State.Selected()
	if !ok {
		return false
	}
	return d.State.RemoveNode(id)
}

// AddAt creates a node of kind k centered on a screen point.
func (d *Driver) AddAt(screen geom.Rect, at geom.Vec2, k canvas.Kind) canvas.NodeID {
	var c canvas.Content
	switch k {
	case canvas.KindResearch:
		c = canvas.NewResearch("New query")
	case canvas.KindVisual:
		c = canvas.NewVisual("New prompt")
	case canvas.KindExport:
		c = canvas.NewExport()
	default:
		c = canvas.NewConcept("New concept")
	}
	world := d.State.Viewport(screen).ScreenToWorld(at)
	return d.State.AddNode(world.Sub(d.State.NodeSize().Scale(0.5)), c)
}
