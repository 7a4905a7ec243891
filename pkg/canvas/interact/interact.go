package interact

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/canvas"
	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Mode is the state of the pointer state machine.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNode
	Linking
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging"
	case Linking:
		return "linking"
	default:
		return "unknown"
	}
}

// =============================================================================
// Events
// =============================================================================

// Event is one input sample in screen coordinates.
type Event interface {
	ScreenPos() geom.Vec2
}

// PointerDown starts a gesture.
type PointerDown struct{ Pos geom.Vec2 }

// PointerMove reports pointer motion. Motion without a preceding
// PointerDown only updates the tracked position.
type PointerMove struct{ Pos geom.Vec2 }

// PointerUp ends a gesture.
type PointerUp struct{ Pos geom.Vec2 }

// Scroll zooms around Pos. Positive Delta zooms in, negative zooms out.
type Scroll struct {
	Pos   geom.Vec2
	Delta float64
}

func (e PointerDown) ScreenPos() geom.Vec2 { return e.Pos }
func (e PointerMove) ScreenPos() geom.Vec2 { return e.Pos }
func (e PointerUp) ScreenPos() geom.Vec2   { return e.Pos }
func (e Scroll) ScreenPos() geom.Vec2      { return e.Pos }

// Effect reports what an event changed beyond the camera and node
// positions. The zero value means nothing notable happened.
type Effect struct {
	// Edge is the id of an edge created by completing a link.
	Edge canvas.EdgeID
	// Selected is the node selected by this event, if any.
	Selected canvas.NodeID
	// Rejected is set when a link attempt ended without an edge.
	Rejected error
}

// =============================================================================
// Controller
// =============================================================================

// Options configures a Controller.
type Options struct {
	ZoomIn  float64 // zoom factor per positive scroll event
	ZoomOut float64 // zoom factor per negative scroll event
	Logger  *log.Logger
}

// DefaultOptions returns the zoom steps of the canvas: ×1.1 in, ×0.9 out.
func DefaultOptions() Options {
	return Options{ZoomIn: 1.1, ZoomOut: 0.9}
}

// Controller turns pointer and scroll events into camera moves, node drags,
// selection and links on a canvas.State.
//
// The controller holds only the gesture mode and the last pointer position.
// Drag target and link source live on the State, so deleting a node there
// is enough to end a drag or link that referenced it.
type Controller struct {
	mode    Mode
	last    geom.Vec2
	zoomIn  float64
	zoomOut float64
	logger  *log.Logger
}

// New creates a controller in the Idle mode.
func New(opts Options) *Controller {
	def := DefaultOptions()
	if opts.ZoomIn <= 0 {
		opts.ZoomIn = def.ZoomIn
	}
	if opts.ZoomOut <= 0 {
		opts.ZoomOut = def.ZoomOut
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Controller{zoomIn: opts.ZoomIn, zoomOut: opts.ZoomOut, logger: opts.Logger}
}

// Mode returns the current mode after reconciling it with s.
func (c *Controller) Mode(s *canvas.State) Mode {
	c.sync(s)
	return c.mode
}

// Pointer returns the last pointer position seen, in screen space.
func (c *Controller) Pointer() geom.Vec2 { return c.last }

// sync drops out of DraggingNode or Linking when the State no longer holds
// the referenced node.
func (c *Controller) sync(s *canvas.State) {
	switch {
	case c.mode == DraggingNode && s.Dragging() == canvas.NoNode:
		c.setMode(Idle)
	case c.mode == Linking && s.LinkSource() == canvas.NoNode:
		c.setMode(Idle)
	}
}

func (c *Controller) setMode(m Mode) {
	if c.mode != m {
		c.logger.Debug("interaction", "from", c.mode, "to", m)
	}
	c.mode = m
}

// BeginLink enters Linking with source as the link source. A gesture in
// progress is ended first.
func (c *Controller) BeginLink(s *canvas.State, source canvas.NodeID) error {
	if !s.Has(source) {
		return errs.Wrap(errs.ErrCodeNodeNotFound, canvas.ErrNodeNotFound, "link source %d", source)
	}
	s.SetDragging(canvas.NoNode)
	s.SetLinkSource(source)
	c.setMode(Linking)
	return nil
}

// CancelLink leaves Linking without creating an edge. It is a no-op in any
// other mode.
func (c *Controller) CancelLink(s *canvas.State) {
	c.sync(s)
	if c.mode != Linking {
		return
	}
	s.SetLinkSource(canvas.NoNode)
	c.setMode(Idle)
}

// Handle applies one event. screen is the canvas rectangle the event's
// coordinates refer to.
func (c *Controller) Handle(s *canvas.State, screen geom.Rect, ev Event) Effect {
	c.sync(s)
	var eff Effect

	switch ev := ev.(type) {
	case PointerDown:
		if c.mode == Linking {
			eff = c.completeLink(s, screen, ev.Pos)
		}
		c.press(s, screen, ev.Pos, &eff)

	case PointerMove:
		c.move(s, ev.Pos)

	case PointerUp:
		c.move(s, ev.Pos)
		if c.mode == Panning || c.mode == DraggingNode {
			s.SetDragging(canvas.NoNode)
			c.setMode(Idle)
		}

	case Scroll:
		// Zoom is independent of the gesture mode. A drag in progress keeps
		// its target; later moves are scaled by the new zoom.
		switch {
		case ev.Delta > 0:
			s.Camera.ZoomAt(screen, ev.Pos, c.zoomIn)
		case ev.Delta < 0:
			s.Camera.ZoomAt(screen, ev.Pos, c.zoomOut)
		}
		c.last = ev.Pos
	}
	return eff
}

// completeLink resolves the pointer-down that ends Linking.
func (c *Controller) completeLink(s *canvas.State, screen geom.Rect, pos geom.Vec2) Effect {
	source := s.LinkSource()
	target := s.HitTest(s.Viewport(screen), pos)
	s.SetLinkSource(canvas.NoNode)
	c.setMode(Idle)

	if target == canvas.NoNode {
		return Effect{Rejected: errs.New(errs.ErrCodeInvalidLink, "link from %d ended on empty canvas", source)}
	}
	id, err := s.AddEdge(source, target)
	if err != nil {
		c.logger.Debug("link rejected", "from", source, "to", target, "err", err)
		return Effect{Rejected: err}
	}
	c.logger.Debug("linked", "edge", id, "from", source, "to", target)
	return Effect{Edge: id}
}

// press starts a pan or a node drag from Idle.
func (c *Controller) press(s *canvas.State, screen geom.Rect, pos geom.Vec2, eff *Effect) {
	c.last = pos
	hit := s.HitTest(s.Viewport(screen), pos)
	s.Select(hit)
	if hit == canvas.NoNode {
		s.SetDragging(canvas.NoNode)
		c.setMode(Panning)
		return
	}
	eff.Selected = hit
	s.SetDragging(hit)
	c.setMode(DraggingNode)
}

// move applies the pointer delta since the last event.
func (c *Controller) move(s *canvas.State, pos geom.Vec2) {
	delta := pos.Sub(c.last)
	c.last = pos
	if delta.IsZero() {
		return
	}

	switch c.mode {
	case Panning:
		s.Camera.Pan(delta)
	case DraggingNode:
		n, ok := s.Node(s.Dragging())
		if !ok {
			c.setMode(Idle)
			return
		}
		n.Pos = n.Pos.Add(delta.Div(s.Camera.Zoom))
	}
}
