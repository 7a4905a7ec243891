package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/storyboard/pkg/canvas"
	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// The screen is 800x600, so with a fresh camera world (0,0) is at (400,300).
var screen = geom.Rect{Max: geom.V(800, 600)}

func world(x, y float64) geom.Vec2 { return geom.V(x+400, y+300) }

func setup(t *testing.T) (*canvas.State, *Controller, canvas.NodeID, canvas.NodeID) {
	t.Helper()
	s := canvas.New(canvas.Options{})
	a := s.AddNode(geom.V(0, 0), canvas.NewConcept("a"))
	b := s.AddNode(geom.V(400, 0), canvas.NewConcept("b"))
	return s, New(DefaultOptions()), a, b
}

func TestPan(t *testing.T) {
	s, c, _, _ := setup(t)

	c.Handle(s, screen, PointerDown{Pos: world(-100, -100)})
	require.Equal(t, Panning, c.Mode(s))

	c.Handle(s, screen, PointerMove{Pos: world(-80, -90)})
	c.Handle(s, screen, PointerUp{Pos: world(-80, -90)})

	assert.Equal(t, Idle, c.Mode(s))
	assert.True(t, s.Camera.Offset.ApproxEqual(geom.V(-20, -10), 1e-9), "offset = %v", s.Camera.Offset)
}

func TestPanScalesByZoom(t *testing.T) {
	s, c, _, _ := setup(t)
	s.Camera.SetZoom(2)

	c.Handle(s, screen, PointerDown{Pos: geom.V(10, 10)})
	c.Handle(s, screen, PointerMove{Pos: geom.V(30, 10)})

	assert.True(t, s.Camera.Offset.ApproxEqual(geom.V(-10, 0), 1e-9), "offset = %v", s.Camera.Offset)
}

func TestDragNode(t *testing.T) {
	s, c, a, b := setup(t)
	s.Select(b)

	eff := c.Handle(s, screen, PointerDown{Pos: world(10, 10)})
	require.Equal(t, DraggingNode, c.Mode(s))
	assert.Equal(t, a, eff.Selected)
	assert.Equal(t, a, s.Dragging())

	sel, _ := s.Selected()
	assert.Equal(t, a, sel, "pressing a node deselects the others")

	c.Handle(s, screen, PointerMove{Pos: world(60, 30)})
	n, _ := s.Node(a)
	assert.Equal(t, geom.V(50, 20), n.Pos)
	assert.True(t, s.Camera.Offset.IsZero(), "dragging does not pan")

	c.Handle(s, screen, PointerUp{Pos: world(60, 30)})
	assert.Equal(t, Idle, c.Mode(s))
	assert.Equal(t, canvas.NoNode, s.Dragging())
}

func TestScrollDuringDrag(t *testing.T) {
	s, c, a, _ := setup(t)

	c.Handle(s, screen, PointerDown{Pos: world(10, 10)})
	c.Handle(s, screen, Scroll{Pos: world(10, 10), Delta: 1})
	assert.InDelta(t, 1.1, s.Camera.Zoom, 1e-12)
	assert.Equal(t, DraggingNode, c.Mode(s), "zoom keeps the drag")
	assert.Equal(t, a, s.Dragging())

	n, _ := s.Node(a)
	before := n.Pos
	c.Handle(s, screen, PointerMove{Pos: world(10+11, 10)})
	assert.True(t, n.Pos.ApproxEqual(before.Add(geom.V(10, 0)), 1e-9), "pos = %v", n.Pos)
}

func TestScrollZoomSteps(t *testing.T) {
	s, c, _, _ := setup(t)
	c.Handle(s, screen, Scroll{Pos: geom.V(400, 300), Delta: 1})
	assert.InDelta(t, 1.1, s.Camera.Zoom, 1e-12)
	c.Handle(s, screen, Scroll{Pos: geom.V(400, 300), Delta: -1})
	assert.InDelta(t, 0.99, s.Camera.Zoom, 1e-12)
	c.Handle(s, screen, Scroll{Pos: geom.V(400, 300)})
	assert.InDelta(t, 0.99, s.Camera.Zoom, 1e-12)
	assert.True(t, s.Camera.Offset.ApproxEqual(geom.Vec2{}, 1e-9))
}

func TestLink(t *testing.T) {
	tests := []struct {
		name     string
		click    geom.Vec2
		wantEdge bool
		wantCode errs.Code
	}{
		{"OtherNode", world(410, 10), true, ""},
		{"SameNode", world(10, 10), false, errs.ErrCodeInvalidLink},
		{"Empty", world(-500, -500), false, errs.ErrCodeInvalidLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c, a, b := setup(t)
			require.NoError(t, c.BeginLink(s, a))
			require.Equal(t, Linking, c.Mode(s))

			eff := c.Handle(s, screen, PointerDown{Pos: tt.click})
			assert.Equal(t, canvas.NoNode, s.LinkSource())
			assert.NotEqual(t, Linking, c.Mode(s))

			if tt.wantEdge {
				require.NotZero(t, eff.Edge)
				edges := s.Edges()
				require.Len(t, edges, 1)
				assert.Equal(t, canvas.Edge{ID: eff.Edge, From: a, To: b}, edges[0])
				return
			}
			assert.Zero(t, s.EdgeCount())
			assert.True(t, errs.Is(eff.Rejected, tt.wantCode))
		})
	}
}

func TestLinkDuplicateRejected(t *testing.T) {
	s, c, a, _ := setup(t)
	for i := range 2 {
		require.NoError(t, c.BeginLink(s, a))
		eff := c.Handle(s, screen, PointerDown{Pos: world(410, 10)})
		c.Handle(s, screen, PointerUp{Pos: world(410, 10)})
		if i == 1 {
			assert.ErrorIs(t, eff.Rejected, canvas.ErrInvalidLink)
		}
	}
	assert.Equal(t, 1, s.EdgeCount())
}

func TestCancelLink(t *testing.T) {
	s, c, a, _ := setup(t)
	require.NoError(t, c.BeginLink(s, a))
	c.CancelLink(s)
	assert.Equal(t, Idle, c.Mode(s))
	assert.Equal(t, canvas.NoNode, s.LinkSource())

	assert.Error(t, c.BeginLink(s, 99))
	assert.Equal(t, Idle, c.Mode(s))
}

func TestDeleteDuringGesture(t *testing.T) {
	t.Run("DragTarget", func(t *testing.T) {
		s, c, a, _ := setup(t)
		c.Handle(s, screen, PointerDown{Pos: world(10, 10)})
		s.RemoveNode(a)

		assert.Equal(t, Idle, c.Mode(s))
		c.Handle(s, screen, PointerMove{Pos: world(50, 50)})
		assert.True(t, s.Camera.Offset.IsZero())
		require.NoError(t, s.Validate())
	})

	t.Run("LinkSource", func(t *testing.T) {
		s, c, a, _ := setup(t)
		require.NoError(t, c.BeginLink(s, a))
		s.RemoveNode(a)

		eff := c.Handle(s, screen, PointerDown{Pos: world(410, 10)})
		assert.Zero(t, eff.Edge)
		assert.Zero(t, s.EdgeCount())
		require.NoError(t, s.Validate())
	})
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{Idle: "idle", Panning: "panning", DraggingNode: "dragging", Linking: "linking"} {
		assert.Equal(t, want, m.String())
	}
}
