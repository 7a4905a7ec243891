package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
)

func TestAddNodeAssignsIncreasingIDs(t *testing.T) {
	s := New(Options{})
	a := s.AddNode(geom.V(0, 0), NewConcept("a"))
	b := s.AddNode(geom.V(10, 0), NewConcept("b"))
	require.Equal(t, NodeID(1), a)
	require.Equal(t, NodeID(2), b)

	s.RemoveNode(b)
	c := s.AddNode(geom.V(20, 0), NewConcept("c"))
	assert.Equal(t, NodeID(3), c, "ids are never reused")

	n, ok := s.Node(a)
	require.True(t, ok)
	assert.Equal(t, DefaultNodeSize, n.Size)
}

func TestAddEdge(t *testing.T) {
	s := New(Options{})
	a := s.AddNode(geom.V(0, 0), NewConcept("a"))
	b := s.AddNode(geom.V(300, 0), NewConcept("b"))

	tests := []struct {
		name     string
		from, to NodeID
		code     errs.Code
	}{
		{"Valid", a, b, ""},
		{"Duplicate", a, b, errs.ErrCodeInvalidLink},
		{"Reverse", b, a, ""},
		{"Self", a, a, errs.ErrCodeInvalidLink},
		{"MissingSource", 99, b, errs.ErrCodeNodeNotFound},
		{"MissingTarget", a, 99, errs.ErrCodeNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddEdge(tt.from, tt.to)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.code), "got code %s", errs.GetCode(err))
		})
	}
	assert.Equal(t, 2, s.EdgeCount())
	require.NoError(t, s.Validate())
}

func TestRemoveNodeCascades(t *testing.T) {
	s := New(Options{})
	x := s.AddNode(geom.V(0, 0), NewConcept("x"))
	y := s.AddNode(geom.V(300, 0), NewConcept("y"))
	z := s.AddNode(geom.V(600, 0), NewConcept("z"))
	_, _ = s.AddEdge(x, y)
	_, _ = s.AddEdge(z, x)
	keep, _ := s.AddEdge(y, z)

	s.SetDragging(x)
	s.SetLinkSource(x)

	require.True(t, s.RemoveNode(x))
	assert.False(t, s.RemoveNode(x))

	edges := s.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, keep, edges[0].ID)
	assert.Equal(t, NoNode, s.Dragging())
	assert.Equal(t, NoNode, s.LinkSource())
	require.NoError(t, s.Validate())
}

func TestSelect(t *testing.T) {
	s := New(Options{})
	a := s.AddNode(geom.V(0, 0), NewConcept("a"))
	b := s.AddNode(geom.V(300, 0), NewConcept("b"))

	s.Select(a)
	s.Select(b)
	id, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, b, id)
	na, _ := s.Node(a)
	assert.False(t, na.Selected)

	s.Select(NoNode)
	_, ok = s.Selected()
	assert.False(t, ok)
}

func TestPendingExclusivity(t *testing.T) {
	s := New(Options{})
	id := s.AddNode(geom.V(0, 0), NewResearch("lighthouses"))

	req, err := s.BeginOperation(id)
	require.NoError(t, err)
	assert.Equal(t, OpSearch, req.Op)
	assert.Equal(t, "lighthouses", req.Query)

	_, err = s.BeginOperation(id)
	require.ErrorIs(t, err, ErrPending)

	require.NoError(t, s.ResolveText(id, "found"))
	_, err = s.BeginOperation(id)
	require.NoError(t, err, "a drained result re-enables the operation")
}

func TestBeginOperationRequests(t *testing.T) {
	s := New(Options{})
	c := s.AddNode(geom.V(0, 0), &Concept{Text: "storm"})
	v := s.AddNode(geom.V(300, 0), NewVisual("waves"))
	e := s.AddNode(geom.V(600, 0), NewExport())

	req, err := s.BeginOperation(c)
	require.NoError(t, err)
	assert.Equal(t, OpExpand, req.Op)
	assert.Equal(t, "storm", req.Prompt)
	assert.Equal(t, DefaultModel, req.Model)

	req, err = s.BeginOperation(v)
	require.NoError(t, err)
	assert.Equal(t, OpVisualize, req.Op)
	assert.Equal(t, "waves", req.Prompt)

	req, err = s.BeginOperation(e)
	require.NoError(t, err)
	assert.Equal(t, OpExport, req.Op)
	assert.Contains(t, req.Report, "storm")
	assert.Contains(t, req.Report, "waves")
	assert.NotContains(t, req.Report, "Status:")

	_, err = s.BeginOperation(42)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestResolve(t *testing.T) {
	s := New(Options{})
	c := s.AddNode(geom.V(0, 0), NewConcept("storm"))
	v := s.AddNode(geom.V(300, 0), NewVisual("waves"))

	_, _ = s.BeginOperation(c)
	require.NoError(t, s.ResolveText(c, "a storm rolls in"))
	n, _ := s.Node(c)
	concept := n.Content.(*Concept)
	require.NotNil(t, concept.Expansion)
	assert.Equal(t, "a storm rolls in", *concept.Expansion)
	assert.False(t, concept.Pending())

	_, _ = s.BeginOperation(v)
	err := s.ResolveText(v, "not an image")
	assert.ErrorIs(t, err, ErrPayloadMismatch)
	n, _ = s.Node(v)
	assert.False(t, n.Content.Pending(), "mismatched payload still clears pending")

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	_, _ = s.BeginOperation(v)
	require.NoError(t, s.ResolveImage(v, img))
	assert.Equal(t, img, n.Content.(*Visual).Image)
	assert.Contains(t, n.Content.Summary(), "4x2")

	err = s.ResolveText(99, "late")
	assert.True(t, IsStale(err))
}

func TestFailKeepsPriorResult(t *testing.T) {
	s := New(Options{})
	for range 6 {
		s.AddNode(geom.V(0, 0), NewConcept("filler"))
	}
	id := s.AddNode(geom.V(0, 0), NewResearch("q"))
	require.Equal(t, NodeID(7), id)

	_, _ = s.BeginOperation(id)
	require.NoError(t, s.ResolveText(id, "first"))
	_, _ = s.BeginOperation(id)
	require.NoError(t, s.Fail(id))

	n, _ := s.Node(id)
	r := n.Content.(*Research)
	assert.False(t, r.Pending())
	require.NotNil(t, r.Result)
	assert.Equal(t, "first", *r.Result)
}

func TestFailRestoresExportStatus(t *testing.T) {
	s := New(Options{})
	id := s.AddNode(geom.V(0, 0), NewExport())
	_, _ = s.BeginOperation(id)
	n, _ := s.Node(id)
	assert.Equal(t, "Exporting", n.Content.(*Export).Status)

	require.NoError(t, s.Fail(id))
	assert.Equal(t, "Ready", n.Content.(*Export).Status)
}

func TestFailKeepsFinishedExport(t *testing.T) {
	s := New(Options{})
	id := s.AddNode(geom.V(0, 0), NewExport())
	n, _ := s.Node(id)
	e := n.Content.(*Export)

	_, err := s.BeginOperation(id)
	require.NoError(t, err)
	require.NoError(t, s.ResolveText(id, "Report r-123 saved, PDF ready"))

	_, err = s.BeginOperation(id)
	require.NoError(t, err)
	assert.Equal(t, "Exporting", e.Status)

	require.NoError(t, s.Fail(id))
	assert.Equal(t, "Report r-123 saved, PDF ready", e.Status)
	assert.False(t, e.Pending())
}

func TestDemo(t *testing.T) {
	s := Demo(Options{})
	assert.Equal(t, 4, s.NodeCount())
	assert.Equal(t, 3, s.EdgeCount())
	require.NoError(t, s.Validate())

	kinds := make([]Kind, 0, 4)
	for _, n := range s.Nodes() {
		kinds = append(kinds, n.Content.Kind())
	}
	assert.Equal(t, Kinds, kinds)
}

func TestGrid(t *testing.T) {
	s := Grid(Options{}, 10, 1)
	assert.Equal(t, 10, s.NodeCount())
	// 4 columns: rows of 4, 4, 2 give 3+3+1 links.
	assert.Equal(t, 7, s.EdgeCount())
	require.NoError(t, s.Validate())

	assert.Equal(t, 0, Grid(Options{}, 0, 1).NodeCount())
}
