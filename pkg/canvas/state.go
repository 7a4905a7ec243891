package canvas

import (
	"errors"
	"image"
	"slices"
	"strings"

	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
)

var (
	// ErrNodeNotFound is returned when an id names no current node.
	// Stale async results hit this and are dropped by the inbox.
	ErrNodeNotFound = errs.New(errs.ErrCodeNodeNotFound, "node not found")

	// ErrPending is returned by [State.BeginOperation] while the node already
	// has a remote operation in flight.
	ErrPending = errs.New(errs.ErrCodePending, "operation already pending")

	// ErrInvalidLink is returned by [State.AddEdge] for self-links and
	// duplicate edges.
	ErrInvalidLink = errs.New(errs.ErrCodeInvalidLink, "invalid link")

	// ErrPayloadMismatch is returned when a result does not fit the node's
	// content kind (an image for a research node, say). The pending flag is
	// cleared regardless.
	ErrPayloadMismatch = errs.New(errs.ErrCodeUnsupported, "result does not match content kind")
)

// Options configures a new State. The zero value selects the defaults.
type Options struct {
	NodeSize geom.Vec2
	ZoomMin  float64
	ZoomMax  float64
}

// State is the canvas aggregate: the node arena keyed by id, the ordered
// edge list, the id counter, the camera, and the interaction references
// (drag target and link source).
//
// State has a single owner. It is not safe for concurrent use; background
// work reaches it only through the inbox package, which the owner drains.
//
// Invariant: every edge references two present nodes, and the drag target
// and link source are either NoNode or present nodes.
type State struct {
	Camera Camera

	nodes      map[NodeID]*Node
	edges      []Edge
	nextID     uint64
	nodeSize   geom.Vec2
	dragging   NodeID
	linkSource NodeID
}

// New creates an empty canvas.
func New(opts Options) *State {
	size := opts.NodeSize
	if size.X <= 0 || size.Y <= 0 {
		size = DefaultNodeSize
	}
	return &State{
		Camera:   NewCamera(opts.ZoomMin, opts.ZoomMax),
		nodes:    make(map[NodeID]*Node),
		nextID:   1,
		nodeSize: size,
	}
}

func (s *State) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// NextID returns the id the next node or edge will receive.
func (s *State) NextID() uint64 { return s.nextID }

// NodeSize returns the default extent given to new nodes.
func (s *State) NodeSize() geom.Vec2 { return s.nodeSize }

// AddNode places a new node with the default size and returns its id.
func (s *State) AddNode(pos geom.Vec2, c Content) NodeID {
	return s.AddNodeSized(pos, s.nodeSize, c)
}

// AddNodeSized places a new node with an explicit size and returns its id.
func (s *State) AddNodeSized(pos, size geom.Vec2, c Content) NodeID {
	id := NodeID(s.allocID())
	s.nodes[id] = &Node{ID: id, Pos: pos, Size: size, Content: c}
	return id
}

// Node returns the node with the given id. The pointer stays valid until
// the node is removed and may be mutated by the owner.
func (s *State) Node(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Has reports whether id names a current node.
func (s *State) Has(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// NodeIDs returns every node id in ascending order.
func (s *State) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Nodes returns every node in ascending id order, which is also draw order.
func (s *State) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodes))
	for _, id := range s.NodeIDs() {
		out = append(out, s.nodes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *State) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges.
func (s *State) EdgeCount() int { return len(s.edges) }

// Edges returns a copy of the edge list in insertion order.
func (s *State) Edges() []Edge { return slices.Clone(s.edges) }

// RemoveNode deletes a node, prunes every incident edge and clears the drag
// target and link source if they referenced it. It reports whether the node
// existed.
func (s *State) RemoveNode(id NodeID) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	s.edges = slices.DeleteFunc(s.edges, func(e Edge) bool {
		return e.From == id || e.To == id
	})
	if s.dragging == id {
		s.dragging = NoNode
	}
	if s.linkSource == id {
		s.linkSource = NoNode
	}
	return true
}

// AddEdge connects from → to with a fresh id. Self-links and exact
// duplicates are rejected with ErrInvalidLink; unknown endpoints with
// ErrNodeNotFound.
func (s *State) AddEdge(from, to NodeID) (EdgeID, error) {
	if from == to {
		return 0, errs.Wrap(errs.ErrCodeInvalidLink, ErrInvalidLink, "node %d cannot link to itself", from)
	}
	if !s.Has(from) {
		return 0, errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "edge source %d", from)
	}
	if !s.Has(to) {
		return 0, errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "edge target %d", to)
	}
	if slices.ContainsFunc(s.edges, func(e Edge) bool { return e.From == from && e.To == to }) {
		return 0, errs.Wrap(errs.ErrCodeInvalidLink, ErrInvalidLink, "edge %d→%d already exists", from, to)
	}
	id := EdgeID(s.allocID())
	s.edges = append(s.edges, Edge{ID: id, From: from, To: to})
	return id, nil
}

// RemoveEdge deletes an edge by id and reports whether it existed.
func (s *State) RemoveEdge(id EdgeID) bool {
	n := len(s.edges)
	s.edges = slices.DeleteFunc(s.edges, func(e Edge) bool { return e.ID == id })
	return len(s.edges) != n
}

// Select marks id as the only selected node. Selecting NoNode or an unknown
// id clears the selection.
func (s *State) Select(id NodeID) {
	for nid, n := range s.nodes {
		n.Selected = nid == id
	}
}

// Selected returns the selected node, if any. With several selected nodes
// the lowest id is returned.
func (s *State) Selected() (NodeID, bool) {
	for _, id := range s.NodeIDs() {
		if s.nodes[id].Selected {
			return id, true
		}
	}
	return NoNode, false
}

// Dragging returns the active drag target or NoNode.
func (s *State) Dragging() NodeID { return s.dragging }

// SetDragging records the active drag target. Unknown ids clear it.
func (s *State) SetDragging(id NodeID) {
	if !s.Has(id) {
		id = NoNode
	}
	s.dragging = id
}

// LinkSource returns the pending link source or NoNode.
func (s *State) LinkSource() NodeID { return s.linkSource }

// SetLinkSource records the pending link source. Unknown ids clear it.
func (s *State) SetLinkSource(id NodeID) {
	if !s.Has(id) {
		id = NoNode
	}
	s.linkSource = id
}

// Viewport returns the transform for the current camera over screen.
func (s *State) Viewport(screen geom.Rect) Viewport {
	return s.Camera.Viewport(screen)
}

// Validate checks the structural invariants. It is meant for tests and
// debug builds; a correct caller never sees an error.
func (s *State) Validate() error {
	for _, e := range s.edges {
		if !s.Has(e.From) || !s.Has(e.To) {
			return errs.New(errs.ErrCodeInternal, "edge %d references missing node (%d→%d)", e.ID, e.From, e.To)
		}
	}
	if s.dragging != NoNode && !s.Has(s.dragging) {
		return errs.New(errs.ErrCodeInternal, "drag target %d is gone", s.dragging)
	}
	if s.linkSource != NoNode && !s.Has(s.linkSource) {
		return errs.New(errs.ErrCodeInternal, "link source %d is gone", s.linkSource)
	}
	for id, n := range s.nodes {
		if n.ID != id || uint64(id) >= s.nextID {
			return errs.New(errs.ErrCodeInternal, "node %d has inconsistent id %d", id, n.ID)
		}
	}
	return nil
}

// =============================================================================
// Remote operations
// =============================================================================

// Request describes a remote operation started on a node. It carries every
// parameter a dispatcher needs so the dispatcher never reads the State.
type Request struct {
	Node   NodeID
	Op     Operation
	Query  string // search
	Prompt string // expand, visualize
	Model  string // expand
	Report string // export: text of every node
}

// BeginOperation marks the node's content pending and returns the request
// to hand to a dispatcher. A node that is already pending is rejected with
// ErrPending until its result or failure has been applied.
func (s *State) BeginOperation(id NodeID) (Request, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Request{}, errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "node %d", id)
	}
	if n.Content.Pending() {
		return Request{}, errs.Wrap(errs.ErrCodePending, ErrPending, "node %d", id)
	}

	req := Request{Node: id, Op: n.Content.Kind().Operation()}
	switch c := n.Content.(type) {
	case *Concept:
		req.Prompt = c.Text
		req.Model = c.Model
		if req.Model == "" {
			req.Model = DefaultModel
		}
	case *Research:
		req.Query = c.Query
	case *Visual:
		req.Prompt = c.Prompt
	case *Export:
		req.Report = s.ReportText()
		c.prior, c.Status = c.Status, "Exporting"
	}
	n.Content.flag().pending = true
	return req, nil
}

// ReportText concatenates the title and summary of every node in id order.
func (s *State) ReportText() string {
	var b strings.Builder
	for _, n := range s.Nodes() {
		if n.Content.Kind() == KindExport {
			continue
		}
		b.WriteString("## ")
		b.WriteString(n.Content.Title())
		b.WriteString("\n")
		b.WriteString(n.Content.Summary())
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// ResolveText stores a text result on the node and clears its pending flag.
// Concepts store it as their expansion, research nodes as their result and
// export nodes as their status.
func (s *State) ResolveText(id NodeID, text string) error {
	n, ok := s.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "node %d", id)
	}
	defer clearPending(n.Content)

	switch c := n.Content.(type) {
	case *Concept:
		c.Expansion = &text
	case *Research:
		c.Result = &text
	case *Export:
		c.Status = text
	case *Visual:
		return errs.Wrap(errs.ErrCodeUnsupported, ErrPayloadMismatch, "text for visual node %d", id)
	}
	return nil
}

// ResolveImage stores a decoded image on a visual node and clears its
// pending flag.
func (s *State) ResolveImage(id NodeID, img image.Image) error {
	n, ok := s.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "node %d", id)
	}
	defer clearPending(n.Content)

	switch c := n.Content.(type) {
	case *Visual:
		c.Image = img
	case *Concept, *Research, *Export:
		return errs.Wrap(errs.ErrCodeUnsupported, ErrPayloadMismatch, "image for %s node %d", c.Kind(), id)
	}
	return nil
}

// Fail clears the pending flag and leaves the stored result untouched.
// Export nodes restore their pre-dispatch status.
func (s *State) Fail(id NodeID) error {
	n, ok := s.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrCodeNodeNotFound, ErrNodeNotFound, "node %d", id)
	}
	if e, ok := n.Content.(*Export); ok && e.Pending() {
		e.Status = e.prior
	}
	clearPending(n.Content)
	return nil
}

func clearPending(c Content) { c.flag().pending = false }

// IsStale reports whether err means a result targeted a node that no longer
// exists.
func IsStale(err error) bool { return errors.Is(err, ErrNodeNotFound) }
