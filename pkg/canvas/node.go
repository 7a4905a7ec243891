package canvas

import (
	"github.com/matzehuels/storyboard/pkg/geom"
)

// NodeID identifies a node. IDs are assigned from a strictly increasing
// counter starting at 1 and are never reused, even after deletion.
type NodeID uint64

// NoNode is the zero NodeID; it never names a real node.
const NoNode NodeID = 0

// EdgeID identifies an edge. Edge IDs come from the same counter as node IDs.
type EdgeID uint64

// DefaultNodeSize is the world-space extent given to new nodes.
var DefaultNodeSize = geom.V(200, 150)

// Node is a vertex on the canvas. Nodes are owned by a State and mutated in
// place: position and velocity by physics and dragging, content by edits and
// by async result delivery.
type Node struct {
	ID       NodeID
	Pos      geom.Vec2 // top-left corner in world space
	Size     geom.Vec2
	Velocity geom.Vec2
	Content  Content
	Selected bool
}

// Bounds returns the world-space rectangle anchored at Pos with Size.
func (n *Node) Bounds() geom.Rect { return geom.RectFromMinSize(n.Pos, n.Size) }

// Center returns the world-space center of the node.
func (n *Node) Center() geom.Vec2 { return n.Pos.Add(n.Size.Scale(0.5)) }

// OutPort is where outgoing edges leave the node: the middle of its right side.
func (n *Node) OutPort() geom.Vec2 { return n.Pos.Add(geom.V(n.Size.X, n.Size.Y/2)) }

// InPort is where incoming edges arrive: the middle of its left side.
func (n *Node) InPort() geom.Vec2 { return n.Pos.Add(geom.V(0, n.Size.Y/2)) }

// Edge is a directed reference from one node to another. Edges hold ids only;
// a State prunes every edge incident to a node when that node is removed.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
}
