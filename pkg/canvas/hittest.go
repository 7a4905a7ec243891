package canvas

import "github.com/matzehuels/storyboard/pkg/geom"

// HitTest returns the topmost node whose screen rectangle contains the
// screen point, or NoNode. Nodes draw in ascending id order, so among
// overlapping nodes the highest id is the one on top and wins.
func (s *State) HitTest(v Viewport, screen geom.Vec2) NodeID {
	return s.HitTestWorld(v.ScreenToWorld(screen))
}

// HitTestWorld is HitTest for a point already in world space.
func (s *State) HitTestWorld(world geom.Vec2) NodeID {
	hit := NoNode
	for id, n := range s.nodes {
		if id > hit && n.Bounds().Contains(world) {
			hit = id
		}
	}
	return hit
}

// NodesIn returns the ids of nodes intersecting a world rectangle, ascending.
func (s *State) NodesIn(world geom.Rect) []NodeID {
	var out []NodeID
	for _, id := range s.NodeIDs() {
		if s.nodes[id].Bounds().Intersects(world) {
			out = append(out, id)
		}
	}
	return out
}
