package canvas

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/storyboard/pkg/geom"
)

// Demo returns a canvas holding the four-node storyboard pipeline:
// concept → research → visual → export.
func Demo(opts Options) *State {
	s := New(opts)
	concept := s.AddNode(geom.V(-300, 0), NewConcept("A lighthouse keeper discovers the lamp is alive"))
	research := s.AddNode(geom.V(0, -100), NewResearch("history of lighthouse keepers"))
	visual := s.AddNode(geom.V(300, 0), NewVisual("a glowing lighthouse at night, storyboard sketch"))
	export := s.AddNode(geom.V(0, 200), NewExport())

	// The ids are fresh and distinct, so these cannot fail.
	mustEdge(s, concept, research)
	mustEdge(s, research, visual)
	mustEdge(s, visual, export)
	return s
}

// Grid returns a canvas with n concept nodes laid out on a jittered square
// grid and each node linked to its right-hand neighbour. It is used by the
// bench command to load the frame driver.
func Grid(opts Options, n int, seed uint64) *State {
	s := New(opts)
	if n <= 0 {
		return s
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	step := s.nodeSize.Scale(1.5)

	ids := make([]NodeID, n)
	for i := range n {
		jitter := geom.V(rng.Float64()*40-20, rng.Float64()*40-20)
		pos := geom.V(float64(i%cols)*step.X, float64(i/cols)*step.Y).Add(jitter)
		ids[i] = s.AddNode(pos, NewConcept(fmt.Sprintf("node %d", i+1)))
	}
	for i := 1; i < n; i++ {
		if i%cols != 0 {
			mustEdge(s, ids[i-1], ids[i])
		}
	}
	return s
}

func mustEdge(s *State, from, to NodeID) {
	if _, err := s.AddEdge(from, to); err != nil {
		panic(err)
	}
}
