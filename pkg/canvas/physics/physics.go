package physics

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Params holds the force constants of the simulation.
type Params struct {
	Repulsion  float64 // strength of the pairwise inverse-square push
	Attraction float64 // spring constant along each edge
	Damping    float64 // velocity retained per step, in (0,1)
	RestLength float64 // spring length at which an edge exerts no force
	DistFloor  float64 // minimum distance used by repulsion

	// Workers > 1 splits the repulsion sum across goroutines once the graph
	// has at least ParallelThreshold nodes. The result is the same exact
	// pairwise sum.
	Workers int
}

// ParallelThreshold is the node count from which Workers takes effect.
const ParallelThreshold = 512

// DefaultParams returns the constants the canvas ships with.
func DefaultParams() Params {
	return Params{
		Repulsion:  5000,
		Attraction: 0.02,
		Damping:    0.8,
		RestLength: 300,
		DistFloor:  50,
		Workers:    1,
	}
}

// Engine steps a force-directed layout over a canvas. It keeps scratch
// buffers between steps, so one Engine should be reused for the lifetime of
// a canvas.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	params Params

	ids    []canvas.NodeID
	pos    []geom.Vec2
	force  []geom.Vec2
	index  map[canvas.NodeID]int
	frozen []bool
}

// New creates an engine with the given constants.
func New(p Params) *Engine {
	return &Engine{params: p, index: make(map[canvas.NodeID]int)}
}

// Params returns the engine's constants.
func (e *Engine) Params() Params { return e.params }

// SetParams replaces the engine's constants.
func (e *Engine) SetParams(p Params) { e.params = p }

// StepN runs k consecutive steps.
func (e *Engine) StepN(s *canvas.State, k int) {
	for range k {
		e.Step(s)
	}
}

// Step performs one relaxation step:
//
//  1. accumulate pairwise repulsion between every pair of distinct nodes
//  2. accumulate spring attraction along every edge
//  3. for every node except the drag target: v = (v + F) * damping; pos += v
//
// The drag target still repels the others. Its own velocity is zeroed so it
// does not fly off when released.
func (e *Engine) Step(s *canvas.State) {
	e.load(s)
	n := len(e.ids)
	if n == 0 {
		return
	}

	if e.params.Workers > 1 && n >= ParallelThreshold {
		e.repelParallel()
	} else {
		e.repelPairs()
	}
	e.attract(s.Edges())

	dragged := s.Dragging()
	for i, id := range e.ids {
		node, _ := s.Node(id)
		if id == dragged {
			node.Velocity = geom.Vec2{}
			continue
		}
		node.Velocity = node.Velocity.Add(e.force[i]).Scale(e.params.Damping)
		node.Pos = node.Pos.Add(node.Velocity)
	}
}

// load snapshots node positions into the scratch buffers. Forces act on the
// anchor point, so mixed node sizes do not shift the equilibrium.
func (e *Engine) load(s *canvas.State) {
	nodes := s.Nodes()
	e.ids = e.ids[:0]
	e.pos = e.pos[:0]
	e.force = e.force[:0]
	clear(e.index)
	for i, n := range nodes {
		e.ids = append(e.ids, n.ID)
		e.pos = append(e.pos, n.Pos)
		e.force = append(e.force, geom.Vec2{})
		e.index[n.ID] = i
	}
}

// repelPairs walks each unordered pair once and applies equal and opposite
// forces.
func (e *Engine) repelPairs() {
	for i := range e.pos {
		for j := i + 1; j < len(e.pos); j++ {
			f := Repulsion(e.pos[i], e.pos[j], e.params.Repulsion, e.params.DistFloor)
			e.force[i] = e.force[i].Add(f)
			e.force[j] = e.force[j].Sub(f)
		}
	}
}

// repelParallel computes each node's full repulsion sum independently, one
// contiguous block of nodes per worker. Workers write disjoint ranges of
// e.force, so no locking is needed.
func (e *Engine) repelParallel() {
	n := len(e.pos)
	workers := min(e.params.Workers, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				var sum geom.Vec2
				for j := range e.pos {
					if j == i {
						continue
					}
					if i < j {
						sum = sum.Add(Repulsion(e.pos[i], e.pos[j], e.params.Repulsion, e.params.DistFloor))
					} else {
						sum = sum.Sub(Repulsion(e.pos[j], e.pos[i], e.params.Repulsion, e.params.DistFloor))
					}
				}
				e.force[i] = sum
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) attract(edges []canvas.Edge) {
	for _, edge := range edges {
		i, ok := e.index[edge.From]
		if !ok {
			continue
		}
		j, ok := e.index[edge.To]
		if !ok {
			continue
		}
		f := Spring(e.pos[i], e.pos[j], e.params.Attraction, e.params.RestLength)
		e.force[i] = e.force[i].Add(f)
		e.force[j] = e.force[j].Sub(f)
	}
}

// Repulsion returns the force node a receives from node b; b receives the
// negation. The magnitude is strength / max(dist, floor)².
//
// Coincident points have no direction, so a is pushed toward -x and b toward
// +x. Callers pass the lower id as a, which keeps the split deterministic.
func Repulsion(a, b geom.Vec2, strength, floor float64) geom.Vec2 {
	d := a.Sub(b)
	dist := d.Len()
	dir := d.Normalized()
	if dir.IsZero() {
		dir = geom.V(-1, 0)
	}
	r := math.Max(dist, floor)
	return dir.Scale(strength / (r * r))
}

// Spring returns the force the source of an edge receives; the target
// receives the negation. The magnitude is (dist - rest) * k along the edge,
// so a stretched edge pulls the endpoints together and a compressed one
// pushes them apart.
func Spring(from, to geom.Vec2, k, rest float64) geom.Vec2 {
	d := to.Sub(from)
	return d.Normalized().Scale((d.Len() - rest) * k)
}

// KineticEnergy returns ½·Σ|v|² over all nodes.
func KineticEnergy(s *canvas.State) float64 {
	var sum float64
	for _, n := range s.Nodes() {
		sum += n.Velocity.LenSq()
	}
	return sum / 2
}
