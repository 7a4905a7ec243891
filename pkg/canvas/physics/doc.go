// Package physics relaxes a canvas with a force-directed simulation.
//
// Every step sums two forces per node. Repulsion acts between every
// unordered pair of nodes with magnitude repulsion / max(dist, floor)².
// Attraction acts along every edge as a spring toward the rest length.
// Velocities are then damped and integrated:
//
//	v = (v + F) * damping
//	p = p + v
//
// With damping in (0,1) an undisturbed graph settles into a local
// equilibrium.
//
// The repulsion term is O(n²). [Params.Workers] spreads it across goroutines
// for large graphs without changing the result.
package physics
