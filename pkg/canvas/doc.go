// Package canvas holds the data model of an infinite node-graph canvas.
//
// A [State] owns typed nodes, directed edges between them and the [Camera]
// that maps world space onto the screen. Everything else in the engine
// operates on a State:
//
//   - physics applies spring and repulsion forces to node positions
//   - interact turns pointer and scroll events into panning, zooming,
//     dragging and linking
//   - inbox carries results of remote operations back from goroutines
//   - frame sequences the per-frame work and paints onto a surface
//
// # Nodes and Content
//
// Node content is a closed sum type: [Concept], [Research], [Visual] and
// [Export]. Each kind has one remote operation (expand, search, visualize,
// export). [State.BeginOperation] marks a node pending and returns the
// [Request] a dispatcher needs; [State.ResolveText], [State.ResolveImage]
// and [State.Fail] apply the outcome and clear the pending flag. A node
// never has two operations in flight.
//
// # Identity
//
// Node and edge ids come from one counter that starts at 1 and is never
// reused. Removing a node prunes every incident edge, so an edge always
// references present nodes.
//
// # Coordinates
//
//	screen = (world - offset) * zoom + screenCenter
//	world  = (screen - screenCenter) / zoom + offset
//
// [Camera.ZoomAt] keeps the world point under the cursor fixed while the
// zoom changes.
//
// # Concurrency
//
// A State has exactly one owner goroutine. It performs no locking.
package canvas
