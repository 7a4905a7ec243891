// Package interact implements the pointer state machine of the canvas.
//
// A [Controller] moves between four modes:
//
//	Idle ──down on empty──▶ Panning ──up──▶ Idle
//	Idle ──down on node───▶ DraggingNode ──up──▶ Idle
//	any  ──BeginLink──────▶ Linking ──down / CancelLink──▶ Idle
//
// Panning subtracts each pointer delta, scaled by 1/zoom, from the camera
// offset. Dragging adds the scaled delta to the node's position and selects
// the node. While Linking, the next pointer-down creates an edge if it lands
// on a different node; the press is then handled as if from Idle.
//
// [Scroll] zooms about the cursor in every mode.
package interact
