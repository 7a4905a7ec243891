// Package frame drives the canvas one frame at a time and paints it onto a
// [Surface].
//
// A [Driver] owns the physics engine, the interaction controller and the
// inbox for one canvas.State. Each call to [Driver.Frame] drains finished
// background results, steps the physics, applies queued input and renders.
// Callers redraw continuously; the TUI ticks Frame on a fixed interval.
//
// [Render] culls nodes whose screen rectangle misses the visible area and
// edges whose control polygon does. Culling never changes state. Below
// [DefaultLODZoom] cards draw their title only.
//
// Remote operations go through [Driver.Trigger], which marks the node
// pending and hands a canvas.Request to the configured [Dispatcher].
package frame
