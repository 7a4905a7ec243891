package canvas

import (
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Zoom limits applied when a Camera is created without explicit bounds.
const (
	DefaultZoomMin = 0.05
	DefaultZoomMax = 5.0
)

// Camera is the world-space point the view is centered on plus a zoom
// factor. Zoom is clamped to [ZoomMin, ZoomMax] by every mutating method.
type Camera struct {
	Offset  geom.Vec2
	Zoom    float64
	ZoomMin float64
	ZoomMax float64
}

// NewCamera returns a camera at the origin with zoom 1 and the given range.
// Non-positive or inverted bounds fall back to the defaults.
func NewCamera(zoomMin, zoomMax float64) Camera {
	if zoomMin <= 0 || zoomMax < zoomMin {
		zoomMin, zoomMax = DefaultZoomMin, DefaultZoomMax
	}
	c := Camera{ZoomMin: zoomMin, ZoomMax: zoomMax}
	c.SetZoom(1)
	return c
}

// SetZoom sets the zoom factor, clamped to the camera's range.
func (c *Camera) SetZoom(z float64) {
	lo, hi := c.ZoomMin, c.ZoomMax
	if lo <= 0 || hi < lo {
		lo, hi = DefaultZoomMin, DefaultZoomMax
	}
	c.Zoom = geom.Clamp(z, lo, hi)
}

// Pan moves the camera by a screen-space drag delta. The delta is scaled by
// the inverse zoom and subtracted, so the scene follows the pointer.
func (c *Camera) Pan(screenDelta geom.Vec2) {
	c.Offset = c.Offset.Sub(screenDelta.Div(c.Zoom))
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// cursor fixed on screen. Non-positive factors are ignored.
func (c *Camera) ZoomAt(screen geom.Rect, cursor geom.Vec2, factor float64) {
	if factor <= 0 {
		return
	}
	anchor := c.Viewport(screen).ScreenToWorld(cursor)
	c.SetZoom(c.Zoom * factor)
	c.Offset = anchor.Sub(cursor.Sub(screen.Center()).Div(c.Zoom))
}

// Viewport binds the camera to a screen rectangle.
func (c Camera) Viewport(screen geom.Rect) Viewport {
	return Viewport{Camera: c, Screen: screen}
}

// Viewport is the world↔screen transform for one frame. It is a value and
// does not track later camera changes.
type Viewport struct {
	Camera Camera
	Screen geom.Rect
}

// WorldToScreen maps a world point to screen space:
// screen = (world - offset) * zoom + screenCenter.
func (v Viewport) WorldToScreen(p geom.Vec2) geom.Vec2 {
	return p.Sub(v.Camera.Offset).Scale(v.Camera.Zoom).Add(v.Screen.Center())
}

// ScreenToWorld maps a screen point to world space:
// world = (screen - screenCenter) / zoom + offset.
func (v Viewport) ScreenToWorld(p geom.Vec2) geom.Vec2 {
	return p.Sub(v.Screen.Center()).Div(v.Camera.Zoom).Add(v.Camera.Offset)
}

// WorldRectToScreen maps a world rectangle to screen space.
func (v Viewport) WorldRectToScreen(r geom.Rect) geom.Rect {
	return geom.Rect{Min: v.WorldToScreen(r.Min), Max: v.WorldToScreen(r.Max)}
}

// VisibleWorld returns the world-space rectangle covered by the screen.
func (v Viewport) VisibleWorld() geom.Rect {
	return geom.Rect{Min: v.ScreenToWorld(v.Screen.Min), Max: v.ScreenToWorld(v.Screen.Max)}
}

// IsVisible reports whether a world rectangle intersects the screen once
// transformed. Renderers use it to cull; it never affects state.
func (v Viewport) IsVisible(world geom.Rect) bool {
	return v.Screen.Intersects(v.WorldRectToScreen(world))
}

// Bounds returns the world rectangle enclosing every node. ok is false on
// an empty canvas.
func (s *State) Bounds() (r geom.Rect, ok bool) {
	for i, n := range s.Nodes() {
		if i == 0 {
			r = n.Bounds()
			continue
		}
		r = r.Union(n.Bounds())
	}
	return r, s.NodeCount() > 0
}

// Fit centers the camera on all nodes and zooms so they fill screen minus
// margin pixels on each side. The zoom stays within the camera's range and
// never exceeds 1. An empty canvas resets the camera to the origin.
func (s *State) Fit(screen geom.Rect, margin float64) {
	b, ok := s.Bounds()
	if !ok {
		s.Camera.Offset = geom.Vec2{}
		s.Camera.SetZoom(1)
		return
	}
	inner := screen.Expand(-margin)
	zoom := 1.0
	if b.Width() > 0 && inner.Width() > 0 {
		zoom = min(zoom, inner.Width()/b.Width())
	}
	if b.Height() > 0 && inner.Height() > 0 {
		zoom = min(zoom, inner.Height()/b.Height())
	}
	s.Camera.Offset = b.Center()
	s.Camera.SetZoom(zoom)
}
