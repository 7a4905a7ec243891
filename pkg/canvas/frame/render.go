package frame

import (
	"math"
	"strings"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Style selects how nodes are drawn.
type Style int

const (
	// Cards draws rounded rectangles with a title and body text.
	Cards Style = iota
	// Circles draws one filled circle per node. It is the benchmark style.
	Circles
)

// DefaultLODZoom is the zoom below which cards show their title only.
const DefaultLODZoom = 0.4

// RenderOptions controls Render.
type RenderOptions struct {
	Theme   Theme
	Style   Style
	LODZoom float64
}

// RenderStats counts what one Render call emitted.
type RenderStats struct {
	Nodes  int // nodes drawn
	Culled int // nodes skipped because they were off screen
	Edges  int // edges drawn
}

// Render paints s onto surf through v. Edges are drawn first, then nodes in
// ascending id order so that later nodes overlap earlier ones, which is the
// same order hit testing resolves ties in.
//
// Render only reads s. Culling skips primitives, never state.
func Render(s *canvas.State, v Viewport, surf Surface, opts RenderOptions) RenderStats {
	var st RenderStats
	t := opts.Theme

	for _, e := range s.Edges() {
		from, ok := s.Node(e.From)
		if !ok {
			continue
		}
		to, ok := s.Node(e.To)
		if !ok {
			continue
		}
		p0, p1, p2, p3 := EdgeCurve(v, from, to)
		if !v.Screen.Intersects(curveBounds(p0, p1, p2, p3)) {
			continue
		}
		surf.StrokeCubic(p0, p1, p2, p3, t.EdgeWidth, t.Edge)
		st.Edges++
	}

	zoom := v.Camera.Zoom
	for _, n := range s.Nodes() {
		r := v.WorldRectToScreen(n.Bounds())
		if !v.Screen.Intersects(r) {
			st.Culled++
			continue
		}
		st.Nodes++

		if opts.Style == Circles {
			radius := math.Min(r.Width(), r.Height()) / 2
			surf.FillCircle(r.Center(), radius, t.AccentFor(n.Content.Kind()))
			if n.Selected {
				surf.StrokeCircle(r.Center(), radius, 2, t.Selected)
			}
			continue
		}
		drawCard(surf, t, n, r, zoom >= opts.LODZoom)
	}
	return st
}

// Viewport is re-exported so callers of Render need only this package and
// canvas.
type Viewport = canvas.Viewport

// EdgeCurve returns the screen-space control points of the edge from → to.
// The curve leaves the right-middle of from and enters the left-middle of to;
// the inner control points sit horizontally half the span away.
func EdgeCurve(v Viewport, from, to *canvas.Node) (p0, p1, p2, p3 geom.Vec2) {
	p0 = v.WorldToScreen(from.OutPort())
	p3 = v.WorldToScreen(to.InPort())
	d := math.Abs(p3.X-p0.X) * 0.5
	p1 = p0.Add(geom.V(d, 0))
	p2 = p3.Sub(geom.V(d, 0))
	return p0, p1, p2, p3
}

// curveBounds is the bounding box of the control polygon, which contains
// the curve.
func curveBounds(pts ...geom.Vec2) geom.Rect {
	r := geom.Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min = geom.V(math.Min(r.Min.X, p.X), math.Min(r.Min.Y, p.Y))
		r.Max = geom.V(math.Max(r.Max.X, p.X), math.Max(r.Max.Y, p.Y))
	}
	return r
}

func drawCard(surf Surface, t Theme, n *canvas.Node, r geom.Rect, detailed bool) {
	stroke, width := t.CardStroke, t.StrokeWidth
	switch {
	case n.Selected:
		stroke, width = t.Selected, 2*t.StrokeWidth
	case n.Content.Pending():
		stroke = t.Pending
	}
	surf.FillRoundedRect(r, t.Radius, t.CardFill)
	surf.StrokeRoundedRect(r, t.Radius, width, stroke)

	pos := r.Min.Add(geom.V(t.Margin, t.Margin))
	title := n.Content.Title()
	if n.Content.Pending() {
		title += " …"
	}
	inner := r.Width() - 2*t.Margin
	surf.DrawText(pos, fit(surf, title, t.TitleSize, inner), t.TitleSize, t.AccentFor(n.Content.Kind()))
	if !detailed {
		return
	}

	// Body lines until the card runs out of room.
	lineHeight := t.BodySize * 1.4
	y := pos.Y + t.TitleSize*1.6
	for _, line := range bodyLines(n.Content) {
		if y+lineHeight > r.Max.Y-t.Margin {
			break
		}
		surf.DrawText(geom.V(pos.X, y), fit(surf, line, t.BodySize, inner), t.BodySize, t.Text)
		y += lineHeight
	}

	v, ok := n.Content.(*canvas.Visual)
	if !ok || v.Image == nil {
		return
	}
	is, ok := surf.(ImageSurface)
	if !ok {
		return
	}
	area := geom.Rect{Min: geom.V(pos.X, y), Max: r.Max.Sub(geom.V(t.Margin, t.Margin))}
	if area.Width() > 1 && area.Height() > 1 {
		is.DrawImage(area, v.Image)
	}
}

// fit shortens text with an ellipsis until it is at most width wide.
func fit(surf Surface, text string, size, width float64) string {
	measure := func(s string) float64 { return float64(len([]rune(s))) * size * 0.6 }
	if m, ok := surf.(TextMeasurer); ok {
		measure = func(s string) float64 { return m.TextWidth(s, size) }
	}
	if measure(text) <= width {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		if s := string(runes[:n]) + "…"; measure(s) <= width {
			return s
		}
	}
	return ""
}

func bodyLines(c canvas.Content) []string {
	var out []string
	for _, l := range strings.Split(c.Summary(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
