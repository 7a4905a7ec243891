// Package raster implements a frame.Surface on top of fogleman/gg and
// encodes snapshots of the canvas as PNG.
//
// Basic usage:
//
//	s, err := raster.New(1280, 800)
//	d.Frame(ctx, s.Bounds(), s)
//	err = s.EncodePNG(w)
package raster

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/fonts"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Option configures a Surface.
type Option func(*Surface)

// WithBackground sets the clear color. The default is the theme background.
func WithBackground(c color.Color) Option {
	return func(s *Surface) { s.bg = c }
}

// WithScale renders at scale times the logical size, for high-DPI output.
func WithScale(f float64) Option {
	return func(s *Surface) {
		if f > 0 {
			s.scale = f
		}
	}
}

// Surface rasterizes primitives into an RGBA image.
type Surface struct {
	dc    *gg.Context
	w, h  int
	scale float64
	bg    color.Color
	faces map[float64]font.Face
}

var _ frame.ImageSurface = (*Surface)(nil)

// New creates a w×h surface cleared to the background color.
func New(w, h int, opts ...Option) (*Surface, error) {
	s := &Surface{w: w, h: h, scale: 1, bg: frame.DefaultTheme().Background, faces: map[float64]font.Face{}}
	for _, opt := range opts {
		opt(s)
	}
	s.dc = gg.NewContext(int(float64(w)*s.scale), int(float64(h)*s.scale))
	s.dc.Scale(s.scale, s.scale)
	if _, err := s.face(12); err != nil {
		return nil, err
	}
	s.Clear()
	return s, nil
}

// Bounds returns the logical screen rectangle to pass to Frame.
func (s *Surface) Bounds() geom.Rect {
	return geom.Rect{Max: geom.V(float64(s.w), float64(s.h))}
}

// Clear fills the surface with the background color.
func (s *Surface) Clear() {
	s.dc.SetColor(s.bg)
	s.dc.Clear()
}

// Image returns the rendered pixels.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }

func (s *Surface) face(size float64) (font.Face, error) {
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	f, err := fonts.Regular(size)
	if err != nil {
		return nil, err
	}
	s.faces[size] = f
	return f, nil
}

func (s *Surface) FillRoundedRect(r geom.Rect, radius float64, fill color.Color) {
	s.dc.DrawRoundedRectangle(r.Min.X, r.Min.Y, r.Width(), r.Height(), radius)
	s.dc.SetColor(fill)
	s.dc.Fill()
}

func (s *Surface) StrokeRoundedRect(r geom.Rect, radius, width float64, stroke color.Color) {
	s.dc.DrawRoundedRectangle(r.Min.X, r.Min.Y, r.Width(), r.Height(), radius)
	s.dc.SetLineWidth(width)
	s.dc.SetColor(stroke)
	s.dc.Stroke()
}

func (s *Surface) StrokeCubic(p0, p1, p2, p3 geom.Vec2, width float64, stroke color.Color) {
	s.dc.MoveTo(p0.X, p0.Y)
	s.dc.CubicTo(p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y)
	s.dc.SetLineWidth(width)
	s.dc.SetColor(stroke)
	s.dc.Stroke()
}

func (s *Surface) FillCircle(c geom.Vec2, radius float64, fill color.Color) {
	s.dc.DrawCircle(c.X, c.Y, radius)
	s.dc.SetColor(fill)
	s.dc.Fill()
}

func (s *Surface) StrokeCircle(c geom.Vec2, radius, width float64, stroke color.Color) {
	s.dc.DrawCircle(c.X, c.Y, radius)
	s.dc.SetLineWidth(width)
	s.dc.SetColor(stroke)
	s.dc.Stroke()
}

// TextWidth measures text in the regular face at size.
func (s *Surface) TextWidth(text string, size float64) float64 {
	f, err := s.face(size)
	if err != nil {
		return float64(len(text)) * size * 0.6
	}
	return float64(font.MeasureString(f, text)) / 64
}

// DrawText draws text with its top-left corner at pos. Sizes below three
// pixels are skipped.
func (s *Surface) DrawText(pos geom.Vec2, text string, size float64, c color.Color) {
	if size < 3 {
		return
	}
	f, err := s.face(size)
	if err != nil {
		return
	}
	s.dc.SetFontFace(f)
	s.dc.SetColor(c)
	s.dc.DrawStringAnchored(text, pos.X, pos.Y, 0, 1)
}

// DrawImage scales img into r, preserving its aspect ratio.
func (s *Surface) DrawImage(r geom.Rect, img image.Image) {
	dst, ok := s.dc.Image().(*image.RGBA)
	if !ok {
		return
	}
	sb := img.Bounds()
	if sb.Empty() {
		return
	}
	fit := min(r.Width()/float64(sb.Dx()), r.Height()/float64(sb.Dy()))
	size := geom.V(float64(sb.Dx())*fit, float64(sb.Dy())*fit).Scale(s.scale)
	at := r.Min.Scale(s.scale)
	target := image.Rect(int(at.X), int(at.Y), int(at.X+size.X), int(at.Y+size.Y))
	xdraw.CatmullRom.Scale(dst, target, img, sb, xdraw.Over, nil)
}
