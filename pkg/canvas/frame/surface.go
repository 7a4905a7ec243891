package frame

import (
	"image"
	"image/color"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// Surface receives drawing primitives in screen coordinates. Implementations
// decide the pixel format; the driver only guarantees that every point has
// already gone through the frame's viewport.
type Surface interface {
	FillRoundedRect(r geom.Rect, radius float64, fill color.Color)
	StrokeRoundedRect(r geom.Rect, radius, width float64, stroke color.Color)
	StrokeCubic(p0, p1, p2, p3 geom.Vec2, width float64, stroke color.Color)
	FillCircle(center geom.Vec2, radius float64, fill color.Color)
	StrokeCircle(center geom.Vec2, radius, width float64, stroke color.Color)
	// DrawText draws a single line with its top-left corner at pos. size is
	// the font height in pixels; surfaces may approximate it.
	DrawText(pos geom.Vec2, text string, size float64, c color.Color)
}

// ImageSurface is implemented by surfaces that can show decoded images.
// Visual nodes draw their image only on such surfaces.
type ImageSurface interface {
	Surface
	DrawImage(r geom.Rect, img image.Image)
}

// TextMeasurer is implemented by surfaces that know how wide a line of text
// renders. Other surfaces get an estimate.
type TextMeasurer interface {
	TextWidth(text string, size float64) float64
}

// Theme holds the colors and metrics of the node cards.
type Theme struct {
	Background color.Color
	CardFill   color.Color
	CardStroke color.Color
	Selected   color.Color
	Pending    color.Color
	Edge       color.Color
	Text       color.Color
	Muted      color.Color
	Accent     map[canvas.Kind]color.Color

	Radius      float64 // card corner radius in pixels
	Margin      float64 // inner padding in pixels
	EdgeWidth   float64
	StrokeWidth float64
	TitleSize   float64
	BodySize    float64
}

// DefaultTheme is the dark theme of the canvas.
func DefaultTheme() Theme {
	return Theme{
		Background: gray(18),
		CardFill:   gray(30),
		CardStroke: gray(60),
		Selected:   color.RGBA{0, 200, 255, 255},
		Pending:    color.RGBA{255, 196, 0, 255},
		Edge:       gray(80),
		Text:       gray(230),
		Muted:      gray(150),
		Accent: map[canvas.Kind]color.Color{
			canvas.KindConcept:  color.RGBA{186, 104, 200, 255},
			canvas.KindResearch: color.RGBA{79, 195, 247, 255},
			canvas.KindVisual:   color.RGBA{255, 138, 101, 255},
			canvas.KindExport:   color.RGBA{129, 199, 132, 255},
		},
		Radius:      8,
		Margin:      12,
		EdgeWidth:   2,
		StrokeWidth: 1,
		TitleSize:   16,
		BodySize:    12,
	}
}

func gray(v uint8) color.RGBA { return color.RGBA{v, v, v, 255} }

// AccentFor returns the accent color of a kind, falling back to Text.
func (t Theme) AccentFor(k canvas.Kind) color.Color {
	if c, ok := t.Accent[k]; ok {
		return c
	}
	return t.Text
}

// Counter is a Surface that only counts primitives. The bench command uses
// it to time the driver without a rasterizer.
type Counter struct {
	Rects, Curves, Circles, Texts int
}

func (c *Counter) FillRoundedRect(geom.Rect, float64, color.Color)            { c.Rects++ }
func (c *Counter) StrokeRoundedRect(geom.Rect, float64, float64, color.Color) {}
func (c *Counter) StrokeCubic(_, _, _, _ geom.Vec2, _ float64, _ color.Color) { c.Curves++ }
func (c *Counter) FillCircle(geom.Vec2, float64, color.Color)                 { c.Circles++ }
func (c *Counter) StrokeCircle(geom.Vec2, float64, float64, color.Color)      {}
func (c *Counter) DrawText(geom.Vec2, string, float64, color.Color)           { c.Texts++ }

// Reset zeroes the counts.
func (c *Counter) Reset() { *c = Counter{} }
