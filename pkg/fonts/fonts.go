// Package fonts provides the fonts used by the raster surface and the
// Graphviz export.
//
// The Go fonts ship inside golang.org/x/image, so the binary needs no font
// files on disk. Parsed fonts are cached; faces are cheap and created per
// size.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the family name used in DOT and SVG output.
const FontFamily = "Go"

// FallbackFontFamily lists fallbacks for viewers without the Go fonts.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Helvetica, Arial, sans-serif`

var (
	regular, bold *truetype.Font
	parseOnce     sync.Once
	parseErr      error
)

func parse() error {
	parseOnce.Do(func() {
		if regular, parseErr = truetype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		bold, parseErr = truetype.Parse(gobold.TTF)
	})
	return parseErr
}

// Regular returns a face of the regular Go font at size points.
func Regular(size float64) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	return truetype.NewFace(regular, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}

// Bold returns a face of the bold Go font at size points.
func Bold(size float64) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	return truetype.NewFace(bold, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}

// RegularTTF returns the raw regular font data.
func RegularTTF() []byte { return goregular.TTF }
