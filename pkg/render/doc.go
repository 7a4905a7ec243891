// Package render holds the output backends of the canvas and the shared
// SVG conversion helpers.
//
// # Surfaces
//
// Each backend implements [frame.Surface] so the frame driver can paint the
// same scene anywhere:
//
//   - [raster]: fogleman/gg images, encoded as PNG snapshots
//   - [term]: a grid of terminal cells styled with lipgloss, used by the
//     interactive TUI
//
// # Diagrams
//
// The [nodelink] subpackage exports the graph itself as Graphviz DOT and SVG.
// [ToPDF] and [ToPNG] convert any SVG with the external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineNeato)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [frame.Surface]: github.com/matzehuels/storyboard/pkg/canvas/frame#Surface
// [raster]: github.com/matzehuels/storyboard/pkg/render/raster
// [term]: github.com/matzehuels/storyboard/pkg/render/term
// [nodelink]: github.com/matzehuels/storyboard/pkg/render/nodelink
package render
