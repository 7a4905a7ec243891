// Package nodelink exports the canvas graph as a Graphviz diagram.
//
// # Usage
//
// Convert the canvas to DOT, then render it to SVG:
//
//	opts := nodelink.Options{Detailed: true, Pinned: true}
//	dot := nodelink.ToDOT(state, opts)
//	svg, err := nodelink.RenderSVG(ctx, dot, opts.Engine())
//
// With Pinned set, every node carries a fixed pos attribute taken from its
// canvas center and the neato engine places it there, so the exported
// diagram matches what the user arranged. Without it, dot ranks the graph
// left to right along the edges.
//
// Node labels use the content title, followed by the summary lines when
// Detailed is set. Fonts are colored with the kind accent of the theme;
// selected and pending nodes get the same stroke colors as on screen.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink
