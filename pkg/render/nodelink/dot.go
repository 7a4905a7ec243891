package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/render"
)

// pointsPerInch converts world units, treated as points, to the inches
// Graphviz expects for pos, width and height.
const pointsPerInch = 72.0

// Engine names the Graphviz layout program.
type Engine string

const (
	// EngineDot ranks nodes along the edge direction and ignores positions.
	EngineDot Engine = "dot"
	// EngineNeato honors pinned positions, so the diagram matches the canvas.
	EngineNeato Engine = "neato"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the content summary below the title.
	Detailed bool
	// Pinned fixes every node at its canvas position. Render pinned graphs
	// with EngineNeato.
	Pinned bool
	// Theme supplies the kind accent colors. The zero value uses
	// frame.DefaultTheme.
	Theme *frame.Theme
}

// Engine returns the layout program that matches the options.
func (o Options) Engine() Engine {
	if o.Pinned {
		return EngineNeato
	}
	return EngineDot
}

// ToDOT converts the canvas graph to Graphviz DOT. Nodes are emitted in
// ascending id order and keyed by id; edges follow in insertion order.
func ToDOT(s *canvas.State, opts Options) string {
	theme := frame.DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"#1e1e1e\", fontcolor=\"#e6e6e6\", color=\"#3c3c3c\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#505050\", penwidth=2];\n")
	if opts.Pinned {
		buf.WriteString("  splines=true;\n")
		buf.WriteString("  overlap=true;\n")
	}
	buf.WriteString("\n")

	for _, n := range s.Nodes() {
		attrs := fmtAttrs(n, fmtLabel(n.Content, opts.Detailed), theme)
		if opts.Pinned {
			attrs = append(attrs, pinAttrs(n)...)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeKey(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", nodeKey(e.From), nodeKey(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeKey(id canvas.NodeID) string { return strconv.FormatUint(uint64(id), 10) }

func fmtLabel(c canvas.Content, detailed bool) string {
	title := c.Title()
	if c.Pending() {
		title += " …"
	}
	if !detailed {
		return title
	}
	var lines []string
	for _, l := range strings.Split(c.Summary(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return title
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func fmtAttrs(n *canvas.Node, label string, theme frame.Theme) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fontcolor=%q", hex(theme.AccentFor(n.Content.Kind()))),
	}
	switch {
	case n.Selected:
		attrs = append(attrs, fmt.Sprintf("color=%q", hex(theme.Selected)), "penwidth=2")
	case n.Content.Pending():
		attrs = append(attrs, fmt.Sprintf("color=%q", hex(theme.Pending)), "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// pinAttrs fixes the node center. Graphviz's y axis points up, the canvas's
// points down.
func pinAttrs(n *canvas.Node) []string {
	c := n.Center()
	return []string{
		fmt.Sprintf("pos=\"%.3f,%.3f!\"", c.X/pointsPerInch, -c.Y/pointsPerInch),
		fmt.Sprintf("width=%.3f", n.Size.X/pointsPerInch),
		fmt.Sprintf("height=%.3f", n.Size.Y/pointsPerInch),
		"fixedsize=true",
	}
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// RenderSVG lays out a DOT graph with engine and renders it to SVG.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if engine != "" {
		gv.SetLayout(graphviz.Layout(engine))
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as a PNG image at scale via SVG conversion.
func RenderPNG(ctx context.Context, dot string, engine Engine, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
