package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/dispatch"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/render/nodelink"
	"github.com/matzehuels/storyboard/pkg/render/raster"
)

// Output formats of the export command.
const (
	formatPNG = "png"
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
)

const (
	defaultWidth  = 1280 // PNG width in pixels
	defaultHeight = 800  // PNG height in pixels
	fitMargin     = 40   // screen margin kept around fitted nodes
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output   string
	format   string
	grid     int     // generate a grid canvas instead of the demo
	settle   int     // physics frames run before export
	width    int     // PNG width
	height   int     // PNG height
	scale    float64 // PNG pixel density
	detailed bool    // include node text in DOT labels
	pinned   bool    // keep canvas positions in DOT/SVG/PDF
	enrich   bool    // run every node's operation before export
	diagram  bool    // PNG through Graphviz instead of the canvas renderer
	offline  bool    // mock every remote service
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{
		width:  defaultWidth,
		height: defaultHeight,
		scale:  1,
		pinned: true,
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the canvas as PNG, DOT, SVG or PDF",
		Long: `Export builds a canvas (the demo pipeline, or --grid N generated nodes),
optionally lets the physics settle and runs every node's operation, then writes
it to a file.

PNG output is rasterized exactly as the canvas draws, or with --diagram goes
through Graphviz like DOT, SVG and PDF output. With --pinned (the default)
Graphviz keeps the canvas positions, otherwise it lays nodes out left to
right.`,
		Example: `  storyboard export -o board.png
  storyboard export -o board.svg --enrich --offline
  storyboard export -o grid.dot --grid 50 --settle 200 --pinned=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "storyboard.png", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "png, dot, svg or pdf (default from the output extension)")
	cmd.Flags().IntVar(&opts.grid, "grid", 0, "export a generated grid of N nodes instead of the demo")
	cmd.Flags().IntVar(&opts.settle, "settle", 0, "physics frames to run before export")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "PNG width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "PNG height in pixels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel density")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node text in DOT/SVG/PDF labels")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", opts.pinned, "keep canvas positions in DOT/SVG/PDF")
	cmd.Flags().BoolVar(&opts.diagram, "diagram", false, "render PNG through Graphviz like SVG and PDF")
	cmd.Flags().BoolVar(&opts.enrich, "enrich", false, "run every node's operation before export")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use mock results for --enrich")

	return cmd
}

// exportFormat returns the explicit format or the one implied by path.
func exportFormat(explicit, path string) (string, error) {
	f := strings.ToLower(explicit)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch f {
	case formatPNG, formatDOT, formatSVG, formatPDF:
		return f, nil
	case "":
		return "", fmt.Errorf("cannot infer format from %q, use --format", path)
	default:
		return "", fmt.Errorf("unknown format %q (want png, dot, svg or pdf)", f)
	}
}

func (c *CLI) runExport(ctx context.Context, opts exportOpts) error {
	logger := loggerFromContext(ctx)
	format, err := exportFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	screen := geom.Rect{Max: geom.V(float64(opts.width), float64(opts.height))}
	d := frame.New(c.newState(opts.grid), c.frameConfig(frame.DefaultTheme()))
	prog := newProgress(logger)

	if opts.enrich {
		sp := startSpinner(ctx, os.Stderr, "Running node operations...")
		n, err := c.enrichAll(ctx, d, screen, opts.offline)
		if err != nil {
			sp.Fail("Node operations failed")
			return err
		}
		sp.Success("Applied %d results", n)
		prog.done("Ran node operations")
	}
	for range opts.settle {
		d.Frame(ctx, screen, nil)
	}
	d.State.Fit(screen, fitMargin)

	data, err := c.renderExport(ctx, d, screen, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}

	printSuccess("Exported %s", strings.ToUpper(format))
	printStats(d.State)
	printFile(opts.output)
	return nil
}

func (c *CLI) renderExport(ctx context.Context, d *frame.Driver, screen geom.Rect, format string, opts exportOpts) ([]byte, error) {
	if format == formatPNG && !opts.diagram {
		surf, err := raster.New(opts.width, opts.height, raster.WithScale(opts.scale))
		if err != nil {
			return nil, err
		}
		d.SetPaused(true)
		d.Frame(ctx, screen, surf)
		var buf bytes.Buffer
		if err := surf.EncodePNG(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	nl := nodelink.Options{Detailed: opts.detailed, Pinned: opts.pinned}
	dot := nodelink.ToDOT(d.State, nl)
	if format == formatDOT {
		return []byte(dot), nil
	}

	sp := startSpinner(ctx, os.Stderr, "Rendering with Graphviz...")
	defer sp.Stop()
	switch format {
	case formatPDF:
		return nodelink.RenderPDF(ctx, dot, nl.Engine())
	case formatPNG:
		return nodelink.RenderPNG(ctx, dot, nl.Engine(), opts.scale)
	}
	return nodelink.RenderSVG(ctx, dot, nl.Engine())
}

// enrichAll triggers every node and waits for the results. Export nodes run
// last so their report includes the other results. It returns the number
// of results applied.
func (c *CLI) enrichAll(ctx context.Context, d *frame.Driver, screen geom.Rect, offline bool) (int, error) {
	backend, cleanup, err := c.newBackend(ctx, offline)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	cfg := c.settings()
	logger := loggerFromContext(ctx)
	disp := dispatch.New(backend, d.Inbox,
		dispatch.WithMaxInFlight(cfg.Dispatch.MaxInFlight),
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithLogger(logger),
	)
	d.SetDispatcher(disp)

	applied := 0
	drain := func() {
		disp.Wait()
		applied += d.Frame(ctx, screen, nil).Inbox.Applied
	}
	run := func(exports bool) {
		for _, n := range d.State.Nodes() {
			if (n.Content.Kind() == canvas.KindExport) != exports {
				continue
			}
			// A full in-flight bound refuses the trigger; drain and retry once.
			if err := d.Trigger(ctx, n.ID); err != nil {
				drain()
				if err := d.Trigger(ctx, n.ID); err != nil {
					logger.Warn("trigger failed", "node", n.ID, "err", err)
				}
			}
		}
		drain()
	}
	run(false)
	run(true)
	return applied, ctx.Err()
}
