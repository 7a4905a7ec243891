package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/render/raster"
)

// benchOpts holds the command-line flags for the bench command.
type benchOpts struct {
	nodes   int
	frames  int
	workers int
	png     string // optional snapshot after the run
}

// benchCommand creates the bench command.
func (c *CLI) benchCommand() *cobra.Command {
	opts := benchOpts{nodes: 1000, frames: 300, workers: 1}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure frame times on a generated canvas",
		Long: `Bench runs frames over a grid of generated nodes drawn as circles, the
way the canvas stress test does, and reports frame timing. Drawing goes to a
counting surface so only the canvas itself is measured.`,
		Example: `  storyboard bench --nodes 1000 --frames 300
  storyboard bench --nodes 2000 --workers 8 --png bench.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBench(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.nodes, "nodes", "n", opts.nodes, "number of generated nodes")
	cmd.Flags().IntVar(&opts.frames, "frames", opts.frames, "number of frames to run")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "physics workers for the repulsion pass")
	cmd.Flags().StringVar(&opts.png, "png", "", "write a PNG snapshot of the final frame")

	return cmd
}

// benchResult summarizes a bench run.
type benchResult struct {
	Frames  uint64
	Total   time.Duration
	Mean    time.Duration
	Max     time.Duration
	Drawn   int
	Culled  int
	Circles int
}

func (c *CLI) runBench(ctx context.Context, opts benchOpts) error {
	if opts.nodes <= 0 || opts.frames <= 0 {
		return fmt.Errorf("--nodes and --frames must be positive")
	}
	d, res, err := c.bench(ctx, opts)
	if err != nil {
		return err
	}

	printSuccess("Ran %d frames over %d nodes", res.Frames, d.State.NodeCount())
	printKeyValue("total", res.Total.Round(time.Millisecond).String())
	printKeyValue("mean", res.Mean.Round(time.Microsecond).String())
	printKeyValue("max", res.Max.Round(time.Microsecond).String())
	printKeyValue("fps", fmt.Sprintf("%.0f", d.Stats().FPS()))
	printKeyValue("drawn", fmt.Sprintf("%d (%d culled)", res.Drawn, res.Culled))

	if opts.png == "" {
		return nil
	}
	surf, err := raster.New(defaultWidth, defaultHeight)
	if err != nil {
		return err
	}
	d.Frame(ctx, surf.Bounds(), surf)
	f, err := os.Create(opts.png)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := surf.EncodePNG(f); err != nil {
		return err
	}
	printFile(opts.png)
	return nil
}

// bench runs the frames and returns the driver for inspection.
func (c *CLI) bench(ctx context.Context, opts benchOpts) (*frame.Driver, benchResult, error) {
	cfg := c.frameConfig(frame.DefaultTheme())
	cfg.Physics.Workers = max(opts.workers, 1)
	cfg.Render.Style = frame.Circles
	d := frame.New(c.newState(opts.nodes), cfg)

	screen := geom.Rect{Max: geom.V(defaultWidth, defaultHeight)}
	d.State.Fit(screen, fitMargin)

	var (
		surf frame.Counter
		res  benchResult
	)
	start := time.Now()
	for range opts.frames {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		surf.Reset()
		rep := d.Frame(ctx, screen, &surf)
		res.Drawn, res.Culled, res.Circles = rep.Render.Nodes, rep.Render.Culled, surf.Circles
	}
	res.Total = time.Since(start)
	res.Frames = d.Stats().Frames()
	res.Mean = d.Stats().Mean()
	res.Max = d.Stats().Max()
	return d, res, nil
}
