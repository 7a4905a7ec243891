// Package cli implements the storyboard command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/buildinfo"
	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/config"
	"github.com/matzehuels/storyboard/pkg/dispatch"
	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "storyboard"

	// defaultGridSeed seeds the jitter of --grid canvases.
	defaultGridSeed = 42
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Storyboard is an interactive node canvas for building stories",
		Long: `Storyboard is a node-graph canvas in the terminal. Concept, research,
visual and export nodes are linked into a pipeline; each node runs a remote
operation (LLM expansion, web search, image generation, PDF export) in the
background while the canvas stays interactive.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root pre-run (tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Backend Factory
// =============================================================================

// newCache opens the configured response cache. A failing backend is
// logged and replaced by no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	backend, err := cache.Open(ctx, c.settings().CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache()
	}
	return backend
}

// newService builds an in-process enrichment service over the configured
// cache and report store. The caller closes the returned cleanup.
func (c *CLI) newService(ctx context.Context, offline bool) (*enrich.Service, func(), error) {
	cfg := c.settings()
	backend := c.newCache(ctx, false)
	reports, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	opts := []enrich.Option{enrich.WithLogger(c.Logger), enrich.WithReports(reports)}
	if offline || cfg.Dispatch.Offline {
		opts = append(opts, enrich.Offline())
	}
	svc := enrich.New(enrich.NewClients(cfg.Keys, backend, cfg.Cache.TTL, cfg.CacheOptions().Keyer()), opts...)
	cleanup := func() {
		reports.Close()
		backend.Close()
	}
	return svc, cleanup, nil
}

// newBackend returns the dispatch backend: the proxy when one is
// configured, otherwise an in-process service. Either is guarded by a
// circuit breaker.
func (c *CLI) newBackend(ctx context.Context, offline bool) (dispatch.Backend, func(), error) {
	cfg := c.settings()
	settings := dispatch.DefaultBreakerSettings()
	settings.Logger = c.Logger

	if cfg.Dispatch.ProxyURL != "" && !offline {
		p, err := dispatch.NewProxy(cfg.Dispatch.ProxyURL)
		if err != nil {
			return nil, nil, err
		}
		settings.Name = "proxy"
		c.Logger.Debug("using proxy backend", "url", cfg.Dispatch.ProxyURL)
		return dispatch.Guard(p, settings), func() {}, nil
	}

	svc, cleanup, err := c.newService(ctx, offline)
	if err != nil {
		return nil, nil, err
	}
	settings.Name = "direct"
	return dispatch.Guard(svc, settings), cleanup, nil
}

// =============================================================================
// Canvas Helpers
// =============================================================================

// newState returns the demo pipeline, or a grid of n concept nodes when n
// is positive.
func (c *CLI) newState(grid int) *canvas.State {
	opts := c.settings().CanvasOptions()
	if grid > 0 {
		return canvas.Grid(opts, grid, defaultGridSeed)
	}
	return canvas.Demo(opts)
}

// frameConfig returns the driver configuration for theme t.
func (c *CLI) frameConfig(t frame.Theme) frame.Config {
	cfg := c.settings()
	return frame.Config{
		Physics:       cfg.PhysicsParams(),
		Input:         cfg.InputOptions(),
		Render:        frame.RenderOptions{Theme: t, LODZoom: cfg.Canvas.LODZoom},
		InboxCapacity: cfg.Dispatch.InboxCapacity,
		Logger:        c.Logger,
	}
}
