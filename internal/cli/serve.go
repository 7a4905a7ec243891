package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/internal/server"
	"github.com/matzehuels/storyboard/pkg/observability"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr    string
	offline bool
	metrics bool
}

// serveCommand creates the serve command, which runs the enrichment proxy.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy that performs node operations",
		Long: `Serve runs the enrichment API used by canvas clients. It holds the API
keys (read from YOU_COM_API_KEY, OPENROUTER_API_KEY, FOXIT_CLIENT_ID and
FOXIT_CLIENT_SECRET) and answers with mock results for any service whose key
is missing. Point clients at it with STORYBOARD_PROXY_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, or :$PORT)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "never call remote services")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "serve Prometheus metrics on /metrics")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := c.settings()

	svc, cleanup, err := c.newService(ctx, opts.offline)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	}
	if opts.metrics {
		collector := observability.NewCollector(appName)
		observability.Register(collector)
		defer observability.Reset()
		srvOpts = append(srvOpts, server.WithCollector(collector))
	}

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	printKeyValue("you.com", keyStatus(cfg.Keys.YouComKey))
	printKeyValue("openrouter", keyStatus(cfg.Keys.OpenRouterKey))
	printKeyValue("foxit", keyStatus(cfg.Keys.FoxitID+cfg.Keys.FoxitSecret))
	return server.New(svc, srvOpts...).ListenAndServe(ctx, addr)
}
