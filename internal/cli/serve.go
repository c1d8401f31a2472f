package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/server"
)

// serveCommand creates the serve command hosting the interactive viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		redisURL     string
		tick         time.Duration
		sessionLimit int
		sessionTTL   time.Duration
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dataset...]",
		Short: "Serve the interactive viewer over HTTP",
		Long: `Serve the interactive viewer over HTTP.

Every browser tab gets its own viewer session with a live simulation. Filters,
drags, zoom and the info panel act on that session only. The export API
renders static files through the same cached pipeline as 'render'; set
--redis (or cache.redis_url) to share the cache between instances.

If the dataset cannot be loaded the server still starts and shows the error
in place of the graph.`,
		Example: `  contribnet serve people.json
  contribnet serve people.json --addr :9000 --redis redis://localhost:6379/0`,
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("redis") {
				cfg.Cache.RedisURL = redisURL
			}
			if cmd.Flags().Changed("tick") {
				cfg.Server.TickMS = int(tick / time.Millisecond)
			}
			if cmd.Flags().Changed("session-limit") {
				cfg.Server.SessionLimit = sessionLimit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), newPrinter(cmd.OutOrStdout()), c.datasetArgs(args), sessionTTL, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "redis URL for the shared artifact cache")
	cmd.Flags().DurationVar(&tick, "tick", 0, "simulation tick interval per session")
	cmd.Flags().IntVar(&sessionLimit, "session-limit", 0, "maximum concurrent viewer sessions")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", 0, "idle time before a session expires (default 30m)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of exports")

	return cmd
}

// runServe loads the dataset and serves until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, p printer, dataset []string, sessionTTL time.Duration, noCache bool) error {
	if len(dataset) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no dataset given and none configured")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := c.Config
	spinner := newSpinnerWithContext(ctx, "Loading dataset...")
	spinner.Start()
	srv := server.New(ctx, server.Config{
		Addr:          cfg.Server.Addr,
		Dataset:       dataset,
		DefaultSource: cfg.Filter.DefaultSource,
		Viewer:        c.viewerOptions(),
		Export:        c.pipelineDefaults(),
		SessionLimit:  cfg.Server.SessionLimit,
		SessionTTL:    sessionTTL,
		TickInterval:  cfg.TickInterval(),
		Runner:        runner,
		Logger:        c.Logger,
	})
	spinner.Stop()

	if err := srv.Err(); err != nil {
		p.warning("Dataset failed to load: %v", err)
		p.detail("The viewer shows the error until the server is restarted")
	} else {
		p.success("Loaded %s", datasetName(dataset))
	}
	p.keyValue("Viewer", StyleLink.Render(serverURL(cfg.Server.Addr)))
	if cfg.Cache.RedisURL != "" && !noCache {
		p.keyValue("Cache", "redis")
	}
	p.detail("Press Ctrl+C to stop")

	return srv.ListenAndServe(ctx)
}

// serverURL turns a listen address into a browsable URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
