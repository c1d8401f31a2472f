// Package cli implements the contribnet command-line interface.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/buildinfo"
	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/config"
	"github.com/matzehuels/contribnet/pkg/httputil"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "contribnet"

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
	// Config is loaded before every command runs; commands never see nil.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and default config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "contribnet draws contributor networks as force-directed graphs",
		Long: `contribnet reads contribution datasets (JSON, YAML or CSV) and draws the
people and topics they mention as an interactive force-directed graph.

Render static SVG, PNG, PDF, JSON or DOT files, serve the interactive viewer
over HTTP, or explore the graph directly in the terminal.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd.Context()); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads .env and the config file into c.Config.
func (c *CLI) loadConfig(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		c.Logger.Warn("ignoring .env", "err", err)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", configPathOrDefault(c.configPath))
	return nil
}

func configPathOrDefault(p string) string {
	if p == "" {
		return config.DefaultPath()
	}
	return p
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache.Instrument(store), nil, c.Logger)
	runner.Fetcher = c.newFetcher(noCache)
	return runner, nil
}

// newFetcher creates the downloader for http(s) datasets. Responses are
// cached under the cache directory unless caching is off.
func (c *CLI) newFetcher(noCache bool) *httputil.Fetcher {
	var rc *httputil.Cache
	if !noCache && !c.Config.Cache.Disabled {
		dir := ""
		if c.Config.Cache.Dir != "" {
			dir = filepath.Join(c.Config.Cache.Dir, "http")
		}
		var err error
		if rc, err = httputil.NewCache(dir, httputil.DefaultTTL); err != nil {
			c.Logger.Warn("dataset download cache disabled", "err", err)
		}
	}
	f := httputil.NewFetcher(rc)
	f.Logger = c.Logger
	return f
}

// newCache picks the configured backend: Redis when a URL is set, the file
// cache otherwise. A missing cache directory degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if url := c.Config.Cache.RedisURL; url != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: url, Prefix: c.Config.Cache.RedisPrefix})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the configured cache directory, defaulting to the user
// cache dir (~/.cache/contribnet on Linux).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// datasetArgs returns the dataset paths of a command: the arguments, or the
// configured dataset when none are given.
func (c *CLI) datasetArgs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if c.Config.Dataset != "" {
		return []string{c.Config.Dataset}
	}
	return nil
}

// pipelineDefaults returns pipeline options seeded from the config.
func (c *CLI) pipelineDefaults() pipeline.Options {
	cfg := c.Config
	opts := pipeline.Options{
		DefaultSource: cfg.Filter.DefaultSource,
		Policy:        cfg.Filter.EmptyCategories,
		Width:         cfg.Canvas.Width,
		Height:        cfg.Canvas.Height,
		Seed:          cfg.Canvas.Seed,
		MaxTicks:      cfg.Canvas.MaxTicks,
		Force:         cfg.ForceConfig(),
		HideLabels:    !cfg.Labels.Show,
		Logger:        c.Logger,
	}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	return opts
}

// viewerOptions returns interactive viewer options seeded from the config.
func (c *CLI) viewerOptions() viewer.Options {
	cfg := c.Config
	return viewer.Options{
		Force:         cfg.ForceConfig(),
		Policy:        cfg.Policy(),
		Zoom:          cfg.ZoomExtent(),
		FocusScale:    cfg.Zoom.FocusScale,
		FocusDuration: cfg.FocusDuration(),
		HideLabels:    !cfg.Labels.Show,
		Logger:        c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
