// Package server serves the interactive contributor graph over HTTP.
//
// Every browser page gets its own viewer session (see package session): the
// page embeds the session's SVG surface, and the script inside the SVG posts
// pointer and legend events back as viewer actions. Static exports go through
// the same cached pipeline as the render command.
//
// # Routes
//
//	GET    /health                           liveness and dataset status
//	GET    /                                 page embedding a new session
//	POST   /api/sessions                     create a session
//	GET    /api/sessions/{id}/frame.svg      current frame as SVG
//	GET    /api/sessions/{id}/frame.json     current frame as JSON
//	POST   /api/sessions/{id}/actions        apply one action or an ordered batch
//	DELETE /api/sessions/{id}                stop a session
//	GET    /api/graph                        the contributor graph and load report
//	GET    /api/export.{format}              headless render (svg, json, dot, png, pdf)
//
// If the dataset failed to load, the surface endpoints draw the error state
// instead of a graph and the data endpoints answer 503.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/session"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

const (
	// DefaultAddr is the listen address of a local server.
	DefaultAddr = "127.0.0.1:8080"

	// cleanupInterval is how often idle sessions are reaped.
	cleanupInterval = time.Minute

	// maxActionBytes bounds the body of an action request.
	maxActionBytes = 64 << 10

	shutdownTimeout = 5 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr          string
	Dataset       []string
	DefaultSource string

	// Viewer is the template for every session's viewer.
	Viewer viewer.Options
	// Export holds defaults for /api/export; query parameters override them.
	Export pipeline.Options

	SessionLimit int
	SessionTTL   time.Duration
	TickInterval time.Duration

	// Runner loads the dataset and renders exports. Defaults to an uncached
	// runner.
	Runner *pipeline.Runner
	Logger *log.Logger
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.Runner == nil {
		c.Runner = pipeline.NewRunner(nil, nil, c.Logger)
	}
	if c.Viewer.Logger == nil {
		c.Viewer.Logger = c.Logger
	}
}

// Server holds the loaded graph and the live sessions.
type Server struct {
	cfg      Config
	logger   *log.Logger
	runner   *pipeline.Runner
	exporter *pipeline.Runner
	sessions *session.Manager
	router   chi.Router

	graph   *graph.Graph
	report  contrib.Report
	loadErr error
}

// New loads the dataset and builds the router. A dataset that fails to load
// does not fail New: the server starts and shows the error.
func New(ctx context.Context, cfg Config) *Server {
	cfg.SetDefaults()
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		runner: cfg.Runner,
		sessions: session.NewManager(session.Options{
			Limit:        cfg.SessionLimit,
			TTL:          cfg.SessionTTL,
			TickInterval: cfg.TickInterval,
			Logger:       cfg.Logger,
		}),
	}

	loaded, err := s.runner.Load(ctx, pipeline.Options{
		Dataset:       cfg.Dataset,
		DefaultSource: cfg.DefaultSource,
		Logger:        cfg.Logger,
	})
	if err != nil {
		s.loadErr = err
		s.logger.Error("failed to load dataset", "dataset", cfg.Dataset, "error", err)
	} else {
		s.graph, s.report = loaded.Graph, loaded.Report
		s.exporter = exportRunner(s.runner, loaded.Hash)
		s.logger.Info("loaded dataset",
			"nodes", s.graph.NodeCount(),
			"edges", s.graph.EdgeCount(),
			"skipped", len(s.report.Skipped))
	}

	s.router = s.routes()
	return s
}

// exportRunner shares r's cache and fetcher but scopes every key to the
// dataset, so servers for different datasets can share one Redis backend.
func exportRunner(r *pipeline.Runner, datasetHash string) *pipeline.Runner {
	scoped := *r
	scoped.Keyer = cache.NewScopedKeyer(r.Keyer, ExportPrefix(datasetHash))
	return &scoped
}

// ExportPrefix returns the cache key prefix of exports for a dataset.
func ExportPrefix(datasetHash string) string {
	if len(datasetHash) > 12 {
		datasetHash = datasetHash[:12]
	}
	return "export:" + datasetHash + ":"
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Err returns the dataset load error, if any.
func (s *Server) Err() error { return s.loadErr }

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// stops every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.sessions.RunCleanup(cleanupCtx, cleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", "http://"+s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops every session.
func (s *Server) Close() error {
	return s.sessions.Close()
}

// newViewer creates the viewer of a new session.
func (s *Server) newViewer() *viewer.Viewer {
	if s.loadErr != nil {
		return viewer.NewFailed(s.loadErr, s.cfg.Viewer)
	}
	return viewer.New(s.graph, s.cfg.Viewer)
}
