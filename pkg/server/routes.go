package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/contribnet/pkg/buildinfo"
	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/render/sink"
	"github.com/matzehuels/contribnet/pkg/session"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/export.{format}", s.handleExport)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/frame.svg", s.handleFrameSVG)
			r.Get("/frame.json", s.handleFrameJSON)
			r.Post("/actions", s.handleAction)
			r.Delete("/", s.handleDeleteSession)
		})
	})
	return r
}

// =============================================================================
// Health and page
// =============================================================================

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	Dataset  string `json:"dataset"`
	Error    string `json:"error,omitempty"`
}

// handleHealth handles GET /health. The server is healthy even when the
// dataset failed; the failure is reported in the body.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Version:  buildinfo.Get().Version,
		Sessions: s.sessions.Len(),
		Dataset:  "loaded",
	}
	if s.loadErr != nil {
		resp.Dataset = "failed"
		resp.Error = errors.UserMessage(s.loadErr)
	}
	writeJSON(w, http.StatusOK, resp)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Contributions</title>
<style>
  html, body { margin: 0; height: 100%; background: #ffffff; }
  object { display: block; width: 100vw; height: 100vh; }
</style>
</head>
<body>
<object id="surface" type="image/svg+xml" data="{{.Endpoint}}/frame.svg"></object>
<script>
  window.addEventListener('pagehide', () => {
    fetch('{{.Endpoint}}', { method: 'DELETE', keepalive: true });
  });
</script>
</body>
</html>
`))

// handleIndex handles GET /. Every page load starts a fresh session.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.sessions.Create(s.newViewer())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = indexTemplate.Execute(w, struct{ Endpoint string }{sessionEndpoint(sess.ID)})
}

func sessionEndpoint(id string) string { return "/api/sessions/" + id }

// =============================================================================
// Sessions
// =============================================================================

type sessionResponse struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint"`
}

// handleCreateSession handles POST /api/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.sessions.Create(s.newViewer())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, Endpoint: sessionEndpoint(sess.ID)})
}

// session resolves the {id} route parameter, writing the error response
// when it does not name a live session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

// handleFrameSVG handles GET /api/sessions/{id}/frame.svg.
func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	frame := sess.Loop().Snapshot()
	writeBytes(w, "image/svg+xml", sink.RenderSVG(frame, sink.WithInteraction(sessionEndpoint(sess.ID))))
}

// handleFrameJSON handles GET /api/sessions/{id}/frame.json.
func (s *Server) handleFrameJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := sink.RenderJSON(sess.Loop().Snapshot())
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode frame"))
		return
	}
	writeBytes(w, "application/json", data)
}

// handleAction handles POST /api/sessions/{id}/actions. The body is one
// action or an array of actions applied in order.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBytes))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidAction, err, "read action"))
		return
	}
	actions, err := viewer.DecodeActions(body)
	if err != nil {
		writeError(w, err)
		return
	}
	// Every action in a batch is applied; the first failure is reported.
	var first error
	for _, action := range viewer.Coalesce(actions) {
		err := sess.Loop().Dispatch(r.Context(), action)
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if stderrors.Is(err, viewer.ErrLoopClosed) || r.Context().Err() != nil {
			break
		}
	}
	if first != nil {
		writeError(w, first)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteSession handles DELETE /api/sessions/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Data
// =============================================================================

type graphResponse struct {
	Graph  json.RawMessage `json:"graph"`
	Report contrib.Report  `json:"report"`
}

// handleGraph handles GET /api/graph.
func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	if s.loadErr != nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, s.loadErr)
		return
	}
	data, err := graph.MarshalGraph(s.graph)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode graph"))
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Graph: data, Report: s.report})
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

// handleExport handles GET /api/export.{format}.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.loadErr != nil {
		writeErrorStatus(w, http.StatusServiceUnavailable, s.loadErr)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeErrorStatus(w, http.StatusNotFound, err)
		return
	}

	opts, err := s.exportOptions(r, format)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.exporter.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("exported",
		"format", format,
		"load_hit", result.CacheInfo.LoadHit,
		"layout_hit", result.CacheInfo.LayoutHit,
		"render_hit", result.CacheInfo.RenderHit)
	writeBytes(w, contentTypes[format], result.Artifacts[format])
}

// exportOptions builds pipeline options from the configured defaults and
// the query string:
//
//	type=force|nodelink  source=internal&source=external  category=X
//	topic=T  policy=none|all  labels=false  legend=false  seed=N
//	width=W  height=H  engine=neato|fdp|dot  scale=S
//
// A parameter given with an empty value, such as "source=", selects no value
// of that dimension.
func (s *Server) exportOptions(r *http.Request, format string) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.cfg.Export
	opts.Dataset = s.cfg.Dataset
	opts.DefaultSource = s.cfg.DefaultSource
	opts.Formats = []string{format}
	opts.Logger = s.logger

	if v := q.Get("type"); v != "" {
		opts.VizType = v
	}
	if v, ok := q["source"]; ok {
		opts.Sources = nonEmpty(v)
	}
	if v, ok := q["category"]; ok {
		opts.Categories = nonEmpty(v)
	}
	if v := q.Get("topic"); v != "" {
		opts.Topic = v
	}
	if v := q.Get("policy"); v != "" {
		opts.Policy = v
	}
	if v := q.Get("engine"); v != "" {
		opts.Engine = v
	}

	var err error
	parseBool := func(key string, dst *bool, invert bool) {
		if v := q.Get(key); v != "" && err == nil {
			var b bool
			if b, err = strconv.ParseBool(v); err == nil {
				*dst = b != invert
			}
		}
	}
	parseFloat := func(key string, dst *float64) {
		if v := q.Get(key); v != "" && err == nil {
			var f float64
			if f, err = strconv.ParseFloat(v, 64); err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
				err = fmt.Errorf("%s must be finite, got %q", key, v)
			}
			*dst = f
		}
	}
	parseBool("labels", &opts.HideLabels, true)
	parseBool("legend", &opts.HideLegend, true)
	parseBool("detailed", &opts.Detailed, false)
	parseFloat("width", &opts.Width)
	parseFloat("height", &opts.Height)
	parseFloat("scale", &opts.Scale)
	if v := q.Get("seed"); v != "" && err == nil {
		opts.Seed, err = strconv.ParseUint(v, 10, 64)
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "query")
	}
	return opts, nil
}

// nonEmpty splits comma-separated values; the result is never nil.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, contrib.SplitList(v)...)
	}
	return out
}
