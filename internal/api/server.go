package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/config"
	"github.com/dgallion1/vimhelp/internal/metrics"
	"github.com/dgallion1/vimhelp/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API for rendering documents.
type Server struct {
	router       chi.Router
	reg          *builder.Registry
	orchestrator *pipeline.Orchestrator
	prom         *metrics.PrometheusRecorder
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. prom may be nil, in
// which case /metrics is not served.
func NewServer(reg *builder.Registry, orch *pipeline.Orchestrator, prom *metrics.PrometheusRecorder, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		reg:          reg,
		orchestrator: orch,
		prom:         prom,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.prom != nil {
		r.Handle("/metrics", s.prom.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Get("/api/formats", s.handleFormats)
		r.Post("/api/render", s.handleRender)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/output", s.handleJobOutput)
		r.Get("/api/jobs/{jobID}/tags", s.handleJobTags)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(body))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
