// Package api serves completed audit runs over HTTP. The surface is
// strictly read-only: runs are created by the CLI, never through the
// API, and a served report is the frozen artifact of its run.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Server exposes persisted runs and their reports.
type Server struct {
	router chi.Router
	runs   core.RunStore
	log    *logging.Logger

	allowedOrigins []string
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAllowedOrigins restricts CORS to the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// NewServer creates the API server over a run store.
func NewServer(runs core.RunStore, opts ...Option) *Server {
	s := &Server{
		runs:           runs,
		log:            logging.NewNop(),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/latest", s.handleLatestRun)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Get("/report", s.handleGetReport)
			})
		})
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "listing runs")
		return
	}
	if runs == nil {
		runs = []core.RunSummary{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.runs.LatestRun(r.Context())
	if err != nil {
		s.respondStoreError(w, err, "loading latest run")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}
	rec, err := s.runs.LoadRun(r.Context(), runID)
	if err != nil {
		s.respondStoreError(w, err, "loading run")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rec, err := s.runs.LoadRun(r.Context(), runID)
	if err != nil {
		s.respondStoreError(w, err, "loading run")
		return
	}
	if rec.Report == nil {
		respondError(w, http.StatusConflict, "run has no report (status: "+string(rec.Status)+")")
		return
	}
	respondJSON(w, http.StatusOK, rec.Report)
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error, action string) {
	if status, ok := httpStatusForDomainError(err); ok && status != http.StatusInternalServerError {
		respondError(w, status, err.Error())
		return
	}
	s.log.Error(action+" failed", "error", err)
	respondError(w, http.StatusInternalServerError, action+" failed")
}
