// Package api serves the roster pipeline over HTTP.
//
// Routes:
//
//	POST /api/athletes   run the pipeline for {university?, sport?}
//	GET  /api/catalog    list the known roster pages
//	GET  /healthz        liveness
//	GET  /metrics        Prometheus exposition
//
// CORS is open to every origin, method and header.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pfrederiksen/scoutteam/internal/catalog"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/metrics"
	"github.com/pfrederiksen/scoutteam/internal/pipeline"
	"github.com/pfrederiksen/scoutteam/internal/resolver"
	"github.com/pfrederiksen/scoutteam/internal/roster"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second

	// InvalidQueryMessage is shown when a request resolves to no roster page
	InvalidQueryMessage = "Please specify a valid university or sport name"
)

// Runner executes the roster pipeline
type Runner interface {
	Run(ctx context.Context, q resolver.Query) (*pipeline.Result, error)
	Catalog() *catalog.Catalog
}

// AthleteRequest is the body of POST /api/athletes
type AthleteRequest struct {
	University []string `json:"university"`
	Sport      []string `json:"sport"`
}

// AthleteResponse is returned for every request the pipeline handled, successful or not
type AthleteResponse struct {
	Success       bool             `json:"success"`
	Data          []roster.Athlete `json:"data"`
	University    []string         `json:"university"`
	Sport         []string         `json:"sport"`
	URLsProcessed []string         `json:"urls_processed"`
	Error         string           `json:"error,omitempty"`
}

// ErrorResponse carries the detail of a rejected or failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Server is the HTTP surface
type Server struct {
	runner  Runner
	log     *logger.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for request logs
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics exposes m at /metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server for r
func New(r Runner, opts ...Option) *Server {
	s := &Server{
		runner: r,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Route("/api", func(r chi.Router) {
		r.Post("/athletes", s.handleAthletes)
		r.Get("/catalog", s.handleCatalog)
	})
	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.Fields{"addr": addr})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("HTTP server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) handleAthletes(w http.ResponseWriter, r *http.Request) {
	var req AthleteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Detail: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	resp := AthleteResponse{
		Data:          []roster.Athlete{},
		University:    req.University,
		Sport:         req.Sport,
		URLsProcessed: []string{},
	}

	res, err := s.runner.Run(r.Context(), resolver.Query{Universities: req.University, Sports: req.Sport})
	switch {
	case errors.Is(err, resolver.ErrAmbiguous), errors.Is(err, pipeline.ErrNoRosters):
		resp.Error = InvalidQueryMessage
		writeJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		s.log.Error("Error processing request", logger.Fields{
			"request_id": middleware.GetReqID(r.Context()),
		}, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Detail: fmt.Sprintf("Error processing request: %v", err),
		})
		return
	}

	resp.Success = res.Extraction.OK
	resp.Data = res.Extraction.Athletes
	resp.URLsProcessed = res.URLs
	resp.Error = res.Extraction.Reason
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Catalog().Entries())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through the structured logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("HTTP request", logger.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"took_ms":    time.Since(start).Milliseconds(),
			})
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
