// Package server implements `storyboard serve`: an HTTP proxy that holds
// the API keys and runs enrichment operations for canvas clients.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics              Prometheus metrics, when a collector is set
//	POST /api/research         {"query"}            → search result JSON
//	POST /api/visualize        {"prompt"}           → image bytes
//	POST /api/agnostic-ai      {"model","prompt"}   → completion text
//	POST /api/expand           {"model","concept"}  → scene text
//	POST /api/export           {"all_node_text"}    → status text
//	POST /api/foxit            alias of /api/export
//	GET  /api/reports          saved reports, newest first
//	GET  /api/reports/{id}     one report
//
// Every operation answers with a mock when its service is unavailable, so
// clients only see errors for invalid input.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/observability"
)

const (
	maxBodyBytes    = 2 << 20
	shutdownTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCollector serves c on /metrics.
func WithCollector(c *observability.Collector) Option {
	return func(s *Server) { s.collector = c }
}

// WithAllowedOrigins sets the CORS origins. The default allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server routes API requests to an enrich.Service.
type Server struct {
	svc       *enrich.Service
	collector *observability.Collector
	origins   []string
	logger    *log.Logger
}

// New creates a Server for svc.
func New(svc *enrich.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		origins: []string{"*"},
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.collector != nil {
		r.Handle("/metrics", s.collector.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))
		r.Post("/research", s.research)
		r.Post("/visualize", s.visualize)
		r.Post("/agnostic-ai", s.complete)
		r.Post("/expand", s.expand)
		r.Post("/export", s.export)
		r.Post("/foxit", s.export)
	})
	r.Get("/api/reports", s.listReports)
	r.Get("/api/reports/{id}", s.getReport)
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Millisecond),
			"id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
