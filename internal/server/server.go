// Package server exposes an admin HTTP surface for a running worker pool:
// health, Prometheus metrics, pool state, lifecycle transitions and the
// scheduler's entries.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vnykmshr/prioflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/prioflow/pkg/scheduling/workerpool"
)

// Server is the prioflow admin API server.
type Server struct {
	router    chi.Router
	logger    *zap.Logger
	startTime time.Time
	pool      workerpool.Controller
	scheduler scheduler.Scheduler // optional
	gatherer  prometheus.Gatherer // optional; /metrics is not mounted without it
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithScheduler exposes the scheduler's entries under /schedules.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(srv *Server) {
		srv.scheduler = s
	}
}

// WithGatherer serves the given Prometheus gatherer at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.gatherer = g
	}
}

// New creates a new Server with all routes registered. Handlers administer
// the pool from concurrent goroutines, so New turns on the pool's
// multi-threaded administration.
func New(pool workerpool.Controller, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool.SetMultiThreadedAdmin(true)
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With(zap.String("component", "server")),
		startTime: time.Now(),
		pool:      pool,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/pool", func(r chi.Router) {
		r.Get("/", s.handlePoolStats)
		r.Post("/start", s.handlePoolStart)
		r.Post("/stop", s.handlePoolStop)
		r.Post("/pause", s.handlePoolPause)
		r.Post("/resume", s.handlePoolResume)
		r.Post("/workers", s.handlePoolWorkers)
	})

	if s.scheduler != nil {
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Delete("/{id}", s.handleCancelSchedule)
		})
	}
}
