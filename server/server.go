package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/utils/metrics"
)

// Config holds server configuration
type Config struct {
	Address   string
	Gatherer  prometheus.Gatherer
	Readiness ReadinessProbe
	Logger    *zap.Logger
}

// Server exposes metrics, health and readiness over HTTP
type Server struct {
	server    *http.Server
	gatherer  prometheus.Gatherer
	readiness ReadinessProbe
	logger    *zap.Logger
	startTime time.Time
}

func New(cfg Config) (*Server, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("listen address must be specified")
	}
	if cfg.Gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	s := &Server{
		gatherer:  cfg.Gatherer,
		readiness: cfg.Readiness,
		logger:    cfg.Logger,
		startTime: time.Now(),
	}
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the router serving every endpoint
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Get("/status", s.status)
	return r
}

// Start blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("Starting metrics server", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Metrics server stopped")
	return nil
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	counters, err := metrics.Snapshot(s.gatherer)
	if err != nil {
		s.logger.Error("Failed to gather metrics", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, HealthResponse{Status: "error", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Ready:    s.readiness == nil || s.readiness.Ready(),
		Uptime:   time.Since(s.startTime).Truncate(time.Second).String(),
		Counters: counters,
	})
}
