// Package server exposes the scanning pipeline over HTTP: POST /scan for
// extraction, plus health and Prometheus metrics endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardscan/internal/contact"
	"cardscan/internal/pipeline"
)

// Processor is the part of the pipeline the HTTP handlers use. Narrowing it
// to an interface keeps the handlers testable without OpenCV and Tesseract.
type Processor interface {
	ProcessImageWithOptions(data []byte, opts pipeline.Options) ([]contact.Record, error)
}

// Config holds the HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "",
		Port:           8080,
		MaxUploadBytes: 10 * 1024 * 1024,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
	}
}

// Server wraps an http.Server around the scanning pipeline.
type Server struct {
	cfg       Config
	processor Processor
	logger    *slog.Logger
	httpSrv   *http.Server
}

// New creates a Server. The processor is typically a *pipeline.Pipeline.
func New(cfg Config, processor Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, processor: processor, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/scan", s.instrument("/scan", s.handleScan))
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// ListenAndServe starts serving and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// instrument wraps a handler with request counting and duration metrics.
func (s *Server) instrument(endpoint string, next func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := next(w, r)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, fmt.Sprintf("%d", status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
