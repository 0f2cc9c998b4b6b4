// Package api serves process status over HTTP: health, recent log entries,
// stored strategies and Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/ats/internal/logsink"
	"github.com/newthinker/ats/internal/metrics"
	strategystore "github.com/newthinker/ats/internal/storage/strategy"
)

// Config holds server configuration
type Config struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// ConnectionChecker reports the broker session state.
type ConnectionChecker interface {
	Connected() bool
}

// Dependencies are the read-only views the server exposes. Nil members
// disable their routes.
type Dependencies struct {
	Sink    *logsink.Sink
	Store   strategystore.Store
	Metrics *metrics.Registry
	Session ConnectionChecker
}

// Server represents the status HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     chi.Router
	deps       Dependencies
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger, deps: deps}
	s.router = s.routes(cfg.APIKey)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(apiKey string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(s.deps.Metrics))
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(apiKeyAuth(apiKey))
		if s.deps.Sink != nil {
			r.Get("/logs", s.handleLogs)
		}
		if s.deps.Store != nil {
			r.Get("/strategies", s.handleListStrategies)
			r.Get("/strategies/{symbol}", s.handleGetStrategy)
		}
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

type health struct {
	Status  string `json:"status"`
	Gateway string `json:"gateway,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok"}
	if s.deps.Session != nil {
		h.Gateway = "disconnected"
		if s.deps.Session.Connected() {
			h.Gateway = "connected"
		}
	}
	writeJSON(w, http.StatusOK, h)
}

// handleLogs returns recent entries, newest last. ?limit=N keeps the last N;
// ?format=text returns display lines instead of JSON.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := s.deps.Sink.Recent()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		var b strings.Builder
		for _, e := range entries {
			b.WriteString(e.String())
			b.WriteByte('\n')
		}
		_, _ = w.Write([]byte(b.String()))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	configs, err := s.deps.Store.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
