package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr        string
	ControlUsername string
	ControlPassword string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "127.0.0.1:8085",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// MonitorController is the part of the monitor the server drives
type MonitorController interface {
	Start(cfg domain.ReclaimConfig) error
	Stop()
	State() domain.MonitorRunState
	Config() domain.ReclaimConfig
}

// Deps groups what the handlers need. History and Gatherer may be nil.
type Deps struct {
	Monitor MonitorController
	// ReclaimConfig supplies the configuration used by POST /control/start
	ReclaimConfig func() domain.ReclaimConfig
	Probe         port.SpaceProbe
	ExternalRoot  string
	History       port.HistoryRepository
	Gatherer      prometheus.Gatherer
}

// Server represents the HTTP API server
type Server struct {
	config  *Config
	deps    Deps
	logger  *zap.Logger
	server  *http.Server
	status  *StatusHandler
	control *ControlHandler
	history *HistoryHandler
}

// New creates a new HTTP server
func New(cfg *Config, deps Deps, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logger,
	}

	s.status = NewStatusHandler(deps.Monitor, deps.Probe, deps.ExternalRoot, logger)
	s.control = NewControlHandler(deps.Monitor, deps.ReclaimConfig, logger)
	s.history = NewHistoryHandler(deps.History, logger)

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.status.HandleStatus)
	mux.HandleFunc("/space", s.status.HandleSpace)
	mux.HandleFunc("/history", s.history.HandleHistory)

	control := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if s.config.ControlPassword != "" {
		control = BasicAuthMiddleware(s.config.ControlUsername, s.config.ControlPassword, s.logger)
	}
	mux.HandleFunc("/control/start", control(s.control.HandleStart))
	mux.HandleFunc("/control/stop", control(s.control.HandleStop))

	if s.deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return LoggingMiddleware(s.logger)(mux)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.deps.History != nil {
		if err := s.deps.History.Ping(); err != nil {
			s.logger.Error("health check failed", zap.Error(err))
			http.Error(w, "History store unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"running": s.deps.Monitor.State().Running,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
