// Package api provides the HTTP REST API server for the dashboard.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/api/health"
	"github.com/good-yellow-bee/incidash/internal/api/middleware"
	"github.com/good-yellow-bee/incidash/internal/dashboard"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address            string
	RateLimitPerMinute int           // per client IP
	RateLimitBurst     int           // defaults to RateLimitPerMinute
	ShutdownTimeout    time.Duration // graceful shutdown bound
	MaxTrendDays       int           // upper bound for ?days= on /trend
	Verbose            bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxTrendDays == 0 {
		c.MaxTrendDays = 90
	}
}

// Dashboard is the read model the API serves.
type Dashboard interface {
	View(c models.FilterCriteria) dashboard.View
	Tickets(c models.FilterCriteria) []models.TicketRow
	Summary(c models.FilterCriteria) models.Summary
	SLA(c models.FilterCriteria) []dashboard.SLAView
	Trend(days int) []models.TrendPoint
	Breakdowns() analytics.Lookup
	Assignees() []string
	Refresh() time.Time
	LastUpdated() time.Time
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	dashboard     Dashboard
	logger        *zap.Logger
	server        *http.Server
	healthHandler *health.Handler
	limiter       *middleware.RateLimiter
}

// limiterCleanupInterval is how often idle per-client limiters are dropped.
const limiterCleanupInterval = 5 * time.Minute

// New creates a new API server.
func New(cfg *Config, dash Dashboard, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if dash == nil {
		return nil, fmt.Errorf("dashboard is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		dashboard:     dash,
		logger:        logger,
		healthHandler: health.NewHandler(),
		limiter:       middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.setupRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go s.cleanupLimiter(ctx)

	go func() {
		s.logger.Info("HTTP API listening", zap.String("addr", s.config.Address))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("http api: %w", err)
	}
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup()
		}
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	s.healthHandler.RegisterChecker(c)
}
