// Package server exposes the analysis engine over HTTP, JSON-RPC and
// WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/server/handler"
	"github.com/alanyoungcy/liqscope/internal/server/middleware"
	"github.com/alanyoungcy/liqscope/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr         string
	CORSOrigins  []string
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handlers aggregates the route handlers. MCP and Metrics are optional.
type Handlers struct {
	Health   *handler.HealthHandler
	Accounts *handler.AccountHandler
	Batch    *handler.BatchHandler
	Reserves *handler.ReserveHandler
	Prices   *handler.PriceHandler
	Status   *handler.StatusHandler
	MCP      *handler.MCPHandler
	Metrics  http.Handler
}

// publicPaths bypass API-key auth.
var publicPaths = []string{"/api/health", "/metrics"}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger
}

// NewServer registers every route with its middleware chain. limiter and
// wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "http"))

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Auth(cfg.APIKey, publicPaths...))
	r.Use(middleware.RateLimit(limiter, logger))

	r.Get("/api/health", handlers.Health.HealthCheck)

	r.Route("/api/accounts/{address}", func(r chi.Router) {
		r.Get("/", handlers.Accounts.GetAccount)
		r.Get("/positions", handlers.Accounts.GetPositions)
		r.Get("/opportunity", handlers.Accounts.GetOpportunity)
	})
	r.Post("/api/batch", handlers.Batch.AnalyzeBatch)

	r.Get("/api/reserves", handlers.Reserves.ListReserves)
	r.Get("/api/reserves/{asset}/stats", handlers.Reserves.GetStats)
	r.Get("/api/prices/{asset}", handlers.Prices.GetPrice)
	r.Get("/api/status", handlers.Status.GetStatus)

	if handlers.MCP != nil {
		r.Post("/mcp", handlers.MCP.Invoke)
	}
	if handlers.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.Metrics)
	}
	if wsHub != nil {
		r.Get("/ws", wsHub.HandleWS)
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 90 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
		router: r,
		logger: logger,
	}
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
