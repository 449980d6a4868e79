package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultWriteTimeout is used when no pipeline budget bounds a request.
const DefaultWriteTimeout = 2 * time.Minute

// writeSlack covers encoding the response once the pipeline returns.
const writeSlack = 10 * time.Second

// WriteTimeoutFor returns the response write timeout for a request
// budget. A non-positive budget yields DefaultWriteTimeout.
func WriteTimeoutFor(budget time.Duration) time.Duration {
	if budget <= 0 {
		return DefaultWriteTimeout
	}
	return budget + writeSlack
}

// Server represents the HTTP API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	addr         string
	writeTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	writeTimeout time.Duration
	origins      []string
}

// WithWriteTimeout sets the response write timeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithCORSOrigins sets the origins allowed to call the API. An empty list
// disables CORS headers.
func WithCORSOrigins(origins []string) ServerOption {
	return func(c *serverConfig) { c.origins = origins }
}

// NewServer creates a new API Server.
func NewServer(addr string, logger *slog.Logger, opts ...ServerOption) Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := serverConfig{writeTimeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	if len(cfg.origins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID"},
			ExposedHeaders: []string{"X-Correlation-ID"},
			MaxAge:         300,
		}))
	}
	router.Use(chimiddleware.Recoverer)

	return Server{
		router:       router,
		addr:         addr,
		logger:       logger,
		writeTimeout: cfg.writeTimeout,
	}
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router {
	return s.router
}

// WriteTimeout returns the response write timeout.
func (s Server) WriteTimeout() time.Duration {
	return s.writeTimeout
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", slog.String("addr", s.addr), slog.Duration("write_timeout", s.writeTimeout))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s Server) Addr() string {
	return s.addr
}
