package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/factual"
	apimiddleware "github.com/helixml/factual/infrastructure/api/middleware"
	v1 "github.com/helixml/factual/infrastructure/api/v1"
)

// APIServer provides an HTTP API backed by a factual Client.
type APIServer struct {
	client       *factual.Client
	version      string
	serverOpts   []ServerOption
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithVersion sets the version reported by the root endpoint.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) {
		if version != "" {
			a.version = version
		}
	}
}

// WithServerOptions sets options for the server created by ListenAndServe.
func WithServerOptions(opts ...ServerOption) APIServerOption {
	return func(a *APIServer) { a.serverOpts = append(a.serverOpts, opts...) }
}

// NewAPIServer creates a new APIServer wired to the given factual Client.
func NewAPIServer(client *factual.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:  client,
		version: "dev",
		logger:  client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up the v1 API, health, root and docs routes.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	matchRouter := v1.NewMatchRouter(a.client.Match, a.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/match", matchRouter.Routes())
		r.Post("/analyze", matchRouter.Analyze)
	})

	router.Get("/health", a.health)
	router.Get("/healthz", a.ready)
	router.Get("/", a.root)
	router.Mount("/docs", a.DocsRouter("/docs/openapi.json").Routes())
}

// DocsRouter returns a router for Swagger UI and OpenAPI spec.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ready reports 503 until the client can classify sentiment.
func (a *APIServer) ready(w http.ResponseWriter, _ *http.Request) {
	if !a.client.Ready() {
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *APIServer) root(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "factual",
		"version": a.version,
		"docs":    "/docs",
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	opts := append([]ServerOption{WithWriteTimeout(WriteTimeoutFor(a.client.Match.Budget()))}, a.serverOpts...)
	server := NewServer(addr, a.logger, opts...)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
