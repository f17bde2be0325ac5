package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lengolf/reconcile/internal/api/handlers"
	"github.com/lengolf/reconcile/internal/api/middleware"
	"github.com/lengolf/reconcile/internal/application/reconcile"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	engine     *reconcile.Engine
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, engine *reconcile.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		repo:   repo,
		engine: engine,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Reconciliation runs
		reconcileHandler := handlers.NewReconcileHandler(s.repo, s.engine)
		r.Post("/reconcile", reconcileHandler.Run)

		// Sessions
		sessionsHandler := handlers.NewSessionsHandler(s.repo)
		r.Get("/sessions", sessionsHandler.List)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Get("/sessions/{id}/items", sessionsHandler.ListItems)

		// Items and resolution workflow
		itemsHandler := handlers.NewItemsHandler(s.repo)
		r.Get("/items/{id}", itemsHandler.Get)
		r.Post("/items/{id}/approve", itemsHandler.Approve)
		r.Post("/items/{id}/dispute", itemsHandler.Dispute)
		r.Post("/items/{id}/adjust", itemsHandler.Adjust)

		// Stats
		statsHandler := handlers.NewStatsHandler(s.repo)
		r.Get("/stats", statsHandler.Get)

		// Suppliers
		suppliersHandler := handlers.NewSuppliersHandler(s.repo)
		r.Get("/suppliers", suppliersHandler.List)
		r.Post("/suppliers", suppliersHandler.Create)

		// Settings
		settingsHandler := handlers.NewSettingsHandler(s.repo)
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		// Invoice totals
		invoicesHandler := handlers.NewInvoicesHandler(s.repo)
		r.Post("/invoices/compute", invoicesHandler.Compute)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
