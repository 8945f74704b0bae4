package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/aniwrap/internal/api/handlers"
	"github.com/amaumene/aniwrap/internal/api/middleware"
	"github.com/amaumene/aniwrap/internal/config"
	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	db          *models.Database
	wrappedCtrl *controllers.WrappedController
	refreshCtrl *controllers.RefreshController
	logger      *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, wrappedCtrl *controllers.WrappedController, refreshCtrl *controllers.RefreshController, logger *logrus.Logger) *Server {
	s := &Server{
		db:          db,
		wrappedCtrl: wrappedCtrl,
		refreshCtrl: refreshCtrl,
		logger:      logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.AnilistTimeoutSeconds*(cfg.AnilistMaxRetries+1))*time.Second + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler with all routes and middleware
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// routes configures all HTTP routes
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(s.logger))
	r.Use(chimiddleware.Recoverer)

	healthHandler := handlers.NewHealthHandler(s.logger)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/ping", healthHandler.Ping)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	statusHandler := handlers.NewStatusHandler(s.db, s.logger)
	r.Get("/status", statusHandler.ServeHTTP)

	wrappedHandler := handlers.NewWrappedHandler(s.wrappedCtrl, s.logger)
	r.Get("/watched/{provider}/{username}", wrappedHandler.Watched)
	r.Get("/wrapped/{provider}/{username}", wrappedHandler.Wrapped)

	usersHandler := handlers.NewUsersHandler(s.db, s.refreshCtrl, s.logger)
	r.Route("/users", func(r chi.Router) {
		r.Get("/", usersHandler.List)
		r.Post("/", usersHandler.Create)
		r.Delete("/{id}", usersHandler.Delete)
		r.Post("/{id}/refresh", usersHandler.Refresh)
		r.Get("/{id}/snapshots", usersHandler.Snapshots)
		r.Get("/{id}/snapshots/latest", usersHandler.LatestSnapshot)
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
