// Package server wires the HTTP routes and runs the API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Fleet   *handlers.FleetHandler
	Catalog *handlers.CatalogHandler
	DB      handlers.Pinger
}

// NewRouter builds the chi router with the middleware chain and every route.
func NewRouter(cfg *config.Config, authMW *middleware.AuthMiddleware, h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(log.StandardLogger()))
	r.Use(middleware.Metrics)
	r.Use(middleware.Device)
	if cfg.RateLimitRequests > 0 {
		r.Use(middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}
	r.Use(authMW.Authenticate)

	r.Get("/health", handlers.Health(h.DB))
	r.Handle("/metrics", promhttp.Handler())

	can := authMW.RequirePermission

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/register", h.Auth.Register)
		r.Get("/auth/profile", h.Auth.GetProfile)
		r.Put("/auth/profile", h.Auth.UpdateProfile)
		r.Post("/auth/change-password", h.Auth.ChangePassword)
		r.Get("/session", handlers.Session)

		r.With(can(models.ModuleMaintenance, models.PermRead)).Get("/data", h.Fleet.Data)
		r.With(can(models.ModuleDashboard, models.PermRead)).Get("/dashboard", h.Fleet.Dashboard)

		r.Route("/maintenance", func(r chi.Router) {
			r.With(can(models.ModuleMaintenance, models.PermRead)).Get("/", h.Fleet.ListScheduled)
			r.With(can(models.ModuleMaintenance, models.PermWrite)).Post("/", h.Fleet.CreateScheduled)
			r.With(can(models.ModuleMaintenance, models.PermRead)).Get("/{id}", h.Fleet.GetScheduled)
			r.With(can(models.ModuleMaintenance, models.PermWrite)).Put("/{id}", h.Fleet.UpdateScheduled)
			r.With(can(models.ModuleMaintenance, models.PermDelete)).Delete("/{id}", h.Fleet.DeleteScheduled)
			r.With(can(models.ModuleMaintenance, models.PermWrite)).Post("/{id}/readings", h.Fleet.UpdateReading)
			r.With(can(models.ModuleMaintenance, models.PermWrite)).Post("/{id}/completions", h.Fleet.RegisterCompletion)
		})

		r.Route("/equipment", func(r chi.Router) {
			r.With(can(models.ModuleEquipment, models.PermRead)).Get("/", h.Fleet.ListEquipment)
			r.With(can(models.ModuleEquipment, models.PermWrite)).Post("/", h.Fleet.CreateEquipment)
			r.With(can(models.ModuleEquipment, models.PermRead)).Get("/{id}", h.Fleet.GetEquipment)
			r.With(can(models.ModuleEquipment, models.PermWrite)).Put("/{id}", h.Fleet.UpdateEquipment)
			r.With(can(models.ModuleEquipment, models.PermDelete)).Delete("/{id}", h.Fleet.DeleteEquipment)
		})

		r.With(can(models.ModuleReports, models.PermRead)).Get("/reports/updates", h.Fleet.UpdatesReport)
		r.With(can(models.ModulePlanner, models.PermRead)).Get("/plan/caterpillar", h.Fleet.RoutePlan)
		r.With(can(models.ModuleHistory, models.PermRead)).Get("/history", h.Fleet.History)

		r.Route("/catalog", func(r chi.Router) {
			r.Use(can(models.ModuleKits, models.PermRead))
			r.Get("/caterpillar", h.Catalog.Equipment)
			r.Get("/intervals", h.Catalog.Intervals)
			r.Get("/aliases", h.Catalog.Aliases)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(authMW.RequireRole(models.RoleAdmin))
			r.Get("/", h.Auth.ListUsers)
			r.Put("/{id}/role", h.Auth.UpdateUserRole)
			r.Delete("/{id}", h.Auth.DeleteUser)
		})
	})

	return r
}

// Server is the HTTP API server.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New creates a server listening on cfg.Port.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
