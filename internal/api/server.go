package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/api/handler"
	mw "github.com/edvin/wppanel/internal/api/middleware"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
	"github.com/edvin/wppanel/internal/scheduler"
)

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router    chi.Router
	logger    zerolog.Logger
	services  *core.Services
	db        Pinger
	scheduler *scheduler.Scheduler
}

// NewServer builds the router. sched may be nil when the scheduler is
// disabled.
func NewServer(logger zerolog.Logger, db Pinger, services *core.Services, sched *scheduler.Scheduler) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		services:  services,
		db:        db,
		scheduler: sched,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	auth := handler.NewAuth(s.services.Auth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.services.Auth))

			r.Post("/auth/logout", auth.Logout)
			r.Get("/auth/me", auth.Me)

			// Sites
			site := handler.NewSite(s.services.Site)
			r.Get("/sites", site.List)
			r.Post("/sites", site.Create)
			r.Get("/sites/{id}", site.Get)
			r.Delete("/sites/{id}", site.Delete)
			r.Put("/sites/{id}/status", site.SetStatus)
			r.Post("/sites/{id}/update", site.Update)

			// Security scans
			scan := handler.NewSecurityScan(s.services.SecurityScan, s.services.Site)
			r.Get("/sites/{id}/security-scans", scan.List)
			r.Post("/sites/{id}/security-scans", scan.Create)

			// TLS
			ssl := handler.NewSSL(s.services.SSL)
			r.Post("/ssl/renew", ssl.Renew)
			r.Get("/ssl/certificates", ssl.Certificates)
			r.Post("/ssl/{siteID}/enable", ssl.Enable)
			r.Post("/ssl/{siteID}/disable", ssl.Disable)
			r.Get("/ssl/{siteID}/status", ssl.Status)

			// Backups
			backup := handler.NewBackup(s.services.Backup)
			r.Post("/backups/cleanup", backup.Cleanup)
			r.Post("/backups/{siteID}", backup.Create)
			r.Get("/backups/{siteID}", backup.ListFiles)
			r.Get("/backups/{siteID}/records", backup.ListRecords)
			r.Post("/backups/{siteID}/restore", backup.Restore)
			r.Delete("/backups/{siteID}/{file}", backup.Delete)

			// Stats
			stats := handler.NewStats(s.services.Stats)
			r.Get("/stats/system", stats.System)
			r.Get("/stats/sites", stats.Sites)
			r.Get("/stats/backups", stats.Backups)
			r.Get("/stats/security", stats.Security)
			r.Get("/stats/overview", stats.Overview)

			// Settings
			settings := handler.NewSettings(s.services.Settings)
			r.Get("/settings", settings.Get)
			r.Put("/settings", settings.Update)

			// Scheduled jobs
			r.Get("/jobs", s.handleJobs)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	if s.scheduler == nil {
		response.WriteJSON(w, http.StatusOK, []scheduler.Entry{})
		return
	}
	response.WriteJSON(w, http.StatusOK, s.scheduler.Entries())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
