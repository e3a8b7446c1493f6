package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/cloudscan/internal/config"
	"github.com/crucial707/cloudscan/internal/handlers"
	"github.com/crucial707/cloudscan/internal/middleware"
	"github.com/crucial707/cloudscan/internal/repo"
)

// newRouter builds the full HTTP API over the given DB handle. Split from main
// so the integration tests can mount it on httptest with a sqlmock DB.
func newRouter(database *sql.DB, cfg config.Config, trigger handlers.ScanTrigger) http.Handler {
	accountRepo := repo.NewAccountRepo(database)
	auditRepo := repo.NewAuditRepo(database)
	scanLogRepo := repo.NewScanLogRepo(database)
	settingsRepo := repo.NewSettingsRepo(database)
	userRepo := repo.NewUserRepo(database)

	auth := &handlers.AuthHandler{UserRepo: userRepo, Secret: []byte(cfg.JWTSecret), ExpireHours: cfg.JWTExpireHours}
	accounts := &handlers.AccountHandler{Repo: accountRepo}
	audits := &handlers.AuditHandler{Repo: auditRepo}
	scans := &handlers.ScanHandler{Scheduler: trigger}
	scanLog := &handlers.ScanLogHandler{Repo: scanLogRepo}
	settings := &handlers.SettingsHandler{Repo: settingsRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/v1/auth/register", auth.Register)
		r.Post("/v1/auth/login", auth.Login)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Get("/accounts", accounts.List)
		r.Post("/accounts", accounts.Create)
		r.Route("/accounts/{provider}/{id}", func(r chi.Router) {
			r.Get("/", accounts.Get)
			r.Delete("/", accounts.Delete)
			r.Put("/schedule", accounts.UpdateSchedule)
			r.Post("/scan", scans.Trigger)
			r.Get("/audits", audits.ListByAccount)
		})

		r.Get("/audits/{id}", audits.Get)
		r.Get("/scan-log", scanLog.List)

		r.Get("/settings/notifications", settings.Get)
		r.Put("/settings/notifications", settings.Put)
	})

	return r
}
