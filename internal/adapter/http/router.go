package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/printdesk/treasury/internal/adapter/http/handler"
	"github.com/printdesk/treasury/internal/adapter/http/middleware"
	"github.com/printdesk/treasury/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler    *handler.AccountHandler
	EntryHandler      *handler.EntryHandler
	ReceivableHandler *handler.ReceivableHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	IdempotencyTTL    time.Duration
	RateLimiter       *middleware.RateLimiter
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/default", cfg.AccountHandler.GetDefault)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Post("/{id}/default", cfg.AccountHandler.SetDefault)
			r.Post("/{id}/recompute", cfg.AccountHandler.Recompute)
			r.Post("/{id}/deactivate", cfg.AccountHandler.Deactivate)
			r.Delete("/{id}", cfg.AccountHandler.Delete)
		})

		// Ledger entries
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Patch("/{id}", cfg.EntryHandler.Update)
			r.Delete("/{id}", cfg.EntryHandler.Delete)
			r.Post("/{id}/reconcile", cfg.EntryHandler.Reconcile)
			r.Post("/{id}/unreconcile", cfg.EntryHandler.Unreconcile)
			r.Post("/{id}/cancel", cfg.EntryHandler.Cancel)
		})

		// Receivables
		r.Route("/receivables", func(r chi.Router) {
			r.Post("/", cfg.ReceivableHandler.Create)
			r.Get("/", cfg.ReceivableHandler.List)
			r.Get("/{id}", cfg.ReceivableHandler.Get)
			r.Get("/{id}/installments", cfg.ReceivableHandler.ListInstallments)
			r.Post("/{id}/accrue", cfg.ReceivableHandler.Accrue)
			r.Post("/{id}/payments", cfg.ReceivableHandler.Pay)
			r.Post("/{id}/split", cfg.ReceivableHandler.Split)
		})
	})

	return r
}
