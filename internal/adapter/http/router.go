package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nxfinance/loans/internal/adapter/http/handler"
	"github.com/nxfinance/loans/internal/adapter/http/middleware"
	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/metrics"
	"github.com/nxfinance/loans/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	HealthHandler         *handler.HealthHandler
	LoanTypeHandler       *handler.LoanTypeHandler
	LoanHandler           *handler.LoanHandler
	PaymentHandler        *handler.PaymentHandler
	ReconciliationHandler *handler.ReconciliationHandler

	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	// TokenVerifier enables bearer authentication when set.
	TokenVerifier  middleware.TokenVerifier
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Loan products
		r.Get("/loan-types", cfg.LoanTypeHandler.List)
		r.Get("/loan-types/{id}", cfg.LoanTypeHandler.Get)

		// Loans
		r.Post("/loans", cfg.LoanHandler.Apply)
		r.Get("/loans/{id}", cfg.LoanHandler.Get)
		r.Get("/loans/{id}/schedule", cfg.PaymentHandler.GetSchedule)
		r.Get("/loans/{id}/payments", cfg.PaymentHandler.ListPayments)
		r.Post("/loans/{id}/payments", cfg.PaymentHandler.MakePayment)
		r.Get("/customers/{id}/loans", cfg.LoanHandler.ListByCustomer)

		// Back office
		r.Route("/admin", func(r chi.Router) {
			if cfg.TokenVerifier != nil {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
			}

			r.Get("/loans", cfg.LoanHandler.ListByStatus)
			r.Post("/loans/{id}/approve", cfg.LoanHandler.Approve)
			r.Post("/loans/{id}/reject", cfg.LoanHandler.Reject)
			r.Post("/loans/{id}/default", cfg.LoanHandler.MarkDefaulted)
			r.Get("/loans/{id}/consistency", cfg.ReconciliationHandler.CheckLoan)
			r.Get("/reconciliation", cfg.ReconciliationHandler.Report)
		})
	})

	return r
}
