package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Loan lifecycle metrics
	LoansApplied   *prometheus.CounterVec
	LoansApproved  prometheus.Counter
	LoansRejected  prometheus.Counter
	LoansDefaulted prometheus.Counter
	LoansCompleted prometheus.Counter
	LoanPrincipal  prometheus.Histogram
	LoanErrors     *prometheus.CounterVec

	// Payment metrics
	PaymentsApplied  prometheus.Counter
	PaymentAmount    prometheus.Histogram
	PaymentDuration  prometheus.Histogram
	PaymentErrors    *prometheus.CounterVec
	InterestRecorded prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Loan lifecycle metrics
		LoansApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_loans_applied_total",
				Help: "Total number of loan applications by loan type",
			},
			[]string{"loan_type"},
		),
		LoansApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_loans_approved_total",
			Help: "Total number of loans approved and disbursed",
		}),
		LoansRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_loans_rejected_total",
			Help: "Total number of loan applications rejected",
		}),
		LoansDefaulted: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_loans_defaulted_total",
			Help: "Total number of loans marked defaulted",
		}),
		LoansCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_loans_completed_total",
			Help: "Total number of loans fully repaid",
		}),
		LoanPrincipal: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nxfinance_loan_principal",
			Help:    "Disbursed loan principal amounts",
			Buckets: []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000, 500000},
		}),
		LoanErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_loan_errors_total",
				Help: "Total number of loan lifecycle errors by operation and kind",
			},
			[]string{"operation", "kind"},
		),

		// Payment metrics
		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_payments_applied_total",
			Help: "Total number of loan payments applied",
		}),
		PaymentAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nxfinance_payment_amount",
			Help:    "Applied loan payment amounts",
			Buckets: []float64{10, 100, 250, 500, 1000, 5000, 10000, 50000},
		}),
		PaymentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nxfinance_payment_duration_seconds",
			Help:    "Duration of payment operations",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_payment_errors_total",
				Help: "Total number of payment errors by kind",
			},
			[]string{"kind"},
		),
		InterestRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_interest_collected_total",
			Help: "Sum of interest portions of applied payments",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nxfinance_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_db_retries_total",
				Help: "Total transaction retries after serialization or deadlock failures",
			},
			[]string{"operation"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "nxfinance_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxfinance_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
