package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Account metrics
	AccountsCreated   prometheus.Counter
	BalanceRecomputes prometheus.Counter

	// Ledger entry metrics
	EntriesCreated   *prometheus.CounterVec
	EntriesCancelled prometheus.Counter
	CodeRetries      prometheus.Counter
	CodeExhaustions  prometheus.Counter

	// Receivable metrics
	ReceivablesCreated   prometheus.Counter
	AccrualsApplied      prometheus.Counter
	AccrualSweepDuration prometheus.Histogram
	PaymentsRegistered   prometheus.Counter
	OverpaymentClamps    prometheus.Counter
	SplitsPerformed      prometheus.Counter

	// Outbox metrics
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		BalanceRecomputes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_balance_recomputes_total",
			Help: "Total number of account balance recomputations",
		}),

		EntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_entries_created_total",
				Help: "Total number of ledger entries created by type",
			},
			[]string{"type"},
		),
		EntriesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_entries_cancelled_total",
			Help: "Total number of ledger entries cancelled",
		}),
		CodeRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_entry_code_retries_total",
			Help: "Total number of entry code generation retries after a unique violation",
		}),
		CodeExhaustions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_entry_code_exhaustions_total",
			Help: "Total number of entry creations that exhausted all code generation attempts",
		}),

		ReceivablesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_receivables_created_total",
			Help: "Total number of receivables created",
		}),
		AccrualsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_interest_accruals_total",
			Help: "Total number of interest accruals applied",
		}),
		AccrualSweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "treasury_accrual_sweep_duration_seconds",
			Help:    "Duration of interest accrual sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_payments_registered_total",
			Help: "Total number of receivable payments registered",
		}),
		OverpaymentClamps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_overpayment_clamps_total",
			Help: "Total number of payments clamped to the pending amount",
		}),
		SplitsPerformed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_installment_splits_total",
			Help: "Total number of receivables split into installments",
		}),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_outbox_events_published_total",
			Help: "Total number of outbox events published",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "treasury_outbox_publish_errors_total",
			Help: "Total number of outbox publish failures",
		}),
	}
}
