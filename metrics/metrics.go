package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ispwallet_ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "transaction_type", "status"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ispwallet_ledger_operation_duration_seconds",
			Help:    "Ledger operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	VersionConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ispwallet_version_conflicts_total",
			Help: "Total number of optimistic lock conflicts on wallet updates",
		},
	)

	InsufficientBalanceTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ispwallet_insufficient_balance_total",
			Help: "Total number of debits rejected for insufficient balance",
		},
	)

	ActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ispwallet_activations_total",
			Help: "Total number of subscription activations settled",
		},
		[]string{"activation_type", "payment_method"},
	)

	ActivationRollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ispwallet_activation_rollbacks_total",
			Help: "Total number of activation rollbacks",
		},
	)

	CashbackAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ispwallet_cashback_awarded_total",
			Help: "Total number of cashback credits awarded",
		},
		[]string{"source"},
	)

	TopUpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ispwallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
		[]string{"status"},
	)
)

// ObserveLedgerOperation records the duration of one ledger mutation.
// Call with a deferred `metrics.ObserveLedgerOperation(op, time.Now())`.
func ObserveLedgerOperation(operation string, start time.Time) {
	LedgerOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
