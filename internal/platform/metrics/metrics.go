package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Ledger entries committed, by transaction type",
		},
		[]string{"type"},
	)
	BusinessRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_business_rejections_total",
			Help: "Operations rejected by a business rule",
		},
		[]string{"reason"},
	)

	// Executor
	ExecutorRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "executor_retries_total",
			Help: "Units of work re-run after a transient store conflict",
		},
	)
	ExecutorFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "executor_failures_total",
			Help: "Units of work that exhausted their attempts",
		},
	)

	// Accrual
	AccrualPositionsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accrual_positions_credited_total",
			Help: "Positions credited with profit",
		},
		[]string{"kind"}, // machine|share
	)
	AccrualRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accrual_runs_total",
			Help: "Accrual batches run, by result",
		},
		[]string{"result"},
	)

	// Notifications
	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because the queue was full or delivery failed",
		},
	)
	NotificationQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Current notification queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

var initOnce sync.Once

// Init registers every collector with the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			TransactionsTotal,
			BusinessRejections,
			ExecutorRetries,
			ExecutorFailures,
			AccrualPositionsCredited,
			AccrualRuns,
			NotificationsDropped,
			NotificationQueueDepth,
		)
	})
}
