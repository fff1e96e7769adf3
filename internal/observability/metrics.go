// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run lifecycle metrics
	RunsStarted   *prometheus.CounterVec
	RunsCompleted *prometheus.CounterVec
	RunsCoalesced prometheus.Counter
	RunDuration   *prometheus.HistogramVec

	// Engine metrics
	BarsEvaluated   prometheus.Counter
	SignalsEmitted  *prometheus.CounterVec
	TradesSimulated *prometheus.CounterVec

	// Robustness metrics
	CheckDuration  *prometheus.HistogramVec
	GradesAssigned *prometheus.CounterVec

	// Storage metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Audit metrics
	AuditWriteFailures prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "options_edge_lab"
	}

	return &Metrics{
		// Run lifecycle metrics
		RunsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "started_total",
			Help:      "Total number of runs started by segment",
		}, []string{"segment"}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "completed_total",
			Help:      "Total number of runs reaching a terminal status",
		}, []string{"segment", "status"}),
		RunsCoalesced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "coalesced_total",
			Help:      "Total number of duplicate requests merged into an in-flight run",
		}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "End-to-end run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"segment"}),

		// Engine metrics
		BarsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bars_evaluated_total",
			Help:      "Total number of candles pushed through strategy rules",
		}),
		SignalsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_emitted_total",
			Help:      "Total number of entry signals by strategy",
		}, []string{"strategy"}),
		TradesSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_simulated_total",
			Help:      "Total number of simulated trades by strategy and outcome",
		}, []string{"strategy", "outcome"}),

		// Robustness metrics
		CheckDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "robustness",
			Name:      "check_duration_seconds",
			Help:      "Robustness check duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"check"}),
		GradesAssigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robustness",
			Name:      "grades_assigned_total",
			Help:      "Total number of composite grades assigned",
		}, []string{"grade"}),

		// Storage metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Audit metrics
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Total number of audit events dropped on write failure",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRunStarted increments the runs-started counter.
func RecordRunStarted(segment string) {
	DefaultMetrics.RunsStarted.WithLabelValues(segment).Inc()
}

// RecordRunCompleted records a terminal run with its duration.
func RecordRunCompleted(segment, status string, durationSeconds float64) {
	DefaultMetrics.RunsCompleted.WithLabelValues(segment, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(segment).Observe(durationSeconds)
}

// RecordRunCoalesced increments the coalesced-request counter.
func RecordRunCoalesced() {
	DefaultMetrics.RunsCoalesced.Inc()
}

// RecordBarsEvaluated adds to the bar throughput counter.
func RecordBarsEvaluated(n int) {
	DefaultMetrics.BarsEvaluated.Add(float64(n))
}

// RecordSignals records emitted entry signals per strategy.
func RecordSignals(strategy string, n int) {
	DefaultMetrics.SignalsEmitted.WithLabelValues(strategy).Add(float64(n))
}

// RecordCheckDuration records one robustness check's wall time.
func RecordCheckDuration(check string, seconds float64) {
	DefaultMetrics.CheckDuration.WithLabelValues(check).Observe(seconds)
}

// RecordTrades records simulated trades per outcome.
func RecordTrades(strategy, outcome string, n int) {
	DefaultMetrics.TradesSimulated.WithLabelValues(strategy, outcome).Add(float64(n))
}

// RecordGrade increments the grade counter.
func RecordGrade(grade string) {
	DefaultMetrics.GradesAssigned.WithLabelValues(grade).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordAuditDropped increments the audit write failure counter.
func RecordAuditDropped() {
	DefaultMetrics.AuditWriteFailures.Inc()
}
