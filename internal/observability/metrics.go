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
	// Run metrics
	RunsStarted   prometheus.Counter
	RunsCompleted *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Simulation metrics
	TradesSimulated  prometheus.Counter
	TradesRejected   *prometheus.CounterVec
	TradesFailed     prometheus.Counter
	EmergencyStops   prometheus.Counter
	CurrentCapital   prometheus.Gauge
	ProgressReported prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "arb_backtest_lab"
	}

	return &Metrics{
		// Run metrics
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "started_total",
			Help:      "Total number of backtest runs started",
		}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "completed_total",
			Help:      "Total number of backtest runs completed by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Simulation metrics
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades executed in simulation",
		}),
		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_rejected_total",
			Help:      "Total number of trades rejected by the risk gate",
		}, []string{"reason"}),
		TradesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_failed_total",
			Help:      "Total number of trades that failed the execution draw",
		}),
		EmergencyStops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "emergency_stops_total",
			Help:      "Total number of runs halted by the drawdown limit",
		}),
		CurrentCapital: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "current_capital",
			Help:      "Capital of the most recent progress update",
		}),
		ProgressReported: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "progress_pct",
			Help:      "Progress percent of the running backtest",
		}),

		// Database metrics
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

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRunStart increments the runs started counter.
func (m *Metrics) RecordRunStart() {
	m.RunsStarted.Inc()
}

// RecordRunEnd records a completed run with its final state and duration.
func (m *Metrics) RecordRunEnd(status string, durationSeconds float64) {
	m.RunsCompleted.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
	if status == "completed" {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordProgress updates the live-run gauges.
func (m *Metrics) RecordProgress(progressPct, capital float64) {
	m.ProgressReported.Set(progressPct)
	m.CurrentCapital.Set(capital)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
