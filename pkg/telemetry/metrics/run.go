package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rating/pkg/config"
)

// RunMetrics tracks calculator runs and their formula lines.
type RunMetrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	linesTotal  *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of calculator runs",
			},
			[]string{"calculator", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of calculator runs in seconds",
				// 10µs to ~0.3s; runs are in-process
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
			},
			[]string{"calculator"},
		),

		linesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "formula_lines_total",
				Help:      "Total number of formula lines by outcome",
			},
			[]string{"calculator", "outcome"},
		),
	}

	registry.MustRegister(rm.runsTotal, rm.runDuration, rm.linesTotal)
	return rm
}

// RecordRun records one run.
func (rm *RunMetrics) RecordRun(calculator, status string, duration time.Duration) {
	rm.runsTotal.WithLabelValues(calculator, status).Inc()
	rm.runDuration.WithLabelValues(calculator).Observe(duration.Seconds())
}

// RecordLine records one line outcome.
func (rm *RunMetrics) RecordLine(calculator, outcome string) {
	rm.linesTotal.WithLabelValues(calculator, outcome).Inc()
}
