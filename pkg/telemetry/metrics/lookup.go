package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rating/pkg/config"
)

// LookupMetrics tracks coefficient lookups and variable resolutions.
type LookupMetrics struct {
	coefficientLookups *prometheus.CounterVec
	resolutions        *prometheus.CounterVec
}

// NewLookupMetrics creates and registers lookup metrics.
func NewLookupMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LookupMetrics {
	lm := &LookupMetrics{
		coefficientLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "coefficient_lookups_total",
				Help:      "Total number of coefficient lookups by outcome",
			},
			[]string{"code", "outcome"},
		),

		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "variable_resolutions_total",
				Help:      "Total number of variable resolutions by source kind and outcome",
			},
			[]string{"source", "outcome"},
		),
	}

	registry.MustRegister(lm.coefficientLookups, lm.resolutions)
	return lm
}

// RecordCoefficient records one coefficient lookup.
func (lm *LookupMetrics) RecordCoefficient(code, outcome string) {
	lm.coefficientLookups.WithLabelValues(code, outcome).Inc()
}

// RecordResolution records one variable resolution.
func (lm *LookupMetrics) RecordResolution(source, outcome string) {
	lm.resolutions.WithLabelValues(source, outcome).Inc()
}
