package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rating/pkg/config"
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// DefaultMaxCardinality bounds the distinct coefficient codes tracked.
const DefaultMaxCardinality = 10000

// Collector records every rating metric.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics    *RunMetrics
	lookupMetrics *LookupMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		runMetrics:         NewRunMetrics(cfg, registry),
		lookupMetrics:      NewLookupMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxCardinality),
	}
}

// RecordRun records a completed calculator run.
func (c *Collector) RecordRun(calculator, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordRun(calculator, status, duration)
}

// RecordLine records the outcome of one formula line.
func (c *Collector) RecordLine(calculator, outcome string) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordLine(calculator, outcome)
}

// RecordCoefficientLookup records a coefficient lookup outcome.
func (c *Collector) RecordCoefficientLookup(code, outcome string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("lookup:%s:%s", code, outcome)) {
		code = OtherLabel
	}
	c.lookupMetrics.RecordCoefficient(code, outcome)
}

// RecordResolution records a variable resolution outcome.
func (c *Collector) RecordResolution(source, outcome string) {
	if !c.config.Enabled {
		return
	}
	c.lookupMetrics.RecordResolution(source, outcome)
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format, replacing the file atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}

// CardinalityLimiter bounds the number of distinct label sets.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter for maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or still fits.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	_, exists := cl.current[labelSet]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of tracked label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
