// Package metrics provides Prometheus metrics for the rating engine.
//
// # Metrics
//
// Runs:
//   - rating_engine_runs_total{calculator, status}
//   - rating_engine_run_duration_seconds{calculator}
//   - rating_engine_formula_lines_total{calculator, outcome}
//
// Lookups:
//   - rating_engine_coefficient_lookups_total{code, outcome}
//   - rating_engine_variable_resolutions_total{source, outcome}
//
// The Collector implements the recorder interfaces of the formula,
// coefficient and resolver packages, so it is handed to those components
// directly:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	resolver.SetMetrics(collector)
//	interp := formula.NewInterpreter(resolver, formula.WithMetrics(collector))
//
// Every metric lives on the collector's own registry, never the global one.
package metrics
