// Package telemetry groups the observability packages of the rating engine.
//
//   - logging: slog handler construction from configuration
//   - metrics: Prometheus collectors for pricing runs and coefficient lookups
//   - tracing: OpenTelemetry spans for quotes, formula runs and lookups
//   - health: readiness checks for the catalog and coefficient store
//
// Each package is configured from config.TelemetryConfig and is optional:
// the engine runs with a discarding logger, no metrics and a no-op tracer.
package telemetry
