package config

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "storage.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error of a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks cfg and returns a ValidationError listing every problem,
// or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// metricName matches valid Prometheus name components.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(cfg.Tenant) == "" {
		errs = append(errs, FieldError{Field: "engine.tenant", Message: "field is required"})
	}
	if strings.HasPrefix(cfg.OutputPath, ".") || strings.HasSuffix(cfg.OutputPath, ".") {
		errs = append(errs, FieldError{Field: "engine.output_path", Message: "must not start or end with a dot"})
	}
	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case StorageBackendMemory:
		return nil
	case StorageBackendSQLite:
	default:
		return append(errs, FieldError{Field: "storage.backend", Message: "must be one of: memory, sqlite"})
	}

	if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
		errs = append(errs, FieldError{Field: "storage.driver", Message: "must be one of: sqlite, sqlite3"})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "storage.path", Message: "field is required"})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "storage.busy_timeout", Message: "must not be negative"})
	}
	return errs
}

func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError
	if cfg.Dir == "" {
		errs = append(errs, FieldError{Field: "catalog.dir", Message: "field is required"})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{Field: "catalog.debounce", Message: "must not be negative"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: "must be one of: debug, info, warn, error"})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: "must be one of: json, text"})
	}

	if !metricName.MatchString(cfg.Metrics.Namespace) {
		errs = append(errs, FieldError{Field: "telemetry.metrics.namespace", Message: "must be a valid metric name"})
	}
	if !metricName.MatchString(cfg.Metrics.Subsystem) {
		errs = append(errs, FieldError{Field: "telemetry.metrics.subsystem", Message: "must be a valid metric name"})
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: "must be one of: always, never, ratio"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "field is required when tracing is enabled"})
	}
	if cfg.Tracing.Timeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.timeout", Message: "must not be negative"})
	}
	return errs
}
