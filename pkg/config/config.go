package config

import "time"

// Config is the complete rating engine configuration.
type Config struct {
	// Engine configures pricing runs.
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`

	// Storage configures the coefficient store.
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`

	// Catalog configures where calculator models are loaded from.
	Catalog CatalogConfig `yaml:"catalog" envPrefix:"CATALOG_"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// EngineConfig configures pricing runs.
type EngineConfig struct {
	// Tenant scopes coefficient tables.
	// Default: "default"
	Tenant string `yaml:"tenant" env:"TENANT"`

	// OutputPath is the document path results without a calculator-scoped
	// definition are written under.
	// Default: "rating"
	OutputPath string `yaml:"output_path" env:"OUTPUT_PATH"`
}

// StorageConfig configures the coefficient store.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// Driver is the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver" env:"DRIVER"`

	// Path is the SQLite database file.
	// Default: "data/coefficients.db"
	Path string `yaml:"path" env:"PATH"`

	// BusyTimeout is how long SQLite waits for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// CatalogConfig configures model loading.
type CatalogConfig struct {
	// Dir is the catalog directory.
	// Default: "./catalog"
	Dir string `yaml:"dir" env:"DIR"`

	// Watch reloads the catalog when files change.
	Watch bool `yaml:"watch" env:"WATCH"`

	// Debounce is the quiet period before a reload.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// TelemetryConfig configures logging, metrics and tracing.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is json or text.
	// Default: "text"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource adds source file and line to every record.
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Namespace prefixes every metric name.
	// Default: "rating"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// Subsystem is the second metric name component.
	// Default: "engine"
	Subsystem string `yaml:"subsystem" env:"SUBSYSTEM"`

	// Textfile, when set, receives the metrics in Prometheus text format
	// after each command, for the node exporter textfile collector.
	Textfile string `yaml:"textfile" env:"TEXTFILE"`
}

// TracingConfig configures OpenTelemetry tracing of pricing runs.
type TracingConfig struct {
	// Enabled turns span export on. When off spans are no-ops.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Sampler is always, never or ratio.
	// Default: "always"
	Sampler string `yaml:"sampler" env:"SAMPLER"`

	// SampleRatio is the sampled fraction for the ratio sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "rating"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}
