package config

import "time"

// Storage backends.
const (
	StorageBackendMemory = "memory"
	StorageBackendSQLite = "sqlite"
)

// Default values for configuration fields.
const (
	DefaultTenant     = "default"
	DefaultOutputPath = "rating"

	DefaultStorageBackend     = StorageBackendSQLite
	DefaultStorageDriver      = "sqlite"
	DefaultStoragePath        = "data/coefficients.db"
	DefaultStorageBusyTimeout = 5 * time.Second

	DefaultCatalogDir      = "./catalog"
	DefaultCatalogDebounce = 100 * time.Millisecond

	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMetricsNamespace = "rating"
	DefaultMetricsSubsystem = "engine"

	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "rating"
	DefaultTracingTimeout     = 10 * time.Second
)

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	applyEngineDefaults(&cfg.Engine)
	applyStorageDefaults(&cfg.Storage)
	applyCatalogDefaults(&cfg.Catalog)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.Tenant == "" {
		cfg.Tenant = DefaultTenant
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultStorageBackend
	}
	if cfg.Driver == "" {
		cfg.Driver = DefaultStorageDriver
	}
	if cfg.Path == "" {
		cfg.Path = DefaultStoragePath
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultStorageBusyTimeout
	}
}

func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultCatalogDir
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultCatalogDebounce
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	// A zero ratio is indistinguishable from unset; use the never sampler
	// to drop every trace.
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
