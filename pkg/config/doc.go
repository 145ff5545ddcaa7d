// Package config provides configuration for the rating engine.
//
// Configuration is read from a YAML file, completed with defaults and
// validated. LoadConfigWithEnvOverrides additionally applies environment
// variables named RATING_SECTION_FIELD, which take precedence over the file:
//
//   - RATING_ENGINE_TENANT overrides engine.tenant
//   - RATING_STORAGE_PATH overrides storage.path
//   - RATING_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Example Configuration
//
//	engine:
//	  tenant: "acme"
//	  output_path: "rating"
//
//	storage:
//	  backend: "sqlite"
//	  path: "data/coefficients.db"
//
//	catalog:
//	  dir: "./catalog"
//	  watch: true
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  tracing:
//	    enabled: true
//	    sampler: "ratio"
//	    sample_ratio: 0.1
//	    endpoint: "otel-collector:4317"
//
// Validation collects every problem into a ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - storage.backend: must be one of: memory, sqlite
//	  - telemetry.logging.level: must be one of: debug, info, warn, error
package config
