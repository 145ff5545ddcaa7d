package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  tenant: "acme"
storage:
  backend: "sqlite"
  driver: "sqlite3"
  path: "/tmp/coefficients.db"
  busy_timeout: "2s"
catalog:
  dir: "./models"
  watch: true
telemetry:
  logging:
    level: "debug"
    format: "json"
  metrics:
    enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.Tenant != "acme" {
		t.Errorf("expected tenant %q, got %q", "acme", cfg.Engine.Tenant)
	}
	if cfg.Engine.OutputPath != DefaultOutputPath {
		t.Errorf("expected default output path, got %q", cfg.Engine.OutputPath)
	}
	if cfg.Storage.Driver != "sqlite3" || cfg.Storage.BusyTimeout != 2*time.Second {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if !cfg.Catalog.Watch || cfg.Catalog.Debounce != DefaultCatalogDebounce {
		t.Errorf("unexpected catalog config: %+v", cfg.Catalog)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Telemetry.Logging)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("unexpected metrics config: %+v", cfg.Telemetry.Metrics)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := LoadConfig(writeConfig(t, "engine: [")); err == nil {
		t.Error("expected error for invalid YAML")
	}

	_, err := LoadConfig(writeConfig(t, `
storage:
  backend: "postgres"
telemetry:
  logging:
    level: "verbose"
`))
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration is invalid: %v", err)
	}
	if cfg.Storage.Backend != DefaultStorageBackend || cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty tenant", func(c *Config) { c.Engine.Tenant = " " }, "engine.tenant"},
		{"dotted output path", func(c *Config) { c.Engine.OutputPath = "rating." }, "engine.output_path"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "pg" }, "storage.driver"},
		{"empty sqlite path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"negative busy timeout", func(c *Config) { c.Storage.BusyTimeout = -time.Second }, "storage.busy_timeout"},
		{"empty catalog dir", func(c *Config) { c.Catalog.Dir = "" }, "catalog.dir"},
		{"negative debounce", func(c *Config) { c.Catalog.Debounce = -1 }, "catalog.debounce"},
		{"unknown log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"bad namespace", func(c *Config) { c.Telemetry.Metrics.Namespace = "rating-engine" }, "telemetry.metrics.namespace"},
		{"unknown sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"ratio above one", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
		{"enabled without endpoint", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Endpoint = ""
		}, "telemetry.tracing.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Errors) != 1 || verr.Errors[0].Field != tt.field {
				t.Errorf("expected single error on %s, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidate_MemoryBackendIgnoresSQLiteFields(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Path = ""
	cfg.Storage.Driver = "unknown"

	if err := Validate(cfg); err != nil {
		t.Errorf("memory backend should not need sqlite settings: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
engine:
  tenant: "acme"
storage:
  path: "file.db"
`)

	t.Setenv("RATING_ENGINE_TENANT", "globex")
	t.Setenv("RATING_STORAGE_BACKEND", "memory")
	t.Setenv("RATING_CATALOG_WATCH", "true")
	t.Setenv("RATING_CATALOG_DEBOUNCE", "250ms")
	t.Setenv("RATING_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.Tenant != "globex" {
		t.Errorf("expected tenant override, got %q", cfg.Engine.Tenant)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected backend override, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "file.db" {
		t.Errorf("file value should survive without override, got %q", cfg.Storage.Path)
	}
	if !cfg.Catalog.Watch || cfg.Catalog.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected catalog config: %+v", cfg.Catalog)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level override, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("RATING_CATALOG_DIR", "/srv/catalog")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Catalog.Dir != "/srv/catalog" {
		t.Errorf("expected catalog dir override, got %q", cfg.Catalog.Dir)
	}
	if cfg.Engine.Tenant != DefaultTenant {
		t.Errorf("expected default tenant, got %q", cfg.Engine.Tenant)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("RATING_CATALOG_WATCH", "sometimes")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("expected environment override error, got %v", err)
	}
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	cfg, err := Initialize("")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if GetConfig() != cfg {
		t.Fatal("GetConfig does not return the initialized config")
	}

	cfg, err = Initialize("", func(c *Config) { c.Catalog.Dir = "/srv/catalog" })
	if err != nil {
		t.Fatalf("Initialize with override failed: %v", err)
	}
	if got := GetConfig().Catalog.Dir; got != "/srv/catalog" || cfg.Catalog.Dir != got {
		t.Errorf("catalog dir = %q, want /srv/catalog", got)
	}

	// An override that breaks validation leaves the stored config alone.
	before := GetConfig()
	if _, err := Initialize("", func(c *Config) { c.Telemetry.Logging.Level = "loud" }); err == nil {
		t.Fatal("expected validation error for invalid override")
	}
	if GetConfig() != before {
		t.Error("failed Initialize replaced the config")
	}
}
