package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rating/pkg/catalog"
	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/config"
	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/pricing"
	"mercator-hq/rating/pkg/telemetry/metrics"
	"mercator-hq/rating/pkg/telemetry/tracing"
	"mercator-hq/rating/pkg/variables/magic"
)

// engine wires the catalog, coefficient store and pricing service of one
// command invocation.
type engine struct {
	cfg    *config.Config
	logger *slog.Logger

	store        *catalog.Store
	backend      coefficient.Backend
	coefficients *coefficient.Resolver
	pricing      *pricing.Service
	metrics      *metrics.Collector
	tracer       *tracing.Tracer
}

// openEngine loads the catalog, opens the coefficient store and seeds the
// configured tenant's tables into it.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	store, err := catalog.NewStore(cfg.Catalog.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		tracer.Shutdown(ctx)
		return nil, err
	}

	if err := store.SeedInto(ctx, backend, cfg.Engine.Tenant); err != nil {
		backend.Close()
		tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to seed coefficient tables: %w", err)
	}

	e := &engine{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		backend:      backend,
		coefficients: coefficient.NewResolver(backend, logger),
		tracer:       tracer,
	}
	e.coefficients.SetTracer(tracer.Tracer())

	interpOpts := []formula.Option{
		formula.WithLogger(logger),
		formula.WithTracer(tracer.Tracer()),
	}
	pricingOpts := []pricing.Option{
		pricing.WithLogger(logger),
		pricing.WithOutputPath(cfg.Engine.OutputPath),
		pricing.WithMagic(magic.Default()),
		pricing.WithTracer(tracer.Tracer()),
	}
	if cfg.Telemetry.Metrics.Enabled {
		e.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		e.coefficients.SetMetrics(e.metrics)
		interpOpts = append(interpOpts, formula.WithMetrics(e.metrics))
		pricingOpts = append(pricingOpts, pricing.WithResolutionMetrics(e.metrics))
	}

	e.pricing = pricing.NewService(formula.NewInterpreter(e.coefficients, interpOpts...), pricingOpts...)
	return e, nil
}

// openBackend opens the coefficient store selected by cfg.
func openBackend(cfg config.StorageConfig) (coefficient.Backend, error) {
	switch cfg.Backend {
	case config.StorageBackendMemory:
		return coefficient.NewMemoryBackend(), nil
	case config.StorageBackendSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
		backend, err := coefficient.OpenSQLite(coefficient.SQLiteConfig{
			Path:        cfg.Path,
			Driver:      cfg.Driver,
			BusyTimeout: cfg.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open coefficient store: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}

// Close flushes metrics to the configured textfile, flushes pending spans
// and closes the store.
func (e *engine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Telemetry.Tracing.Timeout)
	defer cancel()

	errs := []error{e.tracer.Shutdown(ctx)}
	if e.metrics != nil && e.cfg.Telemetry.Metrics.Textfile != "" {
		errs = append(errs, e.metrics.WriteTextfile(e.cfg.Telemetry.Metrics.Textfile))
	}
	errs = append(errs, e.backend.Close())
	return errors.Join(errs...)
}
