package catalog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"mercator-hq/rating/pkg/coefficient"
)

// Store holds the current catalog of a directory and reloads it on demand.
// Readers never see a partially loaded catalog.
type Store struct {
	dir     string
	current atomic.Pointer[Catalog]
	logger  *slog.Logger

	// backend and tenant receive coefficient tables on every reload when set.
	backend coefficient.Backend
	tenant  string

	mu sync.Mutex
}

// NewStore loads dir and returns a store holding the result.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// SeedInto makes every reload also seed the coefficient tables of tenant
// into backend, starting with the current catalog.
func (s *Store) SeedInto(ctx context.Context, backend coefficient.Backend, tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.backend = backend
	s.tenant = tenant
	_, err := s.Current().Seed(ctx, backend, tenant)
	return err
}

// Current returns the current catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload loads the directory again. On failure the current catalog stays in
// place.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := Load(s.dir)
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		s.logger.Error("Catalog reload failed", "dir", s.dir, "error", err)
		return err
	}

	if s.backend != nil {
		rows, err := c.Seed(ctx, s.backend, s.tenant)
		if err != nil {
			s.logger.Error("Coefficient seeding failed", "dir", s.dir, "error", err)
			return err
		}
		pruned, err := c.Prune(ctx, s.backend, s.tenant, s.current.Load())
		if err != nil {
			s.logger.Error("Coefficient pruning failed", "dir", s.dir, "error", err)
			return err
		}
		s.logger.Debug("Coefficient tables seeded", "tenant", s.tenant, "rows", rows, "pruned", pruned)
	}

	s.current.Store(c)
	s.logger.Info("Catalog loaded",
		"dir", s.dir,
		"calculators", len(c.Calculators),
		"products", len(c.Definitions),
		"tables", len(c.Tables),
	)
	return nil
}
