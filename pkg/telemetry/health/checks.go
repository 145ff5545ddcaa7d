package health

import (
	"context"
	"fmt"
	"os"

	"mercator-hq/rating/pkg/catalog"
	"mercator-hq/rating/pkg/coefficient"
)

// CatalogCheck reports whether the catalog loaded by store is consistent.
func CatalogCheck(store *catalog.Store) CheckFunc {
	return func(ctx context.Context) error {
		c := store.Current()
		if c == nil {
			return fmt.Errorf("no catalog loaded")
		}
		return c.Validate()
	}
}

// StorageCheck reports whether every coefficient table of the catalog is
// readable from backend and holds as many rows as the catalog declares.
func StorageCheck(store *catalog.Store, backend coefficient.Backend, tenant string) CheckFunc {
	return func(ctx context.Context) error {
		for _, t := range store.Current().Tables {
			scope := coefficient.Scope{Tenant: tenant, CalculatorID: t.Calculator, Code: t.Code}
			rows, err := backend.List(ctx, scope)
			if err != nil {
				return fmt.Errorf("table %s/%s: %w", t.Calculator, t.Code, err)
			}
			if len(rows) != len(t.Rows) {
				return fmt.Errorf("table %s/%s: %d row(s) stored, %d declared", t.Calculator, t.Code, len(rows), len(t.Rows))
			}
		}
		return nil
	}
}

// WritableCheck reports whether path can be created or appended to.
func WritableCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		return f.Close()
	}
}
