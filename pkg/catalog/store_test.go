package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rating/pkg/coefficient"
)

var rateScope = coefficient.Scope{Tenant: "acme", CalculatorID: "motor-v1", Code: "rate"}

// replaceFailingBackend refuses every Replace, leaving stored rows alone.
type replaceFailingBackend struct {
	*coefficient.MemoryBackend
}

func (b replaceFailingBackend) Replace(ctx context.Context, scope coefficient.Scope, rows []coefficient.Row) error {
	return errors.New("disk full")
}

func seededStore(t *testing.T, dir string, backend coefficient.Backend) *Store {
	t.Helper()

	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.SeedInto(context.Background(), backend, "acme"); err != nil {
		t.Fatalf("SeedInto failed: %v", err)
	}
	return store
}

func TestStore_ReloadPrunesRemovedTables(t *testing.T) {
	dir := writeFiles(t, validFiles())
	backend := coefficient.NewMemoryBackend()
	store := seededStore(t, dir, backend)
	ctx := context.Background()

	if err := os.Remove(filepath.Join(dir, "coefficients/rates.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if n := len(store.Current().Tables); n != 0 {
		t.Errorf("catalog has %d tables, want 0", n)
	}
	rows, err := backend.List(ctx, rateScope)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("removed table still stored: %v", rows)
	}
}

func TestStore_ReloadReplacesChangedTables(t *testing.T) {
	dir := writeFiles(t, validFiles())
	backend := coefficient.NewMemoryBackend()
	store := seededStore(t, dir, backend)
	ctx := context.Background()

	changed := "kind: coefficients\ncalculator: motor-v1\ncode: rate\nrows:\n  - when: [APAC]\n    result: \"0.30\"\n"
	if err := os.WriteFile(filepath.Join(dir, "coefficients/rates.yaml"), []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	rows, err := backend.List(ctx, rateScope)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []coefficient.Row{{Columns: []string{"APAC"}, Result: "0.30"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("stored rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ReloadKeepsTablesOnSeedFailure(t *testing.T) {
	dir := writeFiles(t, validFiles())
	memory := coefficient.NewMemoryBackend()
	store := seededStore(t, dir, memory)
	before := store.Current()
	ctx := context.Background()

	// Later reloads seed through a backend whose replace fails.
	store.backend = replaceFailingBackend{memory}

	if err := store.Reload(ctx); err == nil {
		t.Fatal("expected reload error")
	}
	if store.Current() != before {
		t.Error("failed seeding replaced the catalog")
	}

	rows, err := memory.List(ctx, rateScope)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("table has %d rows after failed reload, want 2", len(rows))
	}
}
