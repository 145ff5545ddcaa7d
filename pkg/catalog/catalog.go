package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/variables"
)

// Table is the content of one coefficient table.
type Table struct {
	Calculator string
	Code       string
	Rows       []coefficient.Row
}

// Catalog is a loaded set of products, calculators and coefficient tables.
// It is not modified after Load returns.
type Catalog struct {
	Definitions map[string]*variables.Registry
	Calculators map[string]*formula.Model
	Tables      []Table

	// products maps calculator id to product.
	products map[string]string
}

func newCatalog() *Catalog {
	return &Catalog{
		Definitions: make(map[string]*variables.Registry),
		Calculators: make(map[string]*formula.Model),
		products:    make(map[string]string),
	}
}

// Calculator returns a calculator model and the definitions of its
// product. defs is nil when the calculator names no known product.
func (c *Catalog) Calculator(id string) (model *formula.Model, defs *variables.Registry, ok bool) {
	model, ok = c.Calculators[id]
	if !ok {
		return nil, nil, false
	}
	return model, c.Definitions[c.products[id]], true
}

// CalculatorIDs returns the calculator ids in sorted order.
func (c *Catalog) CalculatorIDs() []string {
	ids := make([]string, 0, len(c.Calculators))
	for id := range c.Calculators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks references between files: calculator products and the
// calculators and coefficients coefficient tables belong to.
func (c *Catalog) Validate() error {
	var errs []error

	for _, id := range c.CalculatorIDs() {
		product := c.products[id]
		if product == "" {
			continue
		}
		if _, ok := c.Definitions[product]; !ok {
			errs = append(errs, fmt.Errorf("calculator %q: unknown product %q", id, product))
		}
	}

	seen := make(map[tableKey]bool, len(c.Tables))
	for _, t := range c.Tables {
		key := tableKey{t.Calculator, t.Code}
		if seen[key] {
			errs = append(errs, fmt.Errorf("coefficient table %q of calculator %q is defined more than once", t.Code, t.Calculator))
			continue
		}
		seen[key] = true

		model, ok := c.Calculators[t.Calculator]
		if !ok {
			errs = append(errs, fmt.Errorf("coefficient table %q: unknown calculator %q", t.Code, t.Calculator))
			continue
		}
		if _, ok := model.Coefficient(t.Code); !ok {
			errs = append(errs, fmt.Errorf("coefficient table %q: calculator %q declares no such coefficient", t.Code, t.Calculator))
		}
	}

	return errors.Join(errs...)
}

// Seed replaces the coefficient tables of tenant in backend with the
// catalog's tables, one table at a time. It returns the number of rows
// written.
func (c *Catalog) Seed(ctx context.Context, backend coefficient.Backend, tenant string) (int, error) {
	rows := 0
	for _, t := range c.Tables {
		scope := coefficient.Scope{Tenant: tenant, CalculatorID: t.Calculator, Code: t.Code}
		if err := backend.Replace(ctx, scope, t.Rows); err != nil {
			return rows, fmt.Errorf("failed to seed %s/%s: %w", t.Calculator, t.Code, err)
		}
		rows += len(t.Rows)
	}
	return rows, nil
}

// Prune deletes the tables of tenant that prev declared and c no longer
// does. It returns the number of rows removed.
func (c *Catalog) Prune(ctx context.Context, backend coefficient.Backend, tenant string, prev *Catalog) (int64, error) {
	if prev == nil {
		return 0, nil
	}

	keep := make(map[tableKey]bool, len(c.Tables))
	for _, t := range c.Tables {
		keep[tableKey{t.Calculator, t.Code}] = true
	}

	var removed int64
	for _, t := range prev.Tables {
		if keep[tableKey{t.Calculator, t.Code}] {
			continue
		}
		scope := coefficient.Scope{Tenant: tenant, CalculatorID: t.Calculator, Code: t.Code}
		n, err := backend.Delete(ctx, scope)
		if err != nil {
			return removed, fmt.Errorf("failed to prune %s/%s: %w", t.Calculator, t.Code, err)
		}
		removed += n
	}
	return removed, nil
}

type tableKey struct {
	calculator string
	code       string
}
