package coefficient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"mercator-hq/rating/pkg/numeric"
)

// MemoryBackend keeps coefficient tables in process memory.
// It is safe for concurrent use.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[Scope][]Row
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tables: make(map[Scope][]Row),
	}
}

// First implements Backend.
func (m *MemoryBackend) First(ctx context.Context, q Query) (string, bool, error) {
	if err := q.Validate(); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Row
	for _, row := range m.tables[q.Scope] {
		ok, err := matchRow(row, q.Predicates)
		if err != nil {
			return "", false, err
		}
		if ok {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return lessRow(matches[i], matches[j], q.Order)
	})
	return matches[0].Result, true, nil
}

// Copy implements Backend.
func (m *MemoryBackend) Copy(ctx context.Context, tenant, fromID, toID, code string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := Scope{Tenant: tenant, CalculatorID: fromID, Code: code}
	to := Scope{Tenant: tenant, CalculatorID: toID, Code: code}

	rows := m.tables[from]
	for _, row := range rows {
		m.tables[to] = append(m.tables[to], cloneRow(row))
	}
	return int64(len(rows)), nil
}

// Insert implements Backend.
func (m *MemoryBackend) Insert(ctx context.Context, scope Scope, rows []Row) error {
	if err := checkRows(rows); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		m.tables[scope] = append(m.tables[scope], cloneRow(row))
	}
	return nil
}

// Replace implements Backend.
func (m *MemoryBackend) Replace(ctx context.Context, scope Scope, rows []Row) error {
	if err := checkRows(rows); err != nil {
		return err
	}

	table := make([]Row, 0, len(rows))
	for _, row := range rows {
		table = append(table, cloneRow(row))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(table) == 0 {
		delete(m.tables, scope)
		return nil
	}
	m.tables[scope] = table
	return nil
}

func checkRows(rows []Row) error {
	for i, row := range rows {
		if len(row.Columns) > MaxColumns {
			return fmt.Errorf("row %d: %d columns exceed maximum of %d", i, len(row.Columns), MaxColumns)
		}
	}
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, scope Scope) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.tables[scope])
	delete(m.tables, scope)
	return int64(n), nil
}

// List implements Backend.
func (m *MemoryBackend) List(ctx context.Context, scope Scope) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]Row, 0, len(m.tables[scope]))
	for _, row := range m.tables[scope] {
		rows = append(rows, cloneRow(row))
	}
	return rows, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

func cloneRow(row Row) Row {
	cols := make([]string, len(row.Columns))
	copy(cols, row.Columns)
	return Row{Columns: cols, Result: row.Result}
}

// column returns the value at index; false means NULL.
func column(row Row, index int) (string, bool) {
	if index >= len(row.Columns) {
		return "", false
	}
	return row.Columns[index], true
}

func matchRow(row Row, predicates []Predicate) (bool, error) {
	for _, p := range predicates {
		v, ok := column(row, p.Index)
		if !ok {
			return false, nil
		}

		left, right := v, p.Value
		if p.Kind == KindNumber && p.Operator != OpLike {
			left, right = castNumber(left), castNumber(right)
		}

		match, err := Compare(p.Operator, p.Kind, left, right)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

// lessRow orders rows like SQLite: NULL first ascending, last descending.
func lessRow(a, b Row, order []OrderTerm) bool {
	for _, o := range order {
		c := compareColumn(a, b, o)
		if c == 0 {
			continue
		}
		if o.Sort == SortDesc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareColumn(a, b Row, o OrderTerm) int {
	av, aok := column(a, o.Index)
	bv, bok := column(b, o.Index)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	if o.Kind == KindNumber {
		ad, _ := numeric.Parse(castNumber(av))
		bd, _ := numeric.Parse(castNumber(bv))
		return ad.Cmp(bd)
	}
	return strings.Compare(av, bv)
}
