package coefficient

import (
	"context"
	"fmt"
	"strings"
)

// MaxColumns is the number of condition columns a row can hold.
const MaxColumns = 11

// Operator compares a row column with a variable value.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "<>"
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpLike         Operator = "LIKE"
)

// Valid reports whether op is one of the supported operators.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpLike:
		return true
	default:
		return false
	}
}

// ParseOperator parses an operator. LIKE is matched case-insensitively.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToUpper(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator: %q", s)
	}
	return op, nil
}

// SortOrder orders matching rows by a column.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ParseSortOrder parses a sort order case-insensitively. Empty means none.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToUpper(strings.TrimSpace(s))) {
	case SortNone:
		return SortNone, nil
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", fmt.Errorf("unknown sort order: %q", s)
	}
}

// DataKind selects numeric or textual comparison.
type DataKind string

const (
	KindString DataKind = "STRING"
	KindNumber DataKind = "NUMBER"
)

// ParseDataKind parses a data kind case-insensitively. Empty means STRING.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindString, "":
		return KindString, nil
	case KindNumber:
		return KindNumber, nil
	default:
		return "", fmt.Errorf("unknown data kind: %q", s)
	}
}

// Column is one condition column of a coefficient definition.
type Column struct {
	// VarCode names the variable whose current value is compared.
	VarCode string

	// Index is the row position, 0 to MaxColumns-1.
	Index int

	// Operator compares row value (left) with variable value (right).
	Operator Operator

	// Sort optionally orders matching rows by this column.
	Sort SortOrder

	// Kind selects numeric or textual comparison.
	Kind DataKind
}

// Scope identifies one coefficient table.
type Scope struct {
	Tenant       string
	CalculatorID string
	Code         string
}

// Row is one stored table row.
type Row struct {
	// Columns holds up to MaxColumns condition values. Missing trailing
	// columns are NULL.
	Columns []string `json:"columns"`

	// Result is the row's coefficient value.
	Result string `json:"result"`
}

// Predicate is one conjunct of a Query: row[Index] Operator Value.
type Predicate struct {
	Index    int
	Operator Operator
	Kind     DataKind
	Value    string
}

// OrderTerm orders matching rows by one column.
type OrderTerm struct {
	Index int
	Sort  SortOrder
	Kind  DataKind
}

// Query selects the first matching row of a table.
type Query struct {
	Scope      Scope
	Predicates []Predicate
	Order      []OrderTerm
}

// Validate checks column indexes and operators.
func (q Query) Validate() error {
	for _, p := range q.Predicates {
		if p.Index < 0 || p.Index >= MaxColumns {
			return fmt.Errorf("column index %d out of range", p.Index)
		}
		if !p.Operator.Valid() {
			return fmt.Errorf("unknown operator: %q", p.Operator)
		}
	}
	for _, o := range q.Order {
		if o.Index < 0 || o.Index >= MaxColumns {
			return fmt.Errorf("order column index %d out of range", o.Index)
		}
		if o.Sort != SortAsc && o.Sort != SortDesc {
			return fmt.Errorf("unknown sort order: %q", o.Sort)
		}
	}
	return nil
}

// Backend stores coefficient tables.
type Backend interface {
	// First returns the result of the first row matching q, in q's order.
	// found is false when no row matches.
	First(ctx context.Context, q Query) (result string, found bool, err error)

	// Copy duplicates every row of (tenant, fromID, code) into
	// (tenant, toID, code) and returns the number of rows copied.
	Copy(ctx context.Context, tenant, fromID, toID, code string) (int64, error)

	// Insert appends rows to a table.
	Insert(ctx context.Context, scope Scope, rows []Row) error

	// Delete removes every row of a table and returns how many were removed.
	Delete(ctx context.Context, scope Scope) (int64, error)

	// Replace swaps the rows of a table for rows in one step. On error the
	// previous rows stay in place.
	Replace(ctx context.Context, scope Scope, rows []Row) error

	// List returns a table's rows in insertion order.
	List(ctx context.Context, scope Scope) ([]Row, error)

	// Close releases backend resources.
	Close() error
}
