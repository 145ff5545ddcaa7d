package variables

import (
	"fmt"
	"strings"
)

// DataType is the declared type of a variable.
type DataType string

const (
	// TypeString values are kept as text.
	TypeString DataType = "STRING"

	// TypeNumber values are converted to decimals.
	TypeNumber DataType = "NUMBER"
)

// Scope tells which layer a definition belongs to.
type Scope string

const (
	// ScopeDomain variables describe the policy/quote document.
	ScopeDomain Scope = "DOMAIN"

	// ScopeCalculator variables belong to a calculator model.
	ScopeCalculator Scope = "CALCULATOR"
)

// SourceKind is the closed set of ways a variable obtains its value.
type SourceKind string

const (
	// SourceIn values are read from the document (or supplied by the caller).
	SourceIn SourceKind = "IN"

	// SourceMagic values are computed by a built-in function.
	SourceMagic SourceKind = "MAGIC"

	// SourceConst values are fixed by the calculator model.
	SourceConst SourceKind = "CONST"

	// SourceCoefficient values come from a coefficient decision table.
	SourceCoefficient SourceKind = "COEFFICIENT"

	// SourceVar values are intermediate results written by formula lines.
	SourceVar SourceKind = "VAR"

	// SourceCalc values are final results written by formula lines.
	SourceCalc SourceKind = "CALC"
)

// SourceKinds lists every source kind in declaration order.
var SourceKinds = []SourceKind{
	SourceIn,
	SourceMagic,
	SourceConst,
	SourceCoefficient,
	SourceVar,
	SourceCalc,
}

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceIn, SourceMagic, SourceConst, SourceCoefficient, SourceVar, SourceCalc:
		return true
	default:
		return false
	}
}

// Aggregation is the function applied to an array found at a variable path.
type Aggregation string

const (
	// AggregationUnspecified falls back to the data type default: STRING
	// joins elements, NUMBER takes the first element.
	AggregationUnspecified Aggregation = ""

	AggregationSum   Aggregation = "SUM"
	AggregationAvg   Aggregation = "AVG"
	AggregationMin   Aggregation = "MIN"
	AggregationMax   Aggregation = "MAX"
	AggregationCount Aggregation = "COUNT"
	AggregationFirst Aggregation = "FIRST"
)

// ParseDataType parses a data type name case-insensitively.
func ParseDataType(s string) (DataType, error) {
	switch DataType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeString:
		return TypeString, nil
	case TypeNumber:
		return TypeNumber, nil
	default:
		return "", fmt.Errorf("unknown data type: %q", s)
	}
}

// ParseScope parses a scope name case-insensitively. An empty name is DOMAIN.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToUpper(strings.TrimSpace(s))) {
	case ScopeDomain, "":
		return ScopeDomain, nil
	case ScopeCalculator:
		return ScopeCalculator, nil
	default:
		return "", fmt.Errorf("unknown scope: %q", s)
	}
}

// ParseSourceKind parses a source kind name case-insensitively. An empty name is IN.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToUpper(strings.TrimSpace(s)))
	if k == "" {
		return SourceIn, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("unknown source kind: %q", s)
	}
	return k, nil
}

// ParseAggregation maps a function name to an aggregation. Unknown names
// yield AggregationUnspecified.
func ParseAggregation(name string) Aggregation {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return AggregationSum
	case "avg":
		return AggregationAvg
	case "min":
		return AggregationMin
	case "max":
		return AggregationMax
	case "count":
		return AggregationCount
	case "first":
		return AggregationFirst
	default:
		return AggregationUnspecified
	}
}
