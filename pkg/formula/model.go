package formula

import (
	"errors"
	"fmt"
	"sort"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/variables"
)

// Operator is an arithmetic operator of a formula line.
type Operator string

// Arithmetic operators. OpNone copies the left operand.
const (
	OpNone     Operator = ""
	OpAdd      Operator = "+"
	OpSubtract Operator = "-"
	OpMultiply Operator = "*"
	OpDivide   Operator = "/"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpNone, OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// Line is one conditional arithmetic step.
type Line struct {
	Sequence *int

	ConditionLeft     string
	ConditionOperator string
	ConditionRight    string

	Left     string
	Operator Operator
	Right    string

	Result        string
	PostProcessor string
}

// gated reports whether the line carries a condition.
func (l Line) gated() bool {
	return l.ConditionOperator != "" && l.ConditionLeft != ""
}

// Formula is a named, ordered list of lines.
type Formula struct {
	Name  string
	Lines []Line
}

// Ordered returns the lines sorted by Sequence. Lines without a sequence
// come last and keep their relative order.
func (f Formula) Ordered() []Line {
	lines := make([]Line, len(f.Lines))
	copy(lines, f.Lines)

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i].Sequence, lines[j].Sequence
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return lines
}

// CoefficientDefinition binds a COEFFICIENT variable to its table columns.
type CoefficientDefinition struct {
	Code    string
	Columns []coefficient.Column
}

// Model is a calculator: its variables, formulas and coefficient tables.
type Model struct {
	CalculatorID string
	Name         string
	Variables    []Entry
	Formulas     []Formula
	Coefficients []CoefficientDefinition
}

// Coefficient returns the definition of a coefficient variable.
func (m *Model) Coefficient(code string) (CoefficientDefinition, bool) {
	for _, c := range m.Coefficients {
		if c.Code == code {
			return c, true
		}
	}
	return CoefficientDefinition{}, false
}

// Validate reports structural problems that would make lines or lookups
// degrade to absent values at run time. Run does not require a valid model.
func (m *Model) Validate() error {
	var errs []error

	if m.CalculatorID == "" {
		errs = append(errs, errors.New("calculator id is required"))
	}

	seen := make(map[string]bool, len(m.Variables))
	for _, v := range m.Variables {
		if v.Code == "" {
			errs = append(errs, errors.New("variable with empty code"))
			continue
		}
		if seen[v.Code] {
			errs = append(errs, fmt.Errorf("variable %q declared twice", v.Code))
		}
		seen[v.Code] = true
		if v.Type != "" && !v.Type.Valid() {
			errs = append(errs, fmt.Errorf("variable %q: unknown type %q", v.Code, v.Type))
		}
		if v.Type == variables.SourceCoefficient {
			if _, ok := m.Coefficient(v.Code); !ok {
				errs = append(errs, fmt.Errorf("coefficient %q has no column definition", v.Code))
			}
		}
	}

	for _, c := range m.Coefficients {
		if len(c.Columns) > coefficient.MaxColumns {
			errs = append(errs, fmt.Errorf("coefficient %q: %d columns exceed maximum of %d",
				c.Code, len(c.Columns), coefficient.MaxColumns))
		}
		if _, err := coefficient.BuildQuery(coefficient.Scope{}, anyValue{}, c.Columns); err != nil {
			errs = append(errs, fmt.Errorf("coefficient %q: %w", c.Code, err))
		}
	}

	for _, f := range m.Formulas {
		for i, l := range f.Lines {
			if !l.Operator.Valid() {
				errs = append(errs, fmt.Errorf("formula %q line %d: unknown operator %q", f.Name, i, l.Operator))
			}
			if l.gated() {
				if _, err := coefficient.ParseOperator(l.ConditionOperator); err != nil {
					errs = append(errs, fmt.Errorf("formula %q line %d: %w", f.Name, i, err))
				}
			}
			if l.PostProcessor != "" {
				if _, ok := parseRound(l.PostProcessor); !ok {
					errs = append(errs, fmt.Errorf("formula %q line %d: unknown post-processor %q", f.Name, i, l.PostProcessor))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// anyValue resolves every code, so BuildQuery only checks column structure.
type anyValue struct{}

func (anyValue) Lookup(string) (string, bool) { return "", true }
