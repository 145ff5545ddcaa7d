package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mercator-hq/rating/pkg/numeric"
)

var (
	// ErrDivisionByZero is reported when a line divides by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnknownOperator is reported for an operator outside + - * /.
	ErrUnknownOperator = errors.New("unknown operator")
)

// Apply combines left and right with op. Operands that are not numbers are
// absent. The result is nil when it cannot be computed; err explains why
// when the line itself is at fault (unknown operator, division by zero).
func Apply(op Operator, left, right *string) (*string, error) {
	l, lok := numeric.ParsePtr(left)
	r, rok := numeric.ParsePtr(right)

	switch op {
	case OpNone:
		if lok {
			return formatted(l), nil
		}
		return cloneValue(left), nil

	case OpAdd:
		switch {
		case lok && rok:
			return formatted(l.Add(r)), nil
		case lok:
			return formatted(l), nil
		case rok:
			return formatted(r), nil
		}
		return nil, nil

	case OpSubtract:
		switch {
		case lok && rok:
			return formatted(l.Sub(r)), nil
		case lok:
			return formatted(l), nil
		case rok:
			return formatted(r.Neg()), nil
		}
		return nil, nil

	case OpMultiply:
		if !lok || !rok {
			return nil, nil
		}
		return formatted(l.Mul(r)), nil

	case OpDivide:
		if !lok || !rok {
			return nil, nil
		}
		if r.IsZero() {
			return nil, ErrDivisionByZero
		}
		return formatted(l.Div(r)), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func formatted(d decimal.Decimal) *string {
	s := numeric.Format(d)
	return &s
}

// parseRound parses "round" (0 places) and "roundN" (N places),
// case-insensitively.
func parseRound(name string) (int32, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	digits, ok := strings.CutPrefix(name, "round")
	if !ok {
		return 0, false
	}
	if digits == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil || n < 0 {
		return 0, false
	}
	return int32(n), true
}

// PostProcess applies a post-processor to value. Values that are not numbers
// pass through. ok is false for an unknown post-processor.
func PostProcess(name string, value *string) (*string, bool) {
	if name == "" {
		return value, true
	}
	places, ok := parseRound(name)
	if !ok {
		return value, false
	}
	d, isNum := numeric.ParsePtr(value)
	if !isNum {
		return value, true
	}
	return formatted(numeric.Round(d, places)), true
}
