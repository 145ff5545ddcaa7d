package numeric

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse parses s as a decimal number. Surrounding whitespace is ignored.
// The second return value is false when s is empty or not a number.
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePtr is Parse for optional values. A nil pointer is not a number.
func ParsePtr(s *string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	return Parse(*s)
}

// Format renders d in its shortest exact textual form: trailing fractional
// zeros are dropped and scientific notation is never used.
func Format(d decimal.Decimal) string {
	return d.String()
}

// Trim normalizes a numeric string through Format. Strings that are not
// numbers are returned unchanged.
func Trim(s string) string {
	d, ok := Parse(s)
	if !ok {
		return s
	}
	return Format(d)
}

// Round rounds d to places fractional digits, halves away from zero.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// FromValue converts a resolved variable value to a decimal. Strings are
// parsed, numeric Go types are converted and anything else is not a number.
func FromValue(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case string:
		return Parse(val)
	case *string:
		return ParsePtr(val)
	case json.Number:
		return Parse(val.String())
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt32(val), true
	case int64:
		return decimal.NewFromInt(val), true
	default:
		return decimal.Zero, false
	}
}
