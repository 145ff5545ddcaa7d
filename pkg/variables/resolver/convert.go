package resolver

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"mercator-hq/rating/pkg/numeric"
	"mercator-hq/rating/pkg/variables"
)

// convert turns a raw document value into a typed variable value.
func convert(def variables.Definition, raw gjson.Result) (any, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return nil, nil
	}

	if raw.IsArray() {
		return aggregate(def, raw.Array()), nil
	}
	if def.Aggregation != variables.AggregationUnspecified {
		return aggregate(def, []gjson.Result{raw}), nil
	}

	switch def.Type {
	case variables.TypeNumber:
		d, ok := numeric.Parse(textOf(raw))
		if !ok {
			return nil, fmt.Errorf("%w: variable %q at %q is not a number: %s",
				ErrMalformedValue, def.Code, def.Path, raw.Raw)
		}
		return d, nil
	default:
		return textOf(raw), nil
	}
}

// aggregate applies the definition's aggregation to array elements.
// It never fails; unusable elements fall back to zero or are skipped.
func aggregate(def variables.Definition, elems []gjson.Result) any {
	switch def.Aggregation {
	case variables.AggregationCount:
		return decimal.NewFromInt(int64(len(elems)))

	case variables.AggregationSum:
		sum := decimal.Zero
		for _, e := range elems {
			if d, ok := numberOf(e); ok {
				sum = sum.Add(d)
			}
		}
		return sum

	case variables.AggregationAvg:
		sum := decimal.Zero
		n := int64(0)
		for _, e := range elems {
			if d, ok := numberOf(e); ok {
				sum = sum.Add(d)
				n++
			}
		}
		if n == 0 {
			return decimal.Zero
		}
		return sum.Div(decimal.NewFromInt(n))

	case variables.AggregationMin, variables.AggregationMax:
		var best *decimal.Decimal
		for _, e := range elems {
			d, ok := numberOf(e)
			if !ok {
				continue
			}
			if best == nil ||
				(def.Aggregation == variables.AggregationMin && d.LessThan(*best)) ||
				(def.Aggregation == variables.AggregationMax && d.GreaterThan(*best)) {
				best = &d
			}
		}
		if best == nil {
			return decimal.Zero
		}
		return *best

	case variables.AggregationFirst:
		if len(elems) == 0 {
			return nil
		}
		return verbatim(elems[0])

	default:
		if def.Type == variables.TypeNumber {
			if len(elems) == 0 {
				return decimal.Zero
			}
			d, _ := numberOf(elems[0])
			return d
		}

		parts := make([]string, 0, len(elems))
		for _, e := range elems {
			if e.Type == gjson.Null {
				continue
			}
			parts = append(parts, textOf(e))
		}
		return strings.Join(parts, ", ")
	}
}

// textOf returns the string form of a JSON value. Numbers keep their source
// text so no precision is lost through float64.
func textOf(r gjson.Result) string {
	if r.Type == gjson.Number {
		return r.Raw
	}
	return r.String()
}

// numberOf reads a JSON number or numeric string as a decimal.
func numberOf(r gjson.Result) (decimal.Decimal, bool) {
	switch r.Type {
	case gjson.Number:
		return numeric.Parse(r.Raw)
	case gjson.String:
		return numeric.Parse(r.Str)
	default:
		return decimal.Zero, false
	}
}

// verbatim returns a JSON element as a Go value without type conversion.
func verbatim(r gjson.Result) any {
	switch r.Type {
	case gjson.Number:
		if d, ok := numeric.Parse(r.Raw); ok {
			return d
		}
		return r.Num
	case gjson.String:
		return r.Str
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	default:
		return r.Value()
	}
}
