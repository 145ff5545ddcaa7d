package tracing

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanQuote             = "rating.pricing.quote"
	SpanRun               = "rating.formula.run"
	SpanCoefficientLookup = "rating.coefficient.lookup"
)

// Attribute keys.
const (
	AttrTenant      = attribute.Key("rating.tenant")
	AttrCalculator  = attribute.Key("rating.calculator_id")
	AttrRunID       = attribute.Key("rating.run_id")
	AttrFormulas    = attribute.Key("rating.formulas")
	AttrLines       = attribute.Key("rating.lines")
	AttrFailedLines = attribute.Key("rating.lines.failed")
	AttrVariables   = attribute.Key("rating.variables")
	AttrCoefficient = attribute.Key("rating.coefficient")
	AttrOutcome     = attribute.Key("rating.outcome")
)

// RunAttributes identifies a calculator run.
func RunAttributes(tenant, calculatorID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTenant.String(tenant),
		AttrCalculator.String(calculatorID),
	}
}
