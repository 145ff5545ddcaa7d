package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/telemetry/tracing"
	"mercator-hq/rating/pkg/variables"
	"mercator-hq/rating/pkg/variables/document"
	"mercator-hq/rating/pkg/variables/resolver"
)

const quoteJSON = `{
	"policy": {
		"region": "EU",
		"base": 200,
		"insured": {"birthDate": "2000-03-01"},
		"issueDate": "2020-03-01"
	}
}`

func testDefinitions(t *testing.T) *variables.Registry {
	t.Helper()

	def := func(code, path string, typ variables.DataType, scope variables.Scope, source variables.SourceKind) variables.Definition {
		d, err := variables.NewDefinition(code, path, typ, scope, source)
		if err != nil {
			t.Fatalf("NewDefinition(%q) failed: %v", code, err)
		}
		return d
	}

	reg, err := variables.NewRegistry(
		def("region", "policy.region", variables.TypeString, variables.ScopeDomain, variables.SourceIn),
		def("base", "policy.base", variables.TypeNumber, variables.ScopeDomain, variables.SourceIn),
		def("insured_birthDate", "policy.insured.birthDate", variables.TypeString, variables.ScopeDomain, variables.SourceIn),
		def("issueDate", "policy.issueDate", variables.TypeString, variables.ScopeDomain, variables.SourceIn),
		def("insured_age_issue", "", variables.TypeNumber, variables.ScopeDomain, variables.SourceMagic),
		def("premium", "policy.premium", variables.TypeNumber, variables.ScopeCalculator, variables.SourceCalc),
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return reg
}

func testModel() *formula.Model {
	return &formula.Model{
		CalculatorID: "motor-v1",
		Variables: []formula.Entry{
			{Code: "region", Type: variables.SourceIn},
			{Code: "base", Type: variables.SourceIn},
			{Code: "insured_age_issue", Type: variables.SourceMagic},
			{Code: "rate", Type: variables.SourceCoefficient},
			{Code: "premium", Type: variables.SourceCalc},
			{Code: "fee", Type: variables.SourceVar},
			{Code: "label", Type: variables.SourceVar},
		},
		Formulas: []formula.Formula{{
			Name: "premium",
			Lines: []formula.Line{
				{Left: "rate", Operator: formula.OpMultiply, Right: "base", Result: "premium"},
				{Left: "insured_age_issue", Operator: formula.OpDivide, Right: "4", Result: "fee"},
				{Left: "region", Result: "label"},
			},
		}},
		Coefficients: []formula.CoefficientDefinition{{
			Code:    "rate",
			Columns: []coefficient.Column{{VarCode: "region", Index: 0, Operator: coefficient.OpEqual}},
		}},
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(formula.NewInterpreter(testResolver(t)), opts...)
}

func testResolver(t *testing.T) *coefficient.Resolver {
	t.Helper()

	backend := coefficient.NewMemoryBackend()
	scope := coefficient.Scope{Tenant: "acme", CalculatorID: "motor-v1", Code: "rate"}
	if err := backend.Insert(context.Background(), scope, []coefficient.Row{
		{Columns: []string{"EU"}, Result: "0.10"},
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	return coefficient.NewResolver(backend, nil)
}

func TestService_Quote(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Quote(context.Background(), Request{
		Tenant:      "acme",
		Document:    []byte(quoteJSON),
		Definitions: testDefinitions(t),
		Model:       testModel(),
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("expected a run id")
	}
	if v, _ := res.Pool.Lookup("premium"); v != "20" {
		t.Errorf("premium = %q, want 20", v)
	}
	if v, _ := res.Pool.Lookup("fee"); v != "5" {
		t.Errorf("fee = %q, want 5", v)
	}

	checks := []struct {
		path string
		want string
		typ  gjson.Type
	}{
		// CALCULATOR-scoped definition with a path.
		{"policy.premium", "20", gjson.Number},
		// No definition: written under the output path.
		{"rating.fee", "5", gjson.Number},
		{"rating.label", "EU", gjson.String},
		{"rating.rate", "0.1", gjson.Number},
		// Input data is left alone.
		{"policy.region", "EU", gjson.String},
	}
	for _, c := range checks {
		got := gjson.GetBytes(res.Document, c.path)
		if got.String() != c.want || got.Type != c.typ {
			t.Errorf("%s = %s (%v), want %s (%v)", c.path, got.Raw, got.Type, c.want, c.typ)
		}
	}

	if got := res.Context.Expand("Premium ${premium} for ${region}"); got != "Premium 20 for EU" {
		t.Errorf("Expand = %q", got)
	}
}

func TestService_QuoteInputsOverrideDocument(t *testing.T) {
	svc := newTestService(t, WithOutputPath("out"))

	res, err := svc.Quote(context.Background(), Request{
		Tenant:      "acme",
		Document:    []byte(quoteJSON),
		Definitions: testDefinitions(t),
		Model:       testModel(),
		Inputs:      []formula.Entry{{Code: "base", Value: formula.StringValue("300")}},
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if v, _ := res.Pool.Lookup("premium"); v != "30" {
		t.Errorf("premium = %q, want 30", v)
	}
	if got := gjson.GetBytes(res.Document, "out.fee").String(); got != "5" {
		t.Errorf("out.fee = %q, want 5", got)
	}
}

func TestService_QuoteErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Quote(ctx, Request{Document: []byte(quoteJSON)}); err == nil {
		t.Error("expected error without a model")
	}

	_, err := svc.Quote(ctx, Request{Document: []byte("{not json"), Model: testModel()})
	if !errors.Is(err, document.ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}

	_, err = svc.Quote(ctx, Request{
		Tenant:      "acme",
		Document:    []byte(`{"policy": {"region": "EU", "base": "lots"}}`),
		Definitions: testDefinitions(t),
		Model:       testModel(),
	})
	if !errors.Is(err, resolver.ErrMalformedValue) {
		t.Errorf("expected ErrMalformedValue, got %v", err)
	}
}

func TestService_QuoteEmptyDocument(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Quote(context.Background(), Request{
		Tenant: "acme",
		Model:  testModel(),
		Inputs: []formula.Entry{
			{Code: "region", Value: formula.StringValue("EU")},
			{Code: "base", Value: formula.StringValue("50")},
		},
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if got := gjson.GetBytes(res.Document, "rating.premium").String(); got != "5" {
		t.Errorf("rating.premium = %q, want 5", got)
	}
}

func TestService_QuoteTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := tracing.NewWithExporter(exporter)
	defer tracer.Shutdown(context.Background())

	coefficients := testResolver(t)
	coefficients.SetTracer(tracer.Tracer())
	interp := formula.NewInterpreter(coefficients, formula.WithTracer(tracer.Tracer()))
	svc := NewService(interp, WithTracer(tracer.Tracer()))

	res, err := svc.Quote(context.Background(), Request{
		Tenant:      "acme",
		Document:    []byte(quoteJSON),
		Definitions: testDefinitions(t),
		Model:       testModel(),
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected lookup, run and quote spans, got %d", len(spans))
	}
	lookup, run, quote := spans[0], spans[1], spans[2]

	if lookup.Name != tracing.SpanCoefficientLookup || run.Name != tracing.SpanRun || quote.Name != tracing.SpanQuote {
		t.Fatalf("span names = %q, %q, %q", lookup.Name, run.Name, quote.Name)
	}
	if lookup.Parent.SpanID() != run.SpanContext.SpanID() || run.Parent.SpanID() != quote.SpanContext.SpanID() {
		t.Error("spans should nest quote > run > lookup")
	}

	attrs := func(s tracetest.SpanStub) map[string]string {
		out := make(map[string]string)
		for _, kv := range s.Attributes {
			out[string(kv.Key)] = kv.Value.Emit()
		}
		return out
	}
	if got := attrs(quote)[string(tracing.AttrRunID)]; got != res.RunID {
		t.Errorf("quote run id = %q, want %q", got, res.RunID)
	}
	if got := attrs(lookup)[string(tracing.AttrOutcome)]; got != coefficient.OutcomeHit {
		t.Errorf("lookup outcome = %q, want hit", got)
	}
	if got := attrs(run)[string(tracing.AttrLines)]; got != "3" {
		t.Errorf("run lines = %q, want 3", got)
	}
}

func TestService_QuoteTraceError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := tracing.NewWithExporter(exporter)
	defer tracer.Shutdown(context.Background())

	svc := newTestService(t, WithTracer(tracer.Tracer()))
	_, err := svc.Quote(context.Background(), Request{
		Tenant:   "acme",
		Document: []byte("{not json"),
		Model:    testModel(),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code.String() != "Error" {
		t.Errorf("expected one failed quote span, got %+v", spans)
	}
}
