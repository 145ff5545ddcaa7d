package formula

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/variables"
)

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
	lines    map[string]int
}

func (m *recordingMetrics) RecordRun(calculator, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *recordingMetrics) RecordLine(calculator, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lines == nil {
		m.lines = make(map[string]int)
	}
	m.lines[outcome]++
}

// premiumModel multiplies a regional rate by the base premium and adds a
// flat fee when the result exceeds 15.
func premiumModel() *Model {
	one, two := 1, 2
	return &Model{
		CalculatorID: "motor-v1",
		Name:         "Motor",
		Variables: []Entry{
			{Code: "region", Type: variables.SourceIn},
			{Code: "base", Type: variables.SourceIn},
			{Code: "rate", Type: variables.SourceCoefficient},
			{Code: "premium", Type: variables.SourceCalc},
		},
		Formulas: []Formula{{
			Name: "premium",
			Lines: []Line{
				{
					Sequence:          &two,
					ConditionLeft:     "premium",
					ConditionOperator: ">",
					ConditionRight:    "15",
					Left:              "premium",
					Operator:          OpAdd,
					Right:             "5",
					Result:            "premium",
				},
				{
					Sequence: &one,
					Left:     "rate",
					Operator: OpMultiply,
					Right:    "base",
					Result:   "premium",
				},
			},
		}},
		Coefficients: []CoefficientDefinition{{
			Code: "rate",
			Columns: []coefficient.Column{
				{VarCode: "region", Index: 0, Operator: coefficient.OpEqual},
			},
		}},
	}
}

func newTestInterpreter(t *testing.T, metrics *recordingMetrics) *Interpreter {
	t.Helper()

	backend := coefficient.NewMemoryBackend()
	scope := coefficient.Scope{Tenant: "acme", CalculatorID: "motor-v1", Code: "rate"}
	rows := []coefficient.Row{
		{Columns: []string{"EU"}, Result: "0.10"},
		{Columns: []string{"US"}, Result: "0.20"},
	}
	if err := backend.Insert(context.Background(), scope, rows); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	opts := []Option{}
	if metrics != nil {
		opts = append(opts, WithMetrics(metrics))
	}
	return NewInterpreter(coefficient.NewResolver(backend, nil), opts...)
}

func TestInterpreter_CoefficientChain(t *testing.T) {
	tests := []struct {
		name        string
		inputs      []Entry
		wantPremium *string
		wantRate    *string
	}{
		{
			name:        "gate passes",
			inputs:      []Entry{{Code: "region", Value: ptr("EU")}, {Code: "base", Value: ptr("200")}},
			wantPremium: ptr("25"),
			wantRate:    ptr("0.10"),
		},
		{
			name:        "gate fails",
			inputs:      []Entry{{Code: "region", Value: ptr("EU")}, {Code: "base", Value: ptr("100")}},
			wantPremium: ptr("10"),
			wantRate:    ptr("0.10"),
		},
		{
			name:        "no matching coefficient",
			inputs:      []Entry{{Code: "region", Value: ptr("APAC")}, {Code: "base", Value: ptr("200")}},
			wantPremium: nil,
			wantRate:    nil,
		},
		{
			name:        "unmapped coefficient operand",
			inputs:      []Entry{{Code: "base", Value: ptr("200")}},
			wantPremium: nil,
			wantRate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterpreter(t, nil)
			pool := in.Run(context.Background(), "acme", premiumModel(), tt.inputs)

			premium, _ := pool.Get("premium")
			if !equalValue(premium.Value, tt.wantPremium) {
				t.Errorf("premium = %s, want %s", show(premium.Value), show(tt.wantPremium))
			}
			rate, _ := pool.Get("rate")
			if !equalValue(rate.Value, tt.wantRate) {
				t.Errorf("rate = %s, want %s", show(rate.Value), show(tt.wantRate))
			}
		})
	}
}

func TestInterpreter_DivisionByZeroContinues(t *testing.T) {
	model := &Model{
		CalculatorID: "calc",
		Variables: []Entry{
			{Code: "amount", Value: ptr("10"), Type: variables.SourceConst},
			{Code: "divisor", Value: ptr("0"), Type: variables.SourceConst},
		},
		Formulas: []Formula{{
			Name: "f",
			Lines: []Line{
				{Left: "amount", Operator: OpDivide, Right: "divisor", Result: "ratio"},
				{Left: "ratio", Operator: OpMultiply, Right: "2", Result: "doubled"},
				{Left: "amount", Operator: OpAdd, Right: "ratio", Result: "total"},
			},
		}},
	}

	metrics := &recordingMetrics{}
	pool := newTestInterpreter(t, metrics).Run(context.Background(), "acme", model, nil)

	want := map[string]*string{
		"amount":  ptr("10"),
		"divisor": ptr("0"),
		"ratio":   nil,
		"doubled": nil,
		"total":   ptr("10"),
	}
	if diff := cmp.Diff(want, pool.Values()); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
	if metrics.lines[LineFailed] != 1 || metrics.lines[LineExecuted] != 2 {
		t.Errorf("line outcomes = %v", metrics.lines)
	}
	if diff := cmp.Diff([]string{StatusCompleted}, metrics.statuses); diff != "" {
		t.Errorf("run statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpreter_EmptyModel(t *testing.T) {
	model := &Model{
		CalculatorID: "calc",
		Variables:    []Entry{{Code: "a", Value: ptr("1"), Type: variables.SourceConst}},
	}
	metrics := &recordingMetrics{}

	pool := newTestInterpreter(t, metrics).Run(context.Background(), "acme", model,
		[]Entry{{Code: "b", Value: ptr("2")}})

	want := []Entry{
		{Code: "a", Value: ptr("1"), Type: variables.SourceConst},
		{Code: "b", Value: ptr("2"), Type: variables.SourceIn},
	}
	if diff := cmp.Diff(want, pool.Entries()); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{StatusEmpty}, metrics.statuses); diff != "" {
		t.Errorf("run statuses mismatch (-want +got):\n%s", diff)
	}
	if len(metrics.lines) != 0 {
		t.Errorf("no lines should run, got %v", metrics.lines)
	}
}

func TestInterpreter_Conditions(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want *string
	}{
		{
			name: "string equality",
			line: Line{ConditionLeft: "region", ConditionOperator: "=", ConditionRight: "EU", Left: "1", Result: "out"},
			want: ptr("1"),
		},
		{
			name: "numeric comparison",
			line: Line{ConditionLeft: "age", ConditionOperator: ">=", ConditionRight: "9", Left: "1", Result: "out"},
			want: ptr("1"),
		},
		{
			name: "like",
			line: Line{ConditionLeft: "region", ConditionOperator: "like", ConditionRight: "e%", Left: "1", Result: "out"},
			want: ptr("1"),
		},
		{
			name: "false skips the write",
			line: Line{ConditionLeft: "region", ConditionOperator: "<>", ConditionRight: "EU", Left: "1", Result: "out"},
			want: ptr("initial"),
		},
		{
			name: "absent operand is false",
			line: Line{ConditionLeft: "missing", ConditionOperator: "=", ConditionRight: "EU", Left: "1", Result: "out"},
			want: ptr("initial"),
		},
		{
			name: "invalid operator is false",
			line: Line{ConditionLeft: "region", ConditionOperator: "!=", ConditionRight: "EU", Left: "1", Result: "out"},
			want: ptr("initial"),
		},
		{
			name: "operator without left is ungated",
			line: Line{ConditionOperator: "=", ConditionRight: "nope", Left: "1", Result: "out"},
			want: ptr("1"),
		},
		{
			name: "rounded result",
			line: Line{Left: "10", Operator: OpDivide, Right: "3", Result: "out", PostProcessor: "round2"},
			want: ptr("3.33"),
		},
		{
			name: "unknown post-processor keeps value",
			line: Line{Left: "2.50", Result: "out", PostProcessor: "floor"},
			want: ptr("2.5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &Model{
				CalculatorID: "calc",
				Variables: []Entry{
					{Code: "region", Value: ptr("EU"), Type: variables.SourceIn},
					{Code: "age", Value: ptr("10"), Type: variables.SourceIn},
					{Code: "missing", Type: variables.SourceIn},
					{Code: "out", Value: ptr("initial"), Type: variables.SourceCalc},
				},
				Formulas: []Formula{{Name: "f", Lines: []Line{tt.line}}},
			}

			pool := NewInterpreter(nil).Run(context.Background(), "acme", model, nil)
			got, _ := pool.Get("out")
			if !equalValue(got.Value, tt.want) {
				t.Errorf("out = %s, want %s", show(got.Value), show(tt.want))
			}
		})
	}
}

func TestInterpreter_FormulasShareThePool(t *testing.T) {
	model := &Model{
		CalculatorID: "calc",
		Formulas: []Formula{
			{Name: "first", Lines: []Line{{Left: "2", Operator: OpMultiply, Right: "3", Result: "x"}}},
			{Name: "second", Lines: []Line{{Left: "x", Operator: OpAdd, Right: "1", Result: "y"}}},
		},
	}

	pool := NewInterpreter(nil).Run(context.Background(), "acme", model, nil)
	if v, ok := pool.Lookup("y"); !ok || v != "7" {
		t.Errorf("y = %q, %v; want 7", v, ok)
	}
}

func TestModel_Validate(t *testing.T) {
	if err := premiumModel().Validate(); err != nil {
		t.Errorf("valid model rejected: %v", err)
	}

	bad := premiumModel()
	bad.Variables = append(bad.Variables,
		Entry{Code: "loading", Type: variables.SourceCoefficient},
		Entry{Code: "base", Type: variables.SourceIn},
	)
	bad.Formulas[0].Lines = append(bad.Formulas[0].Lines,
		Line{Left: "a", Operator: Operator("^"), Result: "b"},
		Line{ConditionLeft: "a", ConditionOperator: "!=", Left: "a", Result: "b"},
		Line{Left: "a", Result: "b", PostProcessor: "ceil"},
	)
	bad.Coefficients = append(bad.Coefficients, CoefficientDefinition{
		Code:    "zone",
		Columns: []coefficient.Column{{VarCode: "region", Index: 12, Operator: coefficient.OpEqual}},
	})

	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(err.(interface{ Unwrap() []error }).Unwrap()); n != 6 {
		t.Errorf("got %d errors, want 6:\n%v", n, err)
	}
}
