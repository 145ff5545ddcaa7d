package coefficient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/rating/pkg/telemetry/tracing"
)

// Values supplies the current value of a variable. ok is false when the
// variable is unknown or has no value.
type Values interface {
	Lookup(code string) (value string, ok bool)
}

// Recorder receives lookup outcomes. The metrics collector implements it.
type Recorder interface {
	RecordCoefficientLookup(code, outcome string)
}

// Lookup outcomes reported to the Recorder.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeUnmapped = "unmapped"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// UnmappedError reports a column whose variable has no current value.
type UnmappedError struct {
	VarCode string
	Index   int
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("column %d: variable %q has no value", e.Index, e.VarCode)
}

// Resolver looks coefficient values up in a Backend.
type Resolver struct {
	backend Backend
	logger  *slog.Logger
	metrics Recorder
	tracer  trace.Tracer
}

// NewResolver creates a resolver over backend.
func NewResolver(backend Backend, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		backend: backend,
		logger:  logger,
		tracer:  tracing.Noop(),
	}
}

// SetMetrics sets the lookup recorder.
func (r *Resolver) SetMetrics(rec Recorder) {
	r.metrics = rec
}

// SetTracer sets the tracer lookups are recorded with.
func (r *Resolver) SetTracer(tracer trace.Tracer) {
	r.tracer = tracer
}

// Backend returns the underlying backend.
func (r *Resolver) Backend() Backend {
	return r.backend
}

// BuildQuery assembles the lookup query for scope from the columns and the
// current values. It fails on the first unmapped variable or invalid column.
func BuildQuery(scope Scope, values Values, columns []Column) (Query, error) {
	q := Query{Scope: scope}

	for _, col := range columns {
		if col.Index < 0 || col.Index >= MaxColumns {
			return Query{}, fmt.Errorf("column %q: index %d out of range", col.VarCode, col.Index)
		}
		if !col.Operator.Valid() {
			return Query{}, fmt.Errorf("column %q: unknown operator %q", col.VarCode, col.Operator)
		}
		kind := col.Kind
		if kind == "" {
			kind = KindString
		}
		if kind != KindString && kind != KindNumber {
			return Query{}, fmt.Errorf("column %q: unknown data kind %q", col.VarCode, col.Kind)
		}

		value, ok := values.Lookup(col.VarCode)
		if !ok {
			return Query{}, &UnmappedError{VarCode: col.VarCode, Index: col.Index}
		}

		q.Predicates = append(q.Predicates, Predicate{
			Index:    col.Index,
			Operator: col.Operator,
			Kind:     kind,
			Value:    value,
		})

		switch col.Sort {
		case SortNone:
		case SortAsc, SortDesc:
			q.Order = append(q.Order, OrderTerm{Index: col.Index, Sort: col.Sort, Kind: kind})
		default:
			return Query{}, fmt.Errorf("column %q: unknown sort order %q", col.VarCode, col.Sort)
		}
	}

	return q, nil
}

// Value resolves one coefficient. Every failure yields ("", false): the
// caller treats the coefficient as absent.
func (r *Resolver) Value(ctx context.Context, scope Scope, values Values, columns []Column) (string, bool) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanCoefficientLookup,
		trace.WithAttributes(tracing.RunAttributes(scope.Tenant, scope.CalculatorID)...),
		trace.WithAttributes(tracing.AttrCoefficient.String(scope.Code)),
	)
	defer span.End()

	value, outcome := r.lookup(ctx, scope, values, columns)
	span.SetAttributes(tracing.AttrOutcome.String(outcome))
	r.record(scope.Code, outcome)
	return value, outcome == OutcomeHit
}

func (r *Resolver) lookup(ctx context.Context, scope Scope, values Values, columns []Column) (string, string) {
	q, err := BuildQuery(scope, values, columns)
	if err != nil {
		outcome := OutcomeInvalid
		var unmapped *UnmappedError
		if errors.As(err, &unmapped) {
			outcome = OutcomeUnmapped
		}
		r.logger.Warn("Coefficient lookup aborted",
			"code", scope.Code,
			"calculator_id", scope.CalculatorID,
			"error", err,
		)
		return "", outcome
	}

	result, found, err := r.backend.First(ctx, q)
	if err != nil {
		r.logger.Error("Coefficient lookup failed",
			"code", scope.Code,
			"calculator_id", scope.CalculatorID,
			"error", err,
		)
		return "", OutcomeError
	}
	if !found {
		r.logger.Debug("Coefficient not matched", "code", scope.Code, "calculator_id", scope.CalculatorID)
		return "", OutcomeMiss
	}
	return result, OutcomeHit
}

// CopyTable copies every row of one calculator's table to another
// calculator, unmodified.
func (r *Resolver) CopyTable(ctx context.Context, tenant, fromID, toID, code string) (int64, error) {
	if fromID == toID {
		return 0, fmt.Errorf("source and target calculator are both %q", fromID)
	}

	n, err := r.backend.Copy(ctx, tenant, fromID, toID, code)
	if err != nil {
		return 0, err
	}

	r.logger.Info("Coefficient table copied",
		"code", code,
		"from", fromID,
		"to", toID,
		"rows", n,
	)
	return n, nil
}

func (r *Resolver) record(code, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordCoefficientLookup(code, outcome)
	}
}

// MapValues adapts a map to Values.
type MapValues map[string]string

// Lookup implements Values.
func (m MapValues) Lookup(code string) (string, bool) {
	v, ok := m[code]
	return v, ok
}
