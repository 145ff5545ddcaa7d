package formula

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/telemetry/tracing"
	"mercator-hq/rating/pkg/variables"
)

// Recorder receives run and line outcomes. The metrics collector
// implements it.
type Recorder interface {
	RecordRun(calculator, status string, duration time.Duration)
	RecordLine(calculator, outcome string)
}

// Run statuses and line outcomes reported to the Recorder.
const (
	StatusCompleted = "completed"
	StatusEmpty     = "empty"

	LineExecuted = "executed"
	LineSkipped  = "skipped"
	LineFailed   = "failed"
)

// Interpreter executes calculator models.
type Interpreter struct {
	coefficients *coefficient.Resolver
	logger       *slog.Logger
	metrics      Recorder
	tracer       trace.Tracer
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithMetrics sets the run and line recorder.
func WithMetrics(rec Recorder) Option {
	return func(in *Interpreter) {
		in.metrics = rec
	}
}

// WithTracer sets the tracer runs are recorded with.
func WithTracer(tracer trace.Tracer) Option {
	return func(in *Interpreter) {
		in.tracer = tracer
	}
}

// NewInterpreter creates an interpreter. coefficients may be nil, in which
// case every coefficient is absent.
func NewInterpreter(coefficients *coefficient.Resolver, opts ...Option) *Interpreter {
	in := &Interpreter{
		coefficients: coefficients,
		logger:       slog.Default(),
		tracer:       tracing.Noop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// run is the state of one Run call.
type run struct {
	*Interpreter
	ctx    context.Context
	tenant string
	model  *Model
	pool   *Pool
	logger *slog.Logger
}

// Run merges inputs over the model's variables and executes the model's
// formulas. It always returns a pool; line failures leave absent values.
func (in *Interpreter) Run(ctx context.Context, tenant string, model *Model, inputs []Entry) *Pool {
	start := time.Now()
	ctx, span := in.tracer.Start(ctx, tracing.SpanRun,
		trace.WithAttributes(tracing.RunAttributes(tenant, model.CalculatorID)...),
		trace.WithAttributes(tracing.AttrFormulas.Int(len(model.Formulas))),
	)
	defer span.End()

	pool := Merge(model.Variables, inputs)

	if len(model.Formulas) == 0 {
		in.logger.Debug("Calculator has no formulas", "calculator_id", model.CalculatorID)
		in.recordRun(model.CalculatorID, StatusEmpty, time.Since(start))
		return pool
	}

	r := &run{
		Interpreter: in,
		ctx:         ctx,
		tenant:      tenant,
		model:       model,
		pool:        pool,
		logger:      in.logger.With("calculator_id", model.CalculatorID),
	}

	lines, failed := 0, 0
	for _, f := range model.Formulas {
		for _, line := range f.Ordered() {
			outcome := r.execute(f.Name, line)
			in.recordLine(model.CalculatorID, outcome)
			lines++
			if outcome == LineFailed {
				failed++
			}
		}
	}
	span.SetAttributes(
		tracing.AttrLines.Int(lines),
		tracing.AttrFailedLines.Int(failed),
		tracing.AttrVariables.Int(pool.Len()),
	)

	in.logger.Debug("Calculator run completed",
		"calculator_id", model.CalculatorID,
		"formulas", len(model.Formulas),
		"duration", time.Since(start),
	)
	in.recordRun(model.CalculatorID, StatusCompleted, time.Since(start))
	return pool
}

func (r *run) execute(formula string, line Line) string {
	if line.gated() && !r.condition(formula, line) {
		return LineSkipped
	}

	left := r.operand(line.Left)
	right := r.operand(line.Right)

	outcome := LineExecuted
	result, err := Apply(line.Operator, left, right)
	if err != nil {
		r.logger.Warn("Formula line failed",
			"formula", formula,
			"result", line.Result,
			"error", err,
		)
		outcome = LineFailed
	}

	result, ok := PostProcess(line.PostProcessor, result)
	if !ok {
		r.logger.Warn("Unknown post-processor ignored",
			"formula", formula,
			"post_processor", line.PostProcessor,
		)
	}

	if line.Result != "" {
		r.pool.Set(line.Result, result)
	}
	return outcome
}

// condition evaluates the line's gate. Absent operands and comparison
// errors make it false.
func (r *run) condition(formula string, line Line) bool {
	op, err := coefficient.ParseOperator(line.ConditionOperator)
	if err != nil {
		r.logger.Warn("Invalid condition operator", "formula", formula, "error", err)
		return false
	}

	left := r.operand(line.ConditionLeft)
	right := r.operand(line.ConditionRight)
	if left == nil || right == nil {
		return false
	}

	match, err := coefficient.Compare(op, coefficient.InferKind(*left, *right), *left, *right)
	if err != nil {
		r.logger.Warn("Condition evaluation failed", "formula", formula, "error", err)
		return false
	}
	return match
}

// operand returns the current value for code. Coefficient entries are
// resolved first and the result stored back into the pool. A code that
// names no entry is a literal.
func (r *run) operand(code string) *string {
	if code == "" {
		return nil
	}

	e, ok := r.pool.Get(code)
	if !ok {
		return StringValue(code)
	}
	if e.Type == variables.SourceCoefficient {
		value := r.lookupCoefficient(code)
		r.pool.Set(code, value)
		return value
	}
	return e.Value
}

func (r *run) lookupCoefficient(code string) *string {
	def, ok := r.model.Coefficient(code)
	if !ok {
		r.logger.Warn("Coefficient has no column definition", "code", code)
		return nil
	}
	if r.coefficients == nil {
		return nil
	}

	scope := coefficient.Scope{
		Tenant:       r.tenant,
		CalculatorID: r.model.CalculatorID,
		Code:         code,
	}
	value, found := r.coefficients.Value(r.ctx, scope, r.pool, def.Columns)
	if !found {
		return nil
	}
	return StringValue(value)
}

func (in *Interpreter) recordRun(calculator, status string, d time.Duration) {
	if in.metrics != nil {
		in.metrics.RecordRun(calculator, status, d)
	}
}

func (in *Interpreter) recordLine(calculator, outcome string) {
	if in.metrics != nil {
		in.metrics.RecordLine(calculator, outcome)
	}
}
