package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/numeric"
	"mercator-hq/rating/pkg/telemetry/tracing"
	"mercator-hq/rating/pkg/variables"
	"mercator-hq/rating/pkg/variables/document"
	"mercator-hq/rating/pkg/variables/magic"
	"mercator-hq/rating/pkg/variables/resolver"
)

// DefaultOutputPath is where results without a calculator-scoped path are
// written.
const DefaultOutputPath = "rating"

// Request is one pricing request.
type Request struct {
	Tenant      string
	Document    []byte
	Definitions *variables.Registry
	Model       *formula.Model

	// Inputs override values resolved from the document.
	Inputs []formula.Entry
}

// Result is the outcome of a pricing run.
type Result struct {
	RunID string
	Pool  *formula.Pool

	// Document is the request document enriched with the results.
	Document []byte

	// Context resolves document variables and, after the run, the pool
	// values. It drives template expansion of print forms.
	Context *resolver.Context
}

// Service prices requests.
type Service struct {
	interpreter *formula.Interpreter
	outputPath  string
	magic       *magic.Catalogue
	resolutions resolver.Recorder
	tracer      trace.Tracer
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithOutputPath sets the document path results are written under.
func WithOutputPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.outputPath = path
		}
	}
}

// WithMagic replaces the magic variable catalogue.
func WithMagic(catalogue *magic.Catalogue) Option {
	return func(s *Service) {
		s.magic = catalogue
	}
}

// WithResolutionMetrics sets the recorder for variable resolutions.
func WithResolutionMetrics(rec resolver.Recorder) Option {
	return func(s *Service) {
		s.resolutions = rec
	}
}

// WithTracer sets the tracer quotes are recorded with.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService creates a pricing service around interpreter.
func NewService(interpreter *formula.Interpreter, opts ...Option) *Service {
	s := &Service{
		interpreter: interpreter,
		outputPath:  DefaultOutputPath,
		magic:       magic.Default(),
		tracer:      tracing.Noop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices req. It fails only for an unusable request or a malformed
// document value feeding a calculator input.
func (s *Service) Quote(ctx context.Context, req Request) (result *Result, err error) {
	if req.Model == nil {
		return nil, errors.New("calculator model is required")
	}

	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, tracing.SpanQuote,
		trace.WithAttributes(tracing.RunAttributes(req.Tenant, req.Model.CalculatorID)...),
		trace.WithAttributes(tracing.AttrRunID.String(runID)),
	)
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	logger := s.logger.With("run_id", runID, "calculator_id", req.Model.CalculatorID)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}

	raw := req.Document
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	doc, err := document.Parse(raw)
	if err != nil {
		return nil, err
	}

	vctx := s.newContext(doc, req.Definitions, logger, nil)

	inputs, err := s.documentInputs(vctx, req.Model)
	if err != nil {
		return nil, err
	}
	inputs = append(inputs, req.Inputs...)

	pool := s.interpreter.Run(ctx, req.Tenant, req.Model, inputs)

	enriched, err := s.enrich(doc.Bytes(), req.Definitions, pool)
	if err != nil {
		return nil, err
	}

	seeded := make(map[string]any, pool.Len())
	for _, e := range pool.Entries() {
		if e.Value != nil {
			seeded[e.Code] = *e.Value
		}
	}
	enrichedDoc, err := document.Parse(enriched)
	if err != nil {
		return nil, fmt.Errorf("enriched document: %w", err)
	}

	logger.Info("Quote priced", "tenant", req.Tenant, "variables", pool.Len())

	return &Result{
		RunID:    runID,
		Pool:     pool,
		Document: enriched,
		Context:  s.newContext(enrichedDoc, req.Definitions, logger, seeded),
	}, nil
}

func (s *Service) newContext(doc document.Document, defs *variables.Registry, logger *slog.Logger, seed map[string]any) *resolver.Context {
	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithMagic(s.magic),
	}
	if seed != nil {
		opts = append(opts, resolver.WithValues(seed))
	}
	if s.resolutions != nil {
		opts = append(opts, resolver.WithMetrics(s.resolutions))
	}
	return resolver.New(doc, defs, opts...)
}

// documentInputs resolves the model's IN and MAGIC variables from the
// context. Variables the context does not define are left to the model.
func (s *Service) documentInputs(vctx *resolver.Context, model *formula.Model) ([]formula.Entry, error) {
	var inputs []formula.Entry
	for _, v := range model.Variables {
		if v.Type != variables.SourceIn && v.Type != variables.SourceMagic {
			continue
		}
		if _, ok := vctx.GetDefinition(v.Code); !ok {
			continue
		}

		value, err := vctx.Get(v.Code)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", v.Code, err)
		}
		if value == nil {
			continue
		}
		text, err := vctx.GetString(v.Code)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", v.Code, err)
		}
		inputs = append(inputs, formula.Entry{Code: v.Code, Value: formula.StringValue(text), Type: v.Type})
	}
	return inputs, nil
}

// enrich writes computed pool values into doc.
func (s *Service) enrich(doc []byte, defs *variables.Registry, pool *formula.Pool) ([]byte, error) {
	for _, e := range pool.Entries() {
		if e.Value == nil {
			continue
		}
		switch e.Type {
		case variables.SourceVar, variables.SourceCalc, variables.SourceCoefficient:
		default:
			continue
		}

		path := s.outputPath + "." + e.Code
		numericValue := false
		if def, ok := defs.Lookup(e.Code); ok {
			if def.Scope == variables.ScopeCalculator && def.HasPath() {
				path = def.Path
			}
			numericValue = def.Type == variables.TypeNumber
		} else {
			_, numericValue = numeric.Parse(*e.Value)
		}

		var err error
		if d, ok := numeric.Parse(*e.Value); ok && numericValue {
			doc, err = document.SetNumber(doc, path, numeric.Format(d))
		} else {
			doc, err = document.SetString(doc, path, *e.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to write %q to %q: %w", e.Code, path, err)
		}
	}
	return doc, nil
}
