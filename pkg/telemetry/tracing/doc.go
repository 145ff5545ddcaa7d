// Package tracing provides OpenTelemetry tracing of pricing runs.
//
// A quote produces one trace: a rating.pricing.quote span with a
// rating.formula.run child, which in turn holds one
// rating.coefficient.lookup span per coefficient fetched. Spans are exported
// over OTLP gRPC.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	interp := formula.NewInterpreter(resolver, formula.WithTracer(tracer.Tracer()))
//
// When tracing is disabled the tracer is a no-op and adds no measurable
// cost.
package tracing
