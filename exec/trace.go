package exec

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/tenzir-community/tenzirgo/op"
)

// TracedGenerator wraps a Generator so every Next call is one opentracing
// span tagged with the owning operator's name, giving the runtime
// per-operator-step timing without every operator implementation needing
// to know about tracing.
type TracedGenerator struct {
	Name string
	Gen  op.Generator
}

func (t TracedGenerator) Next(ctx context.Context) (op.Yield, error) {
	span, spanCtx := opentracing.StartSpanFromContext(ctx, t.Name)
	defer span.Finish()
	y, err := t.Gen.Next(spanCtx)
	span.SetTag("yield_kind", int(y.Kind))
	if err != nil {
		span.SetTag("error", true)
	}
	return y, err
}

// TraceOperator wraps gen in a TracedGenerator under name, for use by the
// pipeline's instantiation step (each operator's Generator gets one span
// per pull).
func TraceOperator(name string, gen op.Generator) op.Generator {
	return TracedGenerator{Name: name, Gen: gen}
}
