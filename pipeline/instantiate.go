package pipeline

import (
	"github.com/tenzir-community/tenzirgo/exec"
	"github.com/tenzir-community/tenzirgo/op"
)

// Instantiate constructs the per-run Generator chain for p (spec §4.E
// "Instantiation"): each operator is instantiated in order, and the
// instantiation of operator i+1 receives the output sequence of operator
// i. A void-input first operator receives a nil Generator, since it is a
// source and must not read from upstream.
//
// Every operator step is wrapped in exec.TraceOperator so the runtime's
// per-operator-step opentracing spans (spec §4.F) cover the whole chain
// without each operator implementation needing to know about tracing.
func Instantiate(p *Pipeline, ctrl op.Controller) (op.Generator, error) {
	var current op.Generator
	for _, o := range p.Operators {
		next, err := o.Instantiate(current, ctrl)
		if err != nil {
			return nil, err
		}
		current = exec.TraceOperator(o.Name(), next)
	}
	return current, nil
}
