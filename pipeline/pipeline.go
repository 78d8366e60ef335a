// Package pipeline implements the composition layer of spec §4.E: flat or
// nested vector construction with in-place splicing, left-to-right
// adjacency checking, a single idempotent optimisation pass, and ordered
// instantiation.
//
// Grounded on the teacher's sql/analyzer: a rule-based, idempotent tree
// rewrite invoked once on a fully built plan (engine.go's Analyze call and
// its caching of already-analyzed statements, which only makes sense if a
// second Analyze of the same plan is a no-op).
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/tenzir-community/tenzirgo/op"
)

// Step is one element of the vector passed to New: either an op.Operator,
// or a nested []Step (or []op.Operator) that splices in place. This models
// spec §4.E's "flat or nested vector of operators".
type Step interface{}

// Pipeline is a composed, adjacency-checked chain of operators.
type Pipeline struct {
	Operators []op.Operator
}

// New flattens steps (splicing any nested vectors in place), checks
// left-to-right adjacency, and returns the composed Pipeline. The first
// adjacency violation is reported with both offending operator names and
// their conflicting element types, per spec §4.E.
func New(steps ...Step) (*Pipeline, error) {
	flat, err := flatten(steps)
	if err != nil {
		return nil, err
	}
	if err := checkAdjacency(flat); err != nil {
		return nil, err
	}
	return &Pipeline{Operators: flat}, nil
}

func flatten(steps []Step) ([]op.Operator, error) {
	var out []op.Operator
	for _, s := range steps {
		switch v := s.(type) {
		case op.Operator:
			out = append(out, v)
		case []Step:
			sub, err := flatten(v)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case []op.Operator:
			out = append(out, v...)
		case *Pipeline:
			out = append(out, v.Operators...)
		case nil:
			// skip: lets callers conditionally omit a step
		default:
			return nil, errors.Errorf("pipeline: step of type %T is neither an operator nor a nested vector of steps", s)
		}
	}
	return out, nil
}

// checkAdjacency implements spec §8 property 5: a composed pipeline
// rejects adjacency iff the output/input element types differ, or either
// is void in a non-void position. The only valid void occurrences are the
// first operator's input (it is a source) and the last operator's output
// (it is a sink).
func checkAdjacency(ops []op.Operator) error {
	if len(ops) == 0 {
		return errors.New("pipeline: empty operator chain")
	}
	first := ops[0]
	if first.InputType() != op.Void {
		return errors.Errorf("pipeline: %q must be a source (input_type void) but declares input_type %s", first.Name(), first.InputType())
	}
	last := ops[len(ops)-1]
	if last.OutputType() != op.Void {
		return errors.Errorf("pipeline: %q must be a sink (output_type void) but declares output_type %s", last.Name(), last.OutputType())
	}
	for i := 0; i+1 < len(ops); i++ {
		a, b := ops[i], ops[i+1]
		if a.OutputType() != b.InputType() {
			return errors.Errorf("pipeline: adjacency violation between %q (output %s) and %q (input %s)",
				a.Name(), a.OutputType(), b.Name(), b.InputType())
		}
		if a.OutputType() == op.Void {
			return errors.Errorf("pipeline: %q (output void) cannot feed %q; only the final operator may have output_type void", a.Name(), b.Name())
		}
	}
	for i := 1; i < len(ops); i++ {
		if ops[i].InputType() == op.Void {
			return errors.Errorf("pipeline: %q (input void) cannot follow %q; only the first operator may have input_type void", ops[i].Name(), ops[i-1].Name())
		}
	}
	return nil
}
