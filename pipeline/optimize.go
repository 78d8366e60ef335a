package pipeline

import (
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// trueLiteral is the optimisation accumulator's starting filter: "no
// constraint yet", represented the same way a tailored predicate literal
// is (spec §4.H already treats a literal-true node as the trivial case).
func trueLiteral() *expr.Expr { return expr.NewLiteral(tsql.NewBool(true)) }

func isTrivialTrue(e *expr.Expr) bool {
	if e == nil || e.Kind != expr.KindLiteral {
		return false
	}
	b, ok := e.Literal.Bool()
	return ok && b
}

// Optimize runs the single optimisation pass of spec §4.E over p, walking
// the chain right-to-left with a (filter, order) accumulator as spec
// §4.D's "Optimisation protocol" describes, and returns the rewritten
// Pipeline. It is idempotent (spec §8 property 6): optimizing an already
// optimized chain reaches a fixed point because an operator that fully
// absorbed a filter resets the accumulator to trivial-true, and
// Optimize(trivial-true, order) against that same operator again absorbs
// nothing further.
//
// Any filter left over after the leftmost operator has had a chance to
// absorb it (the source itself, which has no further upstream to push
// into) is materialized as an explicit `where` operator spliced
// immediately after the source.
func Optimize(p *Pipeline) (*Pipeline, error) {
	ops := p.Operators
	out := make([]op.Operator, len(ops))
	filter := trueLiteral()
	order := op.OrderNone
	for i := len(ops) - 1; i >= 0; i-- {
		res, err := ops[i].Optimize(filter, order)
		if err != nil {
			return nil, err
		}
		out[i] = res.Replacement
		if out[i] == nil {
			out[i] = ops[i]
		}
		filter = res.Filter
		if filter == nil {
			filter = trueLiteral()
		}
		order = res.Order
	}

	if isTrivialTrue(filter) {
		return &Pipeline{Operators: out}, nil
	}

	residual := newWhereOperator(filter)
	spliced := make([]op.Operator, 0, len(out)+1)
	spliced = append(spliced, out[0])
	spliced = append(spliced, residual)
	spliced = append(spliced, out[1:]...)
	return &Pipeline{Operators: spliced}, nil
}
