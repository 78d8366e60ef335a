package pipeline

import (
	"context"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
)

// whereOperator evaluates Predicate as a boolean mask over every incoming
// events batch and drops the rows it rejects (spec §4.B `filter`). It is
// also the materialization Optimize uses for a filter residual that
// couldn't be pushed any further upstream than the source.
type whereOperator struct {
	Predicate *expr.Expr
}

// newWhereOperator is used internally by Optimize to splice a residual
// filter back into the chain.
func newWhereOperator(pred *expr.Expr) op.Operator {
	return &whereOperator{Predicate: pred}
}

// Where is the user-facing constructor for an explicit `where` pipeline
// step: drop every row for which pred does not evaluate to true.
func Where(pred *expr.Expr) op.Operator { return newWhereOperator(pred) }

func (w *whereOperator) Name() string          { return "where" }
func (w *whereOperator) InputType() op.ElementType  { return op.Events }
func (w *whereOperator) OutputType() op.ElementType { return op.Events }
func (w *whereOperator) Location() op.Location { return op.Anywhere }
func (w *whereOperator) Internal() bool        { return false }

// Optimize absorbs a downstream filter by conjoining it with its own
// predicate (spec §4.D "absorb the filter entirely"): the combined
// predicate becomes the replacement operator's new Predicate and the
// residual reduces to trivial-true, since both halves are now enforced
// here.
func (w *whereOperator) Optimize(filter *expr.Expr, order op.Order) (op.OptimizeResult, error) {
	if isTrivialTrue(filter) {
		return op.OptimizeResult{Replacement: w, Filter: filter, Order: order}, nil
	}
	combined := &whereOperator{Predicate: expr.NewLogical(expr.OpAnd, w.Predicate, filter)}
	return op.OptimizeResult{Replacement: combined, Filter: trueLiteral(), Order: order}, nil
}

func (w *whereOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil || y.Kind != op.Productive {
			return y, err
		}
		s := y.Element.Events
		tailored := expr.Tailor(w.Predicate, s.Schema())
		if expr.IsTriviallyFalse(tailored) {
			return op.EmptyYield(), nil
		}
		mask := expr.EvalMask(tailored, s, ctrl.Diagnostics())
		out, err := table.Filter(s, mask)
		if err != nil {
			ctrl.Diagnostics().Emit(diag.Errorf("where: %s", err).Done())
			return op.Yield{}, err
		}
		if out == nil {
			return op.EmptyYield(), nil
		}
		return op.ProductiveEvents(out), nil
	}), nil
}
