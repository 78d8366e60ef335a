package op

import (
	"github.com/tenzir-community/tenzirgo/expr"
)

// Order describes whether an operator preserves event order, for the
// optimisation accumulator of spec §4.D/§4.F.
type Order uint8

const (
	// OrderNone: no ordering guarantee is made or required.
	OrderNone Order = iota
	// OrderPreserved: output order equals input production order.
	OrderPreserved
)

// OptimizeResult is what Operator.Optimize returns: the operator to
// substitute (possibly the receiver unchanged), the filter that must
// still be applied downstream (possibly unchanged, possibly `true` if
// fully absorbed), and the order the operator guarantees to preserve.
type OptimizeResult struct {
	Replacement Operator
	Filter      *expr.Expr
	Order       Order
}

// Operator is a typed unit of work with an instantiate/optimise contract
// (spec §4.D).
type Operator interface {
	// Name is a stable identifier, used in logs and lookup.
	Name() string
	InputType() ElementType
	OutputType() ElementType
	Location() Location
	// Internal reports whether user-visible listings should hide this
	// operator (e.g. it exists only as an optimisation artifact).
	Internal() bool
	// Optimize performs a local rewrite given a downstream selection
	// predicate and an ordering requirement. The default behavior (for
	// operators that embed DefaultOptimize) is do-not-optimize: filter
	// and order pass through unchanged.
	Optimize(filter *expr.Expr, order Order) (OptimizeResult, error)
	// Instantiate constructs the per-run generator from the upstream
	// generator and a Controller.
	Instantiate(input Generator, ctrl Controller) (Generator, error)
}

// DefaultOptimize is embedded by operators that do not participate in
// optimisation; it implements the spec §4.D default ("a default
// implementation returns do-not-optimize").
type DefaultOptimize struct{}

func (DefaultOptimize) Optimize(filter *expr.Expr, order Order) (OptimizeResult, error) {
	return OptimizeResult{Filter: filter, Order: order}, nil
}

// Source is an operator whose InputType is Void (it has no upstream).
type Source interface {
	Operator
}

// Sink is an operator whose OutputType is Void (it has no downstream).
type Sink interface {
	Operator
}
