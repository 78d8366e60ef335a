package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"time"

	"github.com/sirupsen/logrus"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/secret"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// fakeController is a minimal op.Controller test double.
type fakeController struct {
	diags diag.Collector
}

func (c *fakeController) Diagnostics() diag.Sink { return &c.diags }
func (c *fakeController) SetWaiting(bool)        {}
func (c *fakeController) Cancelled() bool        { return false }
func (c *fakeController) IsTerminal() bool       { return false }
func (c *fakeController) ResolveSecret(req secret.Request) <-chan secret.Result {
	ch := make(chan secret.Result, 1)
	ch <- secret.Result{Err: &secret.NotFoundError{Name: req.Name}}
	return ch
}
func (c *fakeController) Now() time.Time        { return time.Unix(0, 0) }
func (c *fakeController) Log() *logrus.Entry    { return logrus.NewEntry(logrus.StandardLogger()) }

// fakeOperator is a minimal op.Operator test double with fixed element
// types, used to exercise adjacency checking without a real operator
// implementation.
type fakeOperator struct {
	op.DefaultOptimize
	name  string
	in    op.ElementType
	out   op.ElementType
}

func (f fakeOperator) Name() string               { return f.name }
func (f fakeOperator) InputType() op.ElementType  { return f.in }
func (f fakeOperator) OutputType() op.ElementType { return f.out }
func (f fakeOperator) Location() op.Location      { return op.Anywhere }
func (f fakeOperator) Internal() bool              { return false }
func (f fakeOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.DoneYield(), nil }), nil
}

func TestNewRejectsAdjacencyMismatch(t *testing.T) {
	src := fakeOperator{name: "bytes_source", in: op.Void, out: op.Bytes}
	sink := fakeOperator{name: "events_sink", in: op.Events, out: op.Void}
	_, err := New(src, sink)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bytes_source")
	require.Contains(t, err.Error(), "events_sink")
}

func TestNewAcceptsMatchingChain(t *testing.T) {
	src := fakeOperator{name: "source", in: op.Void, out: op.Events}
	mid := fakeOperator{name: "transform", in: op.Events, out: op.Events}
	sink := fakeOperator{name: "sink", in: op.Events, out: op.Void}
	p, err := New(src, mid, sink)
	require.NoError(t, err)
	require.Len(t, p.Operators, 3)
}

func TestNewSplicesNestedSteps(t *testing.T) {
	src := fakeOperator{name: "source", in: op.Void, out: op.Events}
	mid := fakeOperator{name: "transform", in: op.Events, out: op.Events}
	sink := fakeOperator{name: "sink", in: op.Events, out: op.Void}
	nested := []Step{mid, mid}
	p, err := New(src, nested, sink)
	require.NoError(t, err)
	require.Len(t, p.Operators, 4)
	require.Equal(t, "source", p.Operators[0].Name())
	require.Equal(t, "sink", p.Operators[3].Name())
}

func TestNewRejectsVoidInMiddle(t *testing.T) {
	src := fakeOperator{name: "source", in: op.Void, out: op.Events}
	badMid := fakeOperator{name: "bad", in: op.Events, out: op.Void}
	sink := fakeOperator{name: "sink", in: op.Events, out: op.Void}
	_, err := New(src, badMid, sink)
	require.Error(t, err)
}

func schemaS(t *testing.T) tsql.Type {
	rec, err := tsql.NewRecord([]tsql.Field{
		{Name: "x", Type: tsql.Int64},
	})
	require.NoError(t, err)
	return rec.Named("S")
}

func TestOptimizeIsIdempotent(t *testing.T) {
	src := fakeOperator{name: "source", in: op.Void, out: op.Events}
	w := Where(expr.NewBinary(expr.OpGt, expr.NewField("x"), expr.NewLiteral(tsql.NewInt64(0))))
	sink := fakeOperator{name: "sink", in: op.Events, out: op.Void}
	p, err := New(src, w, sink)
	require.NoError(t, err)

	once, err := Optimize(p)
	require.NoError(t, err)
	twice, err := Optimize(once)
	require.NoError(t, err)

	require.Equal(t, len(once.Operators), len(twice.Operators))
	for i := range once.Operators {
		require.Equal(t, once.Operators[i].Name(), twice.Operators[i].Name())
	}
}

func TestOptimizeInsertsResidualWhereAfterSource(t *testing.T) {
	src := fakeOperator{name: "source", in: op.Void, out: op.Events}
	sink := fakeOperator{name: "sink", in: op.Events, out: op.Void}
	p, err := New(src, sink)
	require.NoError(t, err)

	// A sink that requests a downstream filter (as `where` pushdown
	// would if `sink` were actually `where` sitting at the tail) is
	// simulated here by directly invoking Optimize's internal splice
	// path via a synthetic filter: since fakeOperator's default Optimize
	// passes the filter through unchanged, the leftover filter must
	// surface as a spliced `where` right after the source.
	filtered := fakeOperatorWithFilter{fakeOperator: sink, filter: expr.NewBinary(expr.OpEq, expr.NewField("x"), expr.NewLiteral(tsql.NewInt64(1)))}
	p.Operators[1] = filtered

	out, err := Optimize(p)
	require.NoError(t, err)
	require.Len(t, out.Operators, 3)
	require.Equal(t, "where", out.Operators[1].Name())
}

// fakeOperatorWithFilter reports a residual filter from Optimize instead
// of passing the accumulator through unchanged, modelling an operator
// that itself cannot absorb any filter (e.g. a sink).
type fakeOperatorWithFilter struct {
	fakeOperator
	filter *expr.Expr
}

func (f fakeOperatorWithFilter) Optimize(filter *expr.Expr, order op.Order) (op.OptimizeResult, error) {
	return op.OptimizeResult{Replacement: f, Filter: f.filter, Order: order}, nil
}

func TestWhereFiltersRows(t *testing.T) {
	schema := schemaS(t)
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	b.AddRow(tsql.NewInt64(2))
	b.AddRow(tsql.NewInt64(3))
	s, err := b.Build(nil)
	require.NoError(t, err)

	w := Where(expr.NewBinary(expr.OpGe, expr.NewField("x"), expr.NewLiteral(tsql.NewInt64(2))))
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		return op.ProductiveEvents(s), nil
	})
	gen, err := w.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Equal(t, 2, y.Element.Events.Rows())
}
