package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func TestPutDropsExistingFields(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	p := Put(Assignment{Field: "y", Value: expr.NewLiteral(tsql.NewInt64(42))})
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := p.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)

	_, _, ok := y.Element.Events.Schema().Resolve("x")
	require.False(t, ok)
	_, idx, ok := y.Element.Events.Schema().Resolve("y")
	require.True(t, ok)
	v, ok2 := y.Element.Events.Columns()[idx].At(0).Materialize().Int64()
	require.True(t, ok2)
	require.Equal(t, int64(42), v)
}

func TestExtendKeepsExistingFields(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	e := Extend(Assignment{Field: "y", Value: expr.NewLiteral(tsql.NewInt64(7))})
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := e.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)

	_, _, ok := y.Element.Events.Schema().Resolve("x")
	require.True(t, ok)
	_, _, ok = y.Element.Events.Schema().Resolve("y")
	require.True(t, ok)
}

func TestExtendCollisionKeepsLastAssignmentAndWarns(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	e := Extend(
		Assignment{Field: "y", Value: expr.NewLiteral(tsql.NewInt64(1))},
		Assignment{Field: "y", Value: expr.NewLiteral(tsql.NewInt64(2))},
	)
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := e.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)

	_, idx, ok := y.Element.Events.Schema().Resolve("y")
	require.True(t, ok)
	v, _ := y.Element.Events.Columns()[idx].At(0).Materialize().Int64()
	require.Equal(t, int64(2), v)
	require.NotEmpty(t, ctrl.diags.Diagnostics())
}
