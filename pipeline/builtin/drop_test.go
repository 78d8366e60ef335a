package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func TestDropRemovesNamedFields(t *testing.T) {
	schema := recordSchema(t,
		tsql.Field{Name: "x", Type: tsql.Int64},
		tsql.Field{Name: "y", Type: tsql.String},
	)
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1), tsql.NewString("a"))
	s, err := b.Build(nil)
	require.NoError(t, err)

	d := Drop([]string{"y"}, nil)
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := d.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	_, _, ok := y.Element.Events.Schema().Resolve("y")
	require.False(t, ok)
	_, _, ok = y.Element.Events.Schema().Resolve("x")
	require.True(t, ok)
}

func TestDropWholeSchemaYieldsEmpty(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64}).Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	d := Drop(nil, []string{"S"})
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := d.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Empty, y.Kind)
}
