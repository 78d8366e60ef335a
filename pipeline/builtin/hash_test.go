package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func TestHashAppendsDigestColumn(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "ip", Type: tsql.String})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewString("10.0.0.1"))
	s, err := b.Build(nil)
	require.NoError(t, err)

	h := Hash("ip", "ip_hash", "")
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := h.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)

	field, idx, ok := y.Element.Events.Schema().Resolve("ip_hash")
	require.True(t, ok)
	require.Equal(t, tsql.KindString, field.Type.Kind())
	digest, ok := y.Element.Events.Columns()[idx].At(0).Materialize().String()
	require.True(t, ok)
	require.Len(t, digest, 16)

	// Still has the original field, untouched.
	_, _, ok = y.Element.Events.Schema().Resolve("ip")
	require.True(t, ok)
}

func TestHashIsNoOpWhenFieldAbsent(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	h := Hash("ip", "ip_hash", "")
	ctrl := &fakeController{}
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := h.Instantiate(input, ctrl)
	require.NoError(t, err)
	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	_, _, ok := y.Element.Events.Schema().Resolve("ip_hash")
	require.False(t, ok)
}

func TestHashSaltChangesDigest(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.String})
	b1 := table.NewBuilder(schema)
	b1.AddRow(tsql.NewString("v"))
	s1, err := b1.Build(nil)
	require.NoError(t, err)
	b2 := table.NewBuilder(schema)
	b2.AddRow(tsql.NewString("v"))
	s2, err := b2.Build(nil)
	require.NoError(t, err)

	ctrl := &fakeController{}
	unsalted := Hash("x", "h", "")
	salted := Hash("x", "h", "pepper")

	gen1, err := unsalted.Instantiate(op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s1), nil }), ctrl)
	require.NoError(t, err)
	y1, err := gen1.Next(context.Background())
	require.NoError(t, err)

	gen2, err := salted.Instantiate(op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s2), nil }), ctrl)
	require.NoError(t, err)
	y2, err := gen2.Next(context.Background())
	require.NoError(t, err)

	_, idx1, _ := y1.Element.Events.Schema().Resolve("h")
	_, idx2, _ := y2.Element.Events.Schema().Resolve("h")
	d1, _ := y1.Element.Events.Columns()[idx1].At(0).Materialize().String()
	d2, _ := y2.Element.Events.Columns()[idx2].At(0).Materialize().String()
	require.NotEqual(t, d1, d2)
}
