package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func TestMeasureEventsFlushesOnBatchSize(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64}).Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	ctrl := &fakeController{now: time.Unix(0, 0)}
	m := MeasureEvents(1, false, false, time.Hour)
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := m.Instantiate(input, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Equal(t, 1, y.Element.Events.Rows())
	_, idx, ok := y.Element.Events.Schema().Resolve("events")
	require.True(t, ok)
	count, ok := y.Element.Events.Columns()[idx].At(0).Materialize().Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(1), count)
}

func TestMeasureEventsBuffersBelowBatchSize(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64}).Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	ctrl := &fakeController{now: time.Unix(0, 0)}
	m := MeasureEvents(10, false, false, time.Hour)
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) { return op.ProductiveEvents(s), nil })
	gen, err := m.Instantiate(input, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Empty, y.Kind)
}

func TestMeasureFlushesRemainingOnUpstreamDone(t *testing.T) {
	schema := recordSchema(t, tsql.Field{Name: "x", Type: tsql.Int64}).Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1))
	s, err := b.Build(nil)
	require.NoError(t, err)

	ctrl := &fakeController{now: time.Unix(0, 0)}
	m := MeasureEvents(10, false, false, time.Hour)
	calls := 0
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		calls++
		if calls == 1 {
			return op.ProductiveEvents(s), nil
		}
		return op.DoneYield(), nil
	})
	gen, err := m.Instantiate(input, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Empty, y.Kind)

	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Equal(t, 1, y.Element.Events.Rows())

	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Done, y.Kind)
}
