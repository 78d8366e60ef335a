package memtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/tsql"
	"github.com/tenzir-community/tenzirgo/table"
)

func portSchema(t *testing.T) tsql.Type {
	rec, err := tsql.NewRecord([]tsql.Field{{Name: "port", Type: tsql.Int64}})
	require.NoError(t, err)
	return rec
}

func portBatch(t *testing.T, values ...int64) *table.Slice {
	b := table.NewBuilder(portSchema(t))
	for _, v := range values {
		b.AddRow(tsql.NewInt64(v))
	}
	s, err := b.Build(nil)
	require.NoError(t, err)
	return s
}

func TestScanIndexerMatchesPredicate(t *testing.T) {
	rows := portBatch(t, 22, 80, 443, 8080)
	idx := &ScanIndexer{Rows: rows}

	pred := expr.NewBinary(expr.OpLt, expr.NewField("port"), expr.NewLiteral(tsql.NewInt64(1024)))
	bm, err := idx.Lookup(context.Background(), pred)
	require.NoError(t, err)
	require.True(t, bm.Contains(0))
	require.True(t, bm.Contains(1))
	require.True(t, bm.Contains(2))
	require.False(t, bm.Contains(3))
}

func TestSourceEmitsBatchesThenDone(t *testing.T) {
	b1 := portBatch(t, 1, 2)
	b2 := portBatch(t, 3)
	src := Source([]*table.Slice{b1, b2})

	ctrl := &fakeController{}
	gen, err := src.Instantiate(nil, ctrl)
	require.NoError(t, err)

	y1, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y1.Kind)
	require.Same(t, b1, y1.Element.Events)

	y2, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Same(t, b2, y2.Element.Events)

	y3, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Done, y3.Kind)
}

func TestSinkAppendsEveryUpstreamBatch(t *testing.T) {
	b1 := portBatch(t, 1)
	b2 := portBatch(t, 2)
	upstream := Source([]*table.Slice{b1, b2})
	store := NewStore()
	sink := Sink(store)

	ctrl := &fakeController{}
	upGen, err := upstream.Instantiate(nil, ctrl)
	require.NoError(t, err)
	sinkGen, err := sink.Instantiate(upGen, ctrl)
	require.NoError(t, err)

	for {
		y, err := sinkGen.Next(context.Background())
		require.NoError(t, err)
		if y.Kind == op.Done {
			break
		}
	}

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	require.Same(t, b1, snap[0])
	require.Same(t, b2, snap[1])
}
