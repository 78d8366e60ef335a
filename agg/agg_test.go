package agg_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tenzir-community/tenzirgo/agg"
	_ "github.com/tenzir-community/tenzirgo/agg/function"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func boolSlice(t *testing.T, values []*bool) *table.Slice {
	t.Helper()
	rec, err := tsql.NewRecord([]tsql.Field{{Name: "v", Type: tsql.Bool}})
	require.NoError(t, err)
	schema := rec.Named("B")
	b := table.NewBuilder(schema)
	for _, v := range values {
		if v == nil {
			b.AddRow(tsql.NullData)
		} else {
			b.AddRow(tsql.NewBool(*v))
		}
	}
	s, err := b.Build(nil)
	require.NoError(t, err)
	return s
}

func ptr(b bool) *bool { return &b }

// TestAnyThreeBatchScenario grounds spec §8 scenario 3: three batches of
// mixed null/false/true resolve to true overall, while the same sequence
// without the final true-containing batch resolves to null.
func TestAnyThreeBatchScenario(t *testing.T) {
	fn, ok := agg.Lookup("any")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)

	batch1 := boolSlice(t, []*bool{nil, ptr(false), nil})
	batch2 := boolSlice(t, []*bool{ptr(false), nil})
	batch3 := boolSlice(t, []*bool{ptr(true)})

	require.NoError(t, inst.Update(batch1, nil))
	require.NoError(t, inst.Update(batch2, nil))

	// Without the final true-containing batch, the result is null.
	without := tsql.NullData
	v := inst.Get()
	require.True(t, v.IsNull())
	require.Equal(t, without.IsNull(), v.IsNull())

	require.NoError(t, inst.Update(batch3, nil))
	v = inst.Get()
	require.False(t, v.IsNull())
	b, ok := v.Bool()
	require.True(t, ok)
	require.True(t, b)
}

func TestAnyAllFalseIsFalseNotNull(t *testing.T) {
	fn, ok := agg.Lookup("any")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)
	require.NoError(t, inst.Update(boolSlice(t, []*bool{ptr(false), ptr(false)}), nil))
	v := inst.Get()
	require.False(t, v.IsNull())
	b, _ := v.Bool()
	require.False(t, b)
}

func TestAnyNoInputIsNull(t *testing.T) {
	fn, ok := agg.Lookup("any")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)
	require.True(t, inst.Get().IsNull())
}

func TestAnyMergeIsAssociative(t *testing.T) {
	fn, ok := agg.Lookup("any")
	require.True(t, ok)

	left, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)
	require.NoError(t, left.Update(boolSlice(t, []*bool{ptr(false)}), nil))

	right, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)
	require.NoError(t, right.Update(boolSlice(t, []*bool{ptr(true)}), nil))

	require.NoError(t, left.Merge(right))
	v := left.Get()
	b, _ := v.Bool()
	require.True(t, b)
}

func intSlice(t *testing.T, values []int64, nulls []bool) *table.Slice {
	t.Helper()
	rec, err := tsql.NewRecord([]tsql.Field{{Name: "v", Type: tsql.Int64}})
	require.NoError(t, err)
	schema := rec.Named("N")
	b := table.NewBuilder(schema)
	for i, v := range values {
		if nulls != nil && nulls[i] {
			b.AddRow(tsql.NullData)
		} else {
			b.AddRow(tsql.NewInt64(v))
		}
	}
	s, err := b.Build(nil)
	require.NoError(t, err)
	return s
}

func TestMaxTracksRunningMaximum(t *testing.T) {
	fn, ok := agg.Lookup("max")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{1, 5, 3}, nil), nil))
	v := inst.Get()
	i, _ := v.Int64()
	require.Equal(t, int64(5), i)
}

func TestMaxNullTaintsResult(t *testing.T) {
	fn, ok := agg.Lookup("max")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{1, 0, 3}, []bool{false, true, false}), nil))
	require.True(t, inst.Get().IsNull())
}

func TestMaxSaveRestoreRoundTrip(t *testing.T) {
	fn, ok := agg.Lookup("max")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{7, 2}, nil), nil))

	blob, err := inst.Save()
	require.NoError(t, err)

	fresh, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	fresh.Restore(blob, nil)
	v := fresh.Get()
	i, _ := v.Int64()
	require.Equal(t, int64(7), i)
}

func TestCountDistinctCountsUniqueNonNullValues(t *testing.T) {
	fn, ok := agg.Lookup("count_distinct")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{1, 1, 2, 0}, []bool{false, false, false, true}), nil))
	v := inst.Get()
	u, ok := v.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(2), u)
}

func TestModePicksMostFrequentValue(t *testing.T) {
	fn, ok := agg.Lookup("mode")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{1, 2, 2, 3}, nil), nil))
	v := inst.Get()
	i, _ := v.Int64()
	require.Equal(t, int64(2), i)
}

func TestEntropyOfSingleValueIsZero(t *testing.T) {
	fn, ok := agg.Lookup("entropy")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Int64})
	require.NoError(t, err)
	require.NoError(t, inst.Update(intSlice(t, []int64{1, 1, 1}, nil), nil))
	v := inst.Get()
	d, _ := v.Double()
	require.Equal(t, 0.0, d)
}
