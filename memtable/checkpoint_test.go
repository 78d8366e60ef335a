package memtable

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/agg"
	_ "github.com/tenzir-community/tenzirgo/agg/function"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func TestCheckpointStoreRoundTripsAggregationState(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenCheckpointStore(filepath.Join(dir, "checkpoints.db"))
	require.NoError(t, err)
	defer store.Close()

	fn, ok := agg.Lookup("any")
	require.True(t, ok)
	inst, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)

	schema, err := tsql.NewRecord([]tsql.Field{{Name: "active", Type: tsql.Bool}})
	require.NoError(t, err)
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewBool(true))
	slice, err := b.Build(nil)
	require.NoError(t, err)

	var diags diag.Collector
	require.NoError(t, inst.Update(slice, &diags))
	require.False(t, diags.HasError())

	blob, err := inst.Save()
	require.NoError(t, err)
	require.NoError(t, store.Put("group:host=a", blob))

	got, found, err := store.Get("group:host=a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, blob, got)

	restored, err := fn.New([]tsql.Type{tsql.Bool})
	require.NoError(t, err)
	restored.Restore(got, &diags)
	require.False(t, diags.HasError())

	v, ok := restored.Get().Bool()
	require.True(t, ok)
	require.True(t, v)
}

func TestCheckpointStoreGetMissingKey(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenCheckpointStore(filepath.Join(dir, "checkpoints.db"))
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Get("nope")
	require.NoError(t, err)
	require.False(t, found)
}
