package table

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func schemaR(t *testing.T) tsql.Type {
	rec, err := tsql.NewRecord([]tsql.Field{
		{Name: "x", Type: tsql.Int64},
		{Name: "y", Type: tsql.String},
	})
	require.NoError(t, err)
	return rec.Named("R")
}

func buildRows(t *testing.T) *Slice {
	b := NewBuilder(schemaR(t))
	b.AddRow(tsql.NewInt64(1), tsql.NewString("a"))
	b.AddRow(tsql.NewInt64(2), tsql.NewString("b"))
	b.AddRow(tsql.NewInt64(3), tsql.NewString("c"))
	s, err := b.Build(nil)
	require.NoError(t, err)
	return s
}

func TestTransformColumnsPreservesRowCountAndOriginal(t *testing.T) {
	s := buildRows(t)

	out, err := TransformColumns(s, []ColumnTransform{{
		LeafIndex: 1,
		Fn: func(field tsql.Field, col *Column) ([]TransformedColumn, error) {
			upper := NewColumn(tsql.String, col.Len())
			for i := 0; i < col.Len(); i++ {
				v, _ := col.At(i).Materialize().String()
				upper.Set(i, tsql.NewString(v+"!"))
			}
			return []TransformedColumn{{Field: field, Column: upper}}, nil
		},
	}})
	require.NoError(t, err)
	require.Equal(t, s.Rows(), out.Rows())

	// original slice unchanged (spec §8 property 3)
	v, _ := s.At(0, 1).Materialize().String()
	require.Equal(t, "a", v)

	v2, _ := out.At(0, 1).Materialize().String()
	require.Equal(t, "a!", v2)
}

func TestFilterSelectivity(t *testing.T) {
	s := buildRows(t)
	mask := Mask{true, false, true}
	out, err := Filter(s, mask)
	require.NoError(t, err)
	require.Equal(t, 2, out.Rows())

	v0, _ := out.At(0, 0).Materialize().Int64()
	v1, _ := out.At(1, 0).Materialize().Int64()
	require.Equal(t, int64(1), v0)
	require.Equal(t, int64(3), v1)
}

func TestFilterAllFalseYieldsNil(t *testing.T) {
	s := buildRows(t)
	out, err := Filter(s, Mask{false, false, false})
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestFilterRejectsMismatchedMaskLength(t *testing.T) {
	s := buildRows(t)
	_, err := Filter(s, Mask{true, false})
	require.Error(t, err)
}

func TestSubsliceNoColumnCopy(t *testing.T) {
	s := buildRows(t)
	sub, err := s.Subslice(1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, sub.Rows())
	v, _ := sub.At(0, 0).Materialize().Int64()
	require.Equal(t, int64(2), v)
}
