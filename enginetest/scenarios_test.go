package enginetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/pipeline"
	"github.com/tenzir-community/tenzirgo/pipeline/builtin"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func recordType(t *testing.T, fields ...tsql.Field) tsql.Type {
	rec, err := tsql.NewRecord(fields)
	require.NoError(t, err)
	return rec
}

// TestScenario1FilterThenSelect grounds spec.md §8 end-to-end scenario 1:
// schema {x: int64, y: string}, rows (1,"a"),(2,"b"),(3,"c"), pipeline
// `where x >= 2 | select y`, output one slice {y: string} with rows
// ["b", "c"].
func TestScenario1FilterThenSelect(t *testing.T) {
	schema := recordType(t, tsql.Field{Name: "x", Type: tsql.Int64}, tsql.Field{Name: "y", Type: tsql.String})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1), tsql.NewString("a"))
	b.AddRow(tsql.NewInt64(2), tsql.NewString("b"))
	b.AddRow(tsql.NewInt64(3), tsql.NewString("c"))
	input, err := b.Build(nil)
	require.NoError(t, err)

	pred := expr.NewBinary(expr.OpGe, expr.NewField("x"), expr.NewLiteral(tsql.NewInt64(2)))
	steps := []pipeline.Step{
		pipeline.Where(pred),
		builtin.Select("y"),
	}

	out, diags, err := RunToStore(steps, []*table.Slice{input})
	require.NoError(t, err)
	require.False(t, diags.HasError())
	require.Len(t, out, 1)

	result := out[0]
	require.Equal(t, 2, result.Rows())
	_, _, ok := result.Schema().Resolve("x")
	require.False(t, ok)
	_, _, ok = result.Schema().Resolve("y")
	require.True(t, ok)

	y0, ok := result.Columns()[0].At(0).Materialize().String()
	require.True(t, ok)
	require.Equal(t, "b", y0)
	y1, ok := result.Columns()[0].At(1).Materialize().String()
	require.True(t, ok)
	require.Equal(t, "c", y1)
}

// TestScenario2PutReplacesSchema grounds spec.md §8 end-to-end scenario 2:
// input row {a:1, b:2}, pipeline `put sum = a + b`, output one row
// {sum: 3} — the schema is replaced by the single named field.
func TestScenario2PutReplacesSchema(t *testing.T) {
	schema := recordType(t, tsql.Field{Name: "a", Type: tsql.Int64}, tsql.Field{Name: "b", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewInt64(1), tsql.NewInt64(2))
	input, err := b.Build(nil)
	require.NoError(t, err)

	sum := expr.NewCall("+", expr.Arg{Expr: expr.NewField("a")}, expr.Arg{Expr: expr.NewField("b")})
	steps := []pipeline.Step{
		builtin.Put(builtin.Assignment{Field: "sum", Value: sum}),
	}

	out, diags, err := RunToStore(steps, []*table.Slice{input})
	require.NoError(t, err)
	require.False(t, diags.HasError())
	require.Len(t, out, 1)

	result := out[0]
	require.Equal(t, 1, result.Rows())
	require.Len(t, result.Schema().Fields(), 1)
	require.Equal(t, "sum", result.Schema().Fields()[0].Name)

	v, ok := result.Columns()[0].At(0).Materialize().Int64()
	require.True(t, ok)
	require.Equal(t, int64(3), v)
}

// TestScenario1EmptyInputProducesNoRows grounds the boundary behaviour of
// spec.md §8: an empty slice through any operator produces no output
// elements other than empty-yield signals.
func TestScenario1EmptyInputProducesNoRows(t *testing.T) {
	schema := recordType(t, tsql.Field{Name: "x", Type: tsql.Int64})
	b := table.NewBuilder(schema)
	empty, err := b.Build(nil)
	require.NoError(t, err)

	pred := expr.NewBinary(expr.OpGe, expr.NewField("x"), expr.NewLiteral(tsql.NewInt64(0)))
	steps := []pipeline.Step{pipeline.Where(pred)}

	out, diags, err := RunToStore(steps, []*table.Slice{empty})
	require.NoError(t, err)
	require.False(t, diags.HasError())
	require.Empty(t, out)
}
