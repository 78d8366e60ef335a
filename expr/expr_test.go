package expr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func mustParseIP(s string) net.IP { return net.ParseIP(s) }

func mustSubnet(s string, prefix int) (tsql.Data, error) {
	return tsql.NewSubnet(net.ParseIP(s), prefix)
}

func schemaR(t *testing.T) tsql.Type {
	rec, err := tsql.NewRecord([]tsql.Field{
		{Name: "x", Type: tsql.Int64},
		{Name: "y", Type: tsql.String},
	})
	require.NoError(t, err)
	return rec.Named("R")
}

func sliceR(t *testing.T) *table.Slice {
	b := table.NewBuilder(schemaR(t))
	b.AddRow(tsql.NewInt64(1), tsql.NewString("a"))
	b.AddRow(tsql.NewInt64(2), tsql.NewString("b"))
	b.AddRow(tsql.NewInt64(3), tsql.NewString("c"))
	s, err := b.Build(nil)
	require.NoError(t, err)
	return s
}

func TestFilterWhereXGE2(t *testing.T) {
	s := sliceR(t)
	field := Tailor(NewField("x"), s.Schema())
	ge := NewBinary(OpGe, field, NewLiteral(tsql.NewInt64(2)))
	mask := EvalMask(ge, s, nil)
	require.Equal(t, table.Mask{false, true, true}, mask)
}

func TestNormalizeFlattensAndCollapsesDoubleNegation(t *testing.T) {
	e := NewLogical(OpAnd, NewLogical(OpAnd, trueExpr(), trueExpr()), trueExpr())
	n := Normalize(e)
	require.Equal(t, 3, len(n.Operands))

	doubleNeg := NewNot(NewNot(trueExpr()))
	require.Equal(t, KindLiteral, Normalize(doubleNeg).Kind)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	field := NewField(" a . b ")
	e := NewLogical(OpOr, NewBinary(OpEq, field, NewLiteral(tsql.NewInt64(1))), trueExpr())
	once := Normalize(e)
	twice := Normalize(once)
	require.Equal(t, once.String(), twice.String())
}

func TestTailorUnboundFieldBecomesFalse(t *testing.T) {
	tailored := Tailor(NewField("nope"), schemaR(t))
	require.True(t, IsTriviallyFalse(tailored))
}

func TestRegexEmptyInput(t *testing.T) {
	rec, err := tsql.NewRecord([]tsql.Field{{Name: "s", Type: tsql.String}})
	require.NoError(t, err)
	schema := rec.Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewString(""))
	s, err := b.Build(nil)
	require.NoError(t, err)

	field := Tailor(NewField("s"), schema)
	anchored := NewBinary(OpMatch, field, NewLiteral(tsql.NewString("^$")))
	require.Equal(t, table.Mask{true}, EvalMask(anchored, s, nil))

	plus := NewBinary(OpMatch, field, NewLiteral(tsql.NewString(".+")))
	require.Equal(t, table.Mask{false}, EvalMask(plus, s, nil))
}

func TestSubnetContainmentInExpression(t *testing.T) {
	rec, err := tsql.NewRecord([]tsql.Field{{Name: "addr", Type: tsql.IP}})
	require.NoError(t, err)
	schema := rec.Named("S")
	b := table.NewBuilder(schema)
	b.AddRow(tsql.NewIP(mustParseIP("192.168.0.5")))
	s, err := b.Build(nil)
	require.NoError(t, err)

	net, err := mustSubnet("192.168.0.0", 24)
	require.NoError(t, err)
	field := Tailor(NewField("addr"), schema)
	in := NewBinary(OpIn, field, NewLiteral(net))
	require.Equal(t, table.Mask{true}, EvalMask(in, s, nil))
}
