package tsql

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func asSubnetParts(ip string, prefix int) (net.IP, int, bool, error) {
	d, err := NewSubnet(net.ParseIP(ip), prefix)
	if err != nil {
		return nil, 0, false, err
	}
	n, p, ok := d.Subnet()
	return n, p, ok, nil
}

func mustIP(ip string) net.IP { return net.ParseIP(ip) }

func TestTypeRoundTrip(t *testing.T) {
	rec, err := NewRecord([]Field{
		{Name: "x", Type: Int64},
		{Name: "y", Type: NewList(String).WithAttributes(Attribute{Key: "skip", Value: "true"})},
		{Name: "z", Type: NewRecord2(t)},
	})
	require.NoError(t, err)
	named := rec.Named("tenzir.line")

	printed := Print(named)
	parsed, err := Parse(printed)
	require.NoError(t, err)
	require.True(t, named.Equal(parsed), "expected %s to round-trip, got %s", printed, Print(parsed))
}

func NewRecord2(t *testing.T) Type {
	r, err := NewRecord([]Field{{Name: "inner", Type: Bool}})
	require.NoError(t, err)
	return r
}

func TestCongruenceIgnoresAttributesAndNames(t *testing.T) {
	a := Int64.WithAttributes(Attribute{Key: "internal", Value: "true"}).Named("tenzir.count")
	b := Int64

	require.True(t, a.Congruent(b))
	require.False(t, a.Equal(b))
}

func TestEnumOrdinalsMustBeContiguous(t *testing.T) {
	_, err := NewEnum([]EnumVariant{{Name: "a", Ordinal: 0}, {Name: "b", Ordinal: 2}})
	require.Error(t, err)
}

func TestRecordRejectsDuplicateFieldNames(t *testing.T) {
	_, err := NewRecord([]Field{{Name: "a", Type: Int64}, {Name: "a", Type: String}})
	require.Error(t, err)
}

func TestResolveLongestSuffix(t *testing.T) {
	rec, err := NewRecord([]Field{
		{Name: "a", Type: mustRecord(t, []Field{{Name: "b", Type: mustRecord(t, []Field{{Name: "s", Type: Int64}})}})},
	})
	require.NoError(t, err)

	field, idx, ok := rec.Resolve("s")
	require.True(t, ok)
	require.Equal(t, 0, idx)
	require.Equal(t, "s", field.Name)

	_, _, ok = rec.Resolve("xs")
	require.False(t, ok, "xs must not match a.b.s by naive substring")
}

func mustRecord(t *testing.T, fields []Field) Type {
	r, err := NewRecord(fields)
	require.NoError(t, err)
	return r
}

func TestFingerprintStable(t *testing.T) {
	a := mustRecord(t, []Field{{Name: "x", Type: Int64}}).Named("S1")
	b := mustRecord(t, []Field{{Name: "x", Type: Int64}}).Named("S1")
	c := mustRecord(t, []Field{{Name: "x", Type: Uint64}}).Named("S1")

	require.Equal(t, Fingerprint(a), Fingerprint(b))
	require.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestSubnetContainsAcrossV4V6(t *testing.T) {
	network, prefix, ok, err := asSubnetParts("192.168.0.0", 24)
	require.NoError(t, err)
	require.True(t, ok)
	addr := mustIP("192.168.0.5")
	require.True(t, SubnetContains(network, prefix, addr))
}
