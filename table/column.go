// Package table implements the columnar batch (table slice): an immutable
// typed batch of rows with one native array per leaf field, per spec §3.3.
package table

import (
	"net"
	"time"

	"github.com/tenzir-community/tenzirgo/tsql"
)

// Column is a typed, contiguous array with an associated null bitmap. It is
// the per-leaf-field storage unit of a Slice (spec §3.3).
type Column struct {
	Type tsql.Type
	Null []bool // Null[i] true means row i is null in this column
	data columnData
}

// columnData is a closed union over the native array kinds. Spec §9
// ("Template-specialised columnar kernels") is realised in Go as a closed
// switch over this struct's populated field rather than a generic
// container, matching the teacher's lack of any generic-columnar-array
// third-party dependency.
type columnData struct {
	bools     []bool
	ints      []int64
	uints     []uint64
	doubles   []float64
	durations []time.Duration
	times     []time.Time
	strings   []string
	blobs     [][]byte
	ips       []net.IP
	subnets   []subnetValue
	enums     []uint32
	lists     [][]tsql.Data
	maps      [][]tsql.KV
	records   [][]tsql.FieldValue
}

type subnetValue struct {
	IP     net.IP
	Prefix int
}

// Len returns the row count of the column.
func (c *Column) Len() int { return len(c.Null) }

// NewColumn allocates an all-null column of length n and the given type.
func NewColumn(t tsql.Type, n int) *Column {
	c := &Column{Type: t, Null: make([]bool, n)}
	for i := range c.Null {
		c.Null[i] = true
	}
	switch t.Kind() {
	case tsql.KindBool:
		c.data.bools = make([]bool, n)
	case tsql.KindInt64:
		c.data.ints = make([]int64, n)
	case tsql.KindUint64, tsql.KindEnum:
		c.data.uints = make([]uint64, n)
	case tsql.KindDouble:
		c.data.doubles = make([]float64, n)
	case tsql.KindDuration:
		c.data.durations = make([]time.Duration, n)
	case tsql.KindTime:
		c.data.times = make([]time.Time, n)
	case tsql.KindString, tsql.KindPattern:
		c.data.strings = make([]string, n)
	case tsql.KindBlob:
		c.data.blobs = make([][]byte, n)
	case tsql.KindIP:
		c.data.ips = make([]net.IP, n)
	case tsql.KindSubnet:
		c.data.subnets = make([]subnetValue, n)
	case tsql.KindList:
		c.data.lists = make([][]tsql.Data, n)
	case tsql.KindMap:
		c.data.maps = make([][]tsql.KV, n)
	case tsql.KindRecord:
		c.data.records = make([][]tsql.FieldValue, n)
	}
	return c
}

// Set writes v into row i, clearing the null bit (a null v sets it). Set
// does not check v's kind against the column type's kind: on a mismatch
// row i holds the zero value of the column's kind and is not null.
func (c *Column) Set(i int, v tsql.Data) {
	if v.IsNull() {
		c.Null[i] = true
		return
	}
	c.Null[i] = false
	switch c.Type.Kind() {
	case tsql.KindBool:
		c.data.bools[i], _ = v.Bool()
	case tsql.KindInt64:
		c.data.ints[i], _ = v.Int64()
	case tsql.KindUint64:
		c.data.uints[i], _ = v.Uint64()
	case tsql.KindEnum:
		ord, _ := v.Enum()
		c.data.uints[i] = uint64(ord)
	case tsql.KindDouble:
		c.data.doubles[i], _ = v.Double()
	case tsql.KindDuration:
		c.data.durations[i], _ = v.Duration()
	case tsql.KindTime:
		c.data.times[i], _ = v.Time()
	case tsql.KindString, tsql.KindPattern:
		c.data.strings[i], _ = v.String()
	case tsql.KindBlob:
		c.data.blobs[i], _ = v.Blob()
	case tsql.KindIP:
		c.data.ips[i], _ = v.IP()
	case tsql.KindSubnet:
		ip, prefix, _ := v.Subnet()
		c.data.subnets[i] = subnetValue{IP: ip, Prefix: prefix}
	case tsql.KindList:
		c.data.lists[i], _ = v.List()
	case tsql.KindMap:
		c.data.maps[i], _ = v.Map()
	case tsql.KindRecord:
		c.data.records[i], _ = v.Record()
	}
}

// At returns the value at row i as a data-view (spec §4.B `at`).
func (c *Column) At(i int) tsql.View {
	if c.Null[i] {
		return tsql.NullData.View()
	}
	var d tsql.Data
	switch c.Type.Kind() {
	case tsql.KindBool:
		d = tsql.NewBool(c.data.bools[i])
	case tsql.KindInt64:
		d = tsql.NewInt64(c.data.ints[i])
	case tsql.KindUint64:
		d = tsql.NewUint64(c.data.uints[i])
	case tsql.KindEnum:
		d = tsql.NewEnum(uint32(c.data.uints[i]))
	case tsql.KindDouble:
		d = tsql.NewDouble(c.data.doubles[i])
	case tsql.KindDuration:
		d = tsql.NewDuration(c.data.durations[i])
	case tsql.KindTime:
		d = tsql.NewTime(c.data.times[i])
	case tsql.KindString, tsql.KindPattern:
		d = tsql.NewString(c.data.strings[i])
	case tsql.KindBlob:
		d = tsql.NewBlob(c.data.blobs[i])
	case tsql.KindIP:
		d = tsql.NewIP(c.data.ips[i])
	case tsql.KindSubnet:
		sv := c.data.subnets[i]
		d, _ = tsql.NewSubnet(sv.IP, sv.Prefix)
	case tsql.KindList:
		d = tsql.NewList(c.data.lists[i])
	case tsql.KindMap:
		d = tsql.NewMap(c.data.maps[i])
	case tsql.KindRecord:
		d = tsql.NewRecord(c.data.records[i])
	default:
		d = tsql.NullData
	}
	return d.View()
}

// slice returns a new Column viewing rows [off, off+length) of c without
// copying the underlying arrays (spec §4.B `subslice` "no column copy").
func (c *Column) slice(off, length int) *Column {
	n := &Column{Type: c.Type, Null: c.Null[off : off+length]}
	switch c.Type.Kind() {
	case tsql.KindBool:
		n.data.bools = c.data.bools[off : off+length]
	case tsql.KindInt64:
		n.data.ints = c.data.ints[off : off+length]
	case tsql.KindUint64, tsql.KindEnum:
		n.data.uints = c.data.uints[off : off+length]
	case tsql.KindDouble:
		n.data.doubles = c.data.doubles[off : off+length]
	case tsql.KindDuration:
		n.data.durations = c.data.durations[off : off+length]
	case tsql.KindTime:
		n.data.times = c.data.times[off : off+length]
	case tsql.KindString, tsql.KindPattern:
		n.data.strings = c.data.strings[off : off+length]
	case tsql.KindBlob:
		n.data.blobs = c.data.blobs[off : off+length]
	case tsql.KindIP:
		n.data.ips = c.data.ips[off : off+length]
	case tsql.KindSubnet:
		n.data.subnets = c.data.subnets[off : off+length]
	case tsql.KindList:
		n.data.lists = c.data.lists[off : off+length]
	case tsql.KindMap:
		n.data.maps = c.data.maps[off : off+length]
	case tsql.KindRecord:
		n.data.records = c.data.records[off : off+length]
	}
	return n
}
