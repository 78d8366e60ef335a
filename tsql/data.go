package tsql

import (
	"bytes"
	"encoding/gob"
	"net"
	"time"
)

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}

// Data is the sum of all owned representations (spec §3.2). The zero value
// represents null.
type Data struct {
	kind Kind
	null bool

	b        bool
	i64      int64
	u64      uint64
	f64      float64
	dur      time.Duration
	t        time.Time
	s        string
	blob     []byte
	ip       net.IP
	subnetIP net.IP
	prefix   int
	list     []Data
	mapKV    []KV
	record   []FieldValue
	ordinal  uint32 // enum
}

// KV is one insertion-ordered key/value pair of a map value.
type KV struct {
	Key Data
	Val Data
}

// FieldValue is one named field of a record value.
type FieldValue struct {
	Name  string
	Value Data
}

// NullData is the data value carrying no information.
var NullData = Data{kind: KindNull, null: true}

func NewBool(v bool) Data         { return Data{kind: KindBool, b: v} }
func NewInt64(v int64) Data       { return Data{kind: KindInt64, i64: v} }
func NewUint64(v uint64) Data     { return Data{kind: KindUint64, u64: v} }
func NewDouble(v float64) Data    { return Data{kind: KindDouble, f64: v} }
func NewDuration(v time.Duration) Data { return Data{kind: KindDuration, dur: v} }
func NewTime(v time.Time) Data    { return Data{kind: KindTime, t: v} }
func NewString(v string) Data     { return Data{kind: KindString, s: v} }
func NewBlob(v []byte) Data       { return Data{kind: KindBlob, blob: append([]byte(nil), v...)} }
func NewIP(v net.IP) Data         { return Data{kind: KindIP, ip: v.To16()} }

// NewSubnet constructs a subnet value, canonicalising v4 into the
// v4-mapped v6 range per spec §3.1.
func NewSubnet(ip net.IP, prefix int) (Data, error) {
	if err := NewSubnetPrefixCheck(prefix); err != nil {
		return Data{}, err
	}
	canon := ip.To16()
	if v4 := ip.To4(); v4 != nil {
		canon = v4.To16()
		prefix += 96 // v4-mapped offset when prefix was expressed in v4 bits
		if prefix > 128 {
			prefix = 128
		}
	}
	return Data{kind: KindSubnet, subnetIP: canon, prefix: prefix}, nil
}

func NewList(items []Data) Data { return Data{kind: KindList, list: append([]Data(nil), items...)} }
func NewMap(kv []KV) Data       { return Data{kind: KindMap, mapKV: append([]KV(nil), kv...)} }
func NewRecord(fields []FieldValue) Data {
	return Data{kind: KindRecord, record: append([]FieldValue(nil), fields...)}
}
func NewEnum(ordinal uint32) Data { return Data{kind: KindEnum, ordinal: ordinal} }

func (d Data) Kind() Kind  { return d.kind }
func (d Data) IsNull() bool { return d.null }

func (d Data) Bool() (bool, bool)             { return d.b, d.kind == KindBool && !d.null }
func (d Data) Int64() (int64, bool)           { return d.i64, d.kind == KindInt64 && !d.null }
func (d Data) Uint64() (uint64, bool)         { return d.u64, d.kind == KindUint64 && !d.null }
func (d Data) Double() (float64, bool)        { return d.f64, d.kind == KindDouble && !d.null }
func (d Data) Duration() (time.Duration, bool){ return d.dur, d.kind == KindDuration && !d.null }
func (d Data) Time() (time.Time, bool)        { return d.t, d.kind == KindTime && !d.null }
func (d Data) String() (string, bool)         { return d.s, d.kind == KindString && !d.null }
func (d Data) Blob() ([]byte, bool)           { return d.blob, d.kind == KindBlob && !d.null }
func (d Data) IP() (net.IP, bool)             { return d.ip, d.kind == KindIP && !d.null }
func (d Data) Subnet() (net.IP, int, bool)    { return d.subnetIP, d.prefix, d.kind == KindSubnet && !d.null }
func (d Data) List() ([]Data, bool)           { return d.list, d.kind == KindList && !d.null }
func (d Data) Map() ([]KV, bool)              { return d.mapKV, d.kind == KindMap && !d.null }
func (d Data) Record() ([]FieldValue, bool)   { return d.record, d.kind == KindRecord && !d.null }
func (d Data) Enum() (uint32, bool)           { return d.ordinal, d.kind == KindEnum && !d.null }

// View returns a cheap, non-owning borrow of d. For the scalar kinds this
// is d itself (Data is already a small value type); container views
// recursively view their elements, per spec §3.2.
func (d Data) View() View { return View{d} }

// View is the non-owning counterpart of Data (spec §3.2). The current
// implementation stores data by value (Go slices/strings are already
// reference types under the hood), so View wraps Data directly; the
// distinction is preserved at the type level so callers cannot
// accidentally mutate through a view.
type View struct{ d Data }

func (v View) Materialize() Data { return v.d }
func (v View) Kind() Kind        { return v.d.kind }
func (v View) IsNull() bool      { return v.d.null }

// Equal compares two data values (or views) elementwise, per spec §3.2
// ("Views and owned values compare equal elementwise").
func Equal(a, b Data) bool {
	if a.null != b.null {
		return false
	}
	if a.null {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindInt64:
		return a.i64 == b.i64
	case KindUint64:
		return a.u64 == b.u64
	case KindDouble:
		return a.f64 == b.f64
	case KindDuration:
		return a.dur == b.dur
	case KindTime:
		return a.t.Equal(b.t)
	case KindString, KindPattern:
		return a.s == b.s
	case KindBlob:
		return string(a.blob) == string(b.blob)
	case KindIP:
		return a.ip.Equal(b.ip)
	case KindSubnet:
		return a.subnetIP.Equal(b.subnetIP) && a.prefix == b.prefix
	case KindEnum:
		return a.ordinal == b.ordinal
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mapKV) != len(b.mapKV) {
			return false
		}
		for i := range a.mapKV {
			if !Equal(a.mapKV[i].Key, b.mapKV[i].Key) || !Equal(a.mapKV[i].Val, b.mapKV[i].Val) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(a.record) != len(b.record) {
			return false
		}
		for i := range a.record {
			if a.record[i].Name != b.record[i].Name || !Equal(a.record[i].Value, b.record[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// gobData is the exported-field mirror of Data used to give it a stable
// gob encoding despite Data's fields being unexported. Aggregation
// instances (agg/function) persist tsql.Data values as part of their
// saved state, so Data needs to round-trip through gob like any other
// value the runtime checkpoints.
type gobData struct {
	Kind     Kind
	Null     bool
	B        bool
	I64      int64
	U64      uint64
	F64      float64
	Dur      time.Duration
	T        time.Time
	S        string
	Blob     []byte
	IP       net.IP
	SubnetIP net.IP
	Prefix   int
	List     []Data
	MapKV    []KV
	Record   []FieldValue
	Ordinal  uint32
}

// GobEncode implements gob.GobEncoder.
func (d Data) GobEncode() ([]byte, error) {
	return gobEncode(gobData{
		Kind: d.kind, Null: d.null, B: d.b, I64: d.i64, U64: d.u64, F64: d.f64,
		Dur: d.dur, T: d.t, S: d.s, Blob: d.blob, IP: d.ip, SubnetIP: d.subnetIP,
		Prefix: d.prefix, List: d.list, MapKV: d.mapKV, Record: d.record, Ordinal: d.ordinal,
	})
}

// GobDecode implements gob.GobDecoder.
func (d *Data) GobDecode(b []byte) error {
	var g gobData
	if err := gobDecode(b, &g); err != nil {
		return err
	}
	*d = Data{
		kind: g.Kind, null: g.Null, b: g.B, i64: g.I64, u64: g.U64, f64: g.F64,
		dur: g.Dur, t: g.T, s: g.S, blob: g.Blob, ip: g.IP, subnetIP: g.SubnetIP,
		prefix: g.Prefix, list: g.List, mapKV: g.MapKV, record: g.Record, ordinal: g.Ordinal,
	}
	return nil
}

// SubnetContains implements the `in` relation for subnets (spec §8
// boundary behaviour: v4/v6 canonicalisation makes
// 192.168.0.5 in 192.168.0.0/24 true via the v4-mapped range).
func SubnetContains(network net.IP, prefixLen int, addr net.IP) bool {
	n := network.To16()
	a := addr.To16()
	if n == nil || a == nil {
		return false
	}
	mask := net.CIDRMask(prefixLen, 128)
	return n.Mask(mask).Equal(a.Mask(mask))
}
