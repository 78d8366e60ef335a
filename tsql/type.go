package tsql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Attribute is a labelled key/value hint attached to a Type (skip, default,
// required, opaque, internal, ...). Attributes are part of type identity
// for Equal but not for Congruent, matching spec §3.1.
type Attribute struct {
	Key   string
	Value string
}

// EnumVariant is one named, ordinal-indexed member of an enumeration type.
type EnumVariant struct {
	Name    string
	Ordinal uint32
}

// Field is one named member of a record type.
type Field struct {
	Name string
	Type Type
}

// Type is a tagged tree drawn from the closed algebra of spec §3.1. The
// zero value is an invalid type; construct with the New* helpers.
type Type struct {
	kind       Kind
	name       string // non-empty iff this is a "named" type
	attributes []Attribute

	elem     *Type  // list<T>
	key, val *Type  // map<K,V>
	fields   []Field // record
	variants []EnumVariant
	subnetPrefix int // only meaningful for a concrete subnet value, not the type
}

func primitive(k Kind) Type { return Type{kind: k} }

var (
	Null     = primitive(KindNull)
	Bool     = primitive(KindBool)
	Int64    = primitive(KindInt64)
	Uint64   = primitive(KindUint64)
	Double   = primitive(KindDouble)
	Duration = primitive(KindDuration)
	Time     = primitive(KindTime)
	String   = primitive(KindString)
	Blob     = primitive(KindBlob)
	IP       = primitive(KindIP)
	Subnet   = primitive(KindSubnet)
	Pattern  = primitive(KindPattern)
)

// NewEnum constructs an enumeration type. Ordinals must be contiguous
// 0..N-1 and the name->ordinal mapping bijective, per spec §3.1.
func NewEnum(variants []EnumVariant) (Type, error) {
	seen := make(map[uint32]bool, len(variants))
	names := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Ordinal >= uint32(len(variants)) {
			return Type{}, errors.Errorf("enum ordinal %d out of contiguous range [0,%d)", v.Ordinal, len(variants))
		}
		if seen[v.Ordinal] {
			return Type{}, errors.Errorf("enum ordinal %d used more than once", v.Ordinal)
		}
		if names[v.Name] {
			return Type{}, errors.Errorf("enum variant name %q used more than once", v.Name)
		}
		seen[v.Ordinal] = true
		names[v.Name] = true
	}
	cp := append([]EnumVariant(nil), variants...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Ordinal < cp[j].Ordinal })
	return Type{kind: KindEnum, variants: cp}, nil
}

// NewList constructs list<T>.
func NewList(elem Type) Type {
	e := elem
	return Type{kind: KindList, elem: &e}
}

// NewMap constructs map<K,V>.
func NewMap(key, val Type) Type {
	k, v := key, val
	return Type{kind: KindMap, key: &k, val: &v}
}

// NewRecord constructs a record type. Field names must be unique within
// this record (spec §3.1 invariant); nesting records arbitrarily deep is
// permitted.
func NewRecord(fields []Field) (Type, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return Type{}, errors.Errorf("duplicate record field name %q", f.Name)
		}
		seen[f.Name] = true
	}
	return Type{kind: KindRecord, fields: append([]Field(nil), fields...)}, nil
}

// NewSubnetPrefixCheck validates a subnet prefix length against spec §3.1
// ([0,128]); it is invoked by value construction, not by the type (subnet
// is a primitive type with no type-level parameter).
func NewSubnetPrefixCheck(prefix int) error {
	if prefix < 0 || prefix > 128 {
		return errors.Errorf("subnet prefix length %d out of range [0,128]", prefix)
	}
	return nil
}

// Named tags t with a fully-qualified name, e.g. "tenzir.line".
func (t Type) Named(name string) Type {
	n := t
	n.name = name
	return n
}

// WithAttributes returns a copy of t carrying the given attributes,
// replacing any it already had.
func (t Type) WithAttributes(attrs ...Attribute) Type {
	n := t
	n.attributes = append([]Attribute(nil), attrs...)
	sort.Slice(n.attributes, func(i, j int) bool { return n.attributes[i].Key < n.attributes[j].Key })
	return n
}

func (t Type) Kind() Kind           { return t.kind }
func (t Type) Name() string         { return t.name }
func (t Type) IsNamed() bool        { return t.name != "" }
func (t Type) Attributes() []Attribute {
	return append([]Attribute(nil), t.attributes...)
}

// Attribute looks up a single attribute by key.
func (t Type) Attribute(key string) (string, bool) {
	for _, a := range t.attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (t Type) Elem() (Type, bool) {
	if t.kind != KindList || t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

func (t Type) KeyValue() (Type, Type, bool) {
	if t.kind != KindMap || t.key == nil || t.val == nil {
		return Type{}, Type{}, false
	}
	return *t.key, *t.val, true
}

func (t Type) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

func (t Type) Variants() []EnumVariant {
	return append([]EnumVariant(nil), t.variants...)
}

// Equal is exact type equality: structure, names, and attributes must all
// agree (spec §3.1 "Named types compare equal iff ... name and structural
// content agree").
func (t Type) Equal(other Type) bool {
	if t.name != other.name {
		return false
	}
	if !sameAttributes(t.attributes, other.attributes) {
		return false
	}
	return t.Congruent(other)
}

// Congruent is structural equality ignoring names and attributes (spec
// §3.1, used when matching user types against concrete data).
func (t Type) Congruent(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindList:
		te, _ := t.Elem()
		oe, _ := other.Elem()
		return te.Congruent(oe)
	case KindMap:
		tk, tv, _ := t.KeyValue()
		ok, ov, _ := other.KeyValue()
		return tk.Congruent(ok) && tv.Congruent(ov)
	case KindRecord:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i, f := range t.fields {
			g := other.fields[i]
			if f.Name != g.Name || !f.Type.Congruent(g.Type) {
				return false
			}
		}
		return true
	case KindEnum:
		if len(t.variants) != len(other.variants) {
			return false
		}
		for i, v := range t.variants {
			w := other.variants[i]
			if v.Name != w.Name || v.Ordinal != w.Ordinal {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func sameAttributes(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Leaf describes one leaf field of a (possibly nested) record type: its
// dotted path, the field itself, and its zero-based leaf index.
type Leaf struct {
	Path      string
	Field     Field
	LeafIndex int
}

// Leaves returns every leaf field of t in declaration order, descending
// into nested records. Non-record types yield a single leaf with an empty
// path (the type itself is the sole "column").
func (t Type) Leaves() []Leaf {
	var out []Leaf
	var walk func(prefix string, ty Type)
	walk = func(prefix string, ty Type) {
		if ty.kind != KindRecord {
			out = append(out, Leaf{Path: prefix, Field: Field{Name: prefix, Type: ty}, LeafIndex: len(out)})
			return
		}
		for _, f := range ty.fields {
			path := f.Name
			if prefix != "" {
				path = prefix + "." + f.Name
			}
			walk(path, f.Type)
		}
	}
	walk("", t)
	return out
}

// Resolve looks up a dotted name path within a record type, returning the
// first match by the longest-suffix convention of spec §4.A: a field name
// `s` matches a full key `a.b.s` iff there is a `.` boundary before `s`.
func (t Type) Resolve(namePath string) (Field, int, bool) {
	for _, leaf := range t.Leaves() {
		if leaf.Path == namePath {
			return leaf.Field, leaf.LeafIndex, true
		}
		if strings.HasSuffix(leaf.Path, "."+namePath) {
			return leaf.Field, leaf.LeafIndex, true
		}
	}
	return Field{}, -1, false
}

func (t Type) String() string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t Type) {
	if t.name != "" {
		fmt.Fprintf(b, "%s=", t.name)
	}
	switch t.kind {
	case KindList:
		e, _ := t.Elem()
		b.WriteString("list<")
		writeType(b, e)
		b.WriteString(">")
	case KindMap:
		k, v, _ := t.KeyValue()
		b.WriteString("map<")
		writeType(b, k)
		b.WriteString(", ")
		writeType(b, v)
		b.WriteString(">")
	case KindRecord:
		b.WriteString("record{")
		for i, f := range t.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", f.Name)
			writeType(b, f.Type)
		}
		b.WriteString("}")
	case KindEnum:
		b.WriteString("enum{")
		for i, v := range t.variants {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Name)
		}
		b.WriteString("}")
	default:
		b.WriteString(t.kind.String())
	}
	if len(t.attributes) > 0 {
		b.WriteString(" #[")
		for i, a := range t.attributes {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s=%q", a.Key, a.Value)
		}
		b.WriteString("]")
	}
}
