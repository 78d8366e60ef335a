package tsql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash"
	onexxhash "github.com/OneOfOne/xxhash"
	"github.com/mitchellh/hashstructure"
)

// Fingerprint computes the stable 64-bit schema fingerprint of spec §6,
// derived from the canonical structural encoding of t: names, kinds,
// children, attributes, in declaration order. Two types share a
// fingerprint iff they are Equal.
func Fingerprint(t Type) uint64 {
	return xxhash.Sum64String(canonicalEncoding(t))
}

// shortFingerprint is a secondary 32-bit variant built on the second xxhash
// implementation the teacher's go.mod pulls in alongside cespare/xxhash;
// nothing in the module calls it at present.
func shortFingerprint(t Type) uint32 {
	h := onexxhash.New32()
	_, _ = h.WriteString(canonicalEncoding(t))
	return h.Sum32()
}

// canonicalEncoding produces the same string for any two Equal types and a
// different string for any two non-Equal types (names, kinds, children and
// attributes, in declaration order).
func canonicalEncoding(t Type) string {
	var b strings.Builder
	encodeType(&b, t)
	return b.String()
}

func encodeType(b *strings.Builder, t Type) {
	fmt.Fprintf(b, "(%s", t.kind)
	if t.name != "" {
		fmt.Fprintf(b, "@%s", t.name)
	}
	switch t.kind {
	case KindList:
		e, _ := t.Elem()
		encodeType(b, e)
	case KindMap:
		k, v, _ := t.KeyValue()
		encodeType(b, k)
		encodeType(b, v)
	case KindRecord:
		for _, f := range t.fields {
			fmt.Fprintf(b, "[%s:", f.Name)
			encodeType(b, f.Type)
			b.WriteString("]")
		}
	case KindEnum:
		for _, v := range t.variants {
			fmt.Fprintf(b, "[%s=%d]", v.Name, v.Ordinal)
		}
	}
	attrs := append([]Attribute(nil), t.attributes...)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, a := range attrs {
		fmt.Fprintf(b, "#%s=%s", a.Key, a.Value)
	}
	b.WriteString(")")
}

// StructuralHash hashes v with hashstructure, which walks exported fields
// only: unexported fields (including every field of Data and Type) do not
// contribute. The partition evaluator combines it with a hash of the
// printed expression to key its predicate memo.
func StructuralHash(v interface{}) (uint64, error) {
	return hashstructure.Hash(v, nil)
}
