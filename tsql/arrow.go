package tsql

import (
	"strconv"

	"github.com/pkg/errors"
)

// ArrowType is a minimal stand-in for the external columnar runtime's
// native data type (spec §6 "bit-exact round-trip with that format"). No
// Arrow Go module is present anywhere in the example corpus this module
// was grounded on, so the bridge is expressed as a small documented
// interface rather than importing a concrete library (see DESIGN.md, §B).
type ArrowType struct {
	// Name is the Arrow type name (e.g. "int64", "utf8", "struct").
	Name string
	// Metadata carries type attributes under the reserved "tenzir."
	// namespace, per spec §6.
	Metadata map[string]string
	Children []ArrowField
}

// ArrowField is one child of a struct/list ArrowType.
type ArrowField struct {
	Name string
	Type ArrowType
}

const metadataNamespace = "tenzir."

// ToArrow converts t to its external columnar representation. The mapping
// is total and, combined with FromArrow, bit-exact: every Type maps to
// exactly one ArrowType and back.
func ToArrow(t Type) ArrowType {
	at := ArrowType{Metadata: map[string]string{}}
	for _, a := range t.Attributes() {
		at.Metadata[metadataNamespace+a.Key] = a.Value
	}
	if t.name != "" {
		at.Metadata[metadataNamespace+"name"] = t.name
	}
	switch t.kind {
	case KindList:
		e, _ := t.Elem()
		at.Name = "list"
		at.Children = []ArrowField{{Name: "item", Type: ToArrow(e)}}
	case KindMap:
		k, v, _ := t.KeyValue()
		at.Name = "map"
		at.Children = []ArrowField{{Name: "key", Type: ToArrow(k)}, {Name: "value", Type: ToArrow(v)}}
	case KindRecord:
		at.Name = "struct"
		for _, f := range t.fields {
			at.Children = append(at.Children, ArrowField{Name: f.Name, Type: ToArrow(f.Type)})
		}
	case KindEnum:
		at.Name = "dictionary"
		for i, v := range t.variants {
			at.Metadata[metadataNamespace+"variant."+v.Name] = strconv.Itoa(i)
		}
	default:
		at.Name = t.kind.String()
	}
	return at
}

// FromArrow is the inverse of ToArrow.
func FromArrow(at ArrowType) (Type, error) {
	var t Type
	switch at.Name {
	case "list":
		if len(at.Children) != 1 {
			return Type{}, errors.New("arrow list type must have exactly one child")
		}
		e, err := FromArrow(at.Children[0].Type)
		if err != nil {
			return Type{}, err
		}
		t = NewList(e)
	case "map":
		if len(at.Children) != 2 {
			return Type{}, errors.New("arrow map type must have exactly two children")
		}
		k, err := FromArrow(at.Children[0].Type)
		if err != nil {
			return Type{}, err
		}
		v, err := FromArrow(at.Children[1].Type)
		if err != nil {
			return Type{}, err
		}
		t = NewMap(k, v)
	case "struct":
		var fields []Field
		for _, c := range at.Children {
			ft, err := FromArrow(c.Type)
			if err != nil {
				return Type{}, err
			}
			fields = append(fields, Field{Name: c.Name, Type: ft})
		}
		rt, err := NewRecord(fields)
		if err != nil {
			return Type{}, err
		}
		t = rt
	case "dictionary":
		var variants []EnumVariant
		prefix := metadataNamespace + "variant."
		for k, v := range at.Metadata {
			if !hasPrefix(k, prefix) {
				continue
			}
			ord, err := strconv.Atoi(v)
			if err != nil {
				return Type{}, errors.Wrapf(err, "arrow enum variant %q", k[len(prefix):])
			}
			variants = append(variants, EnumVariant{Name: k[len(prefix):], Ordinal: uint32(ord)})
		}
		et, err := NewEnum(variants)
		if err != nil {
			return Type{}, err
		}
		t = et
	default:
		t = primitiveByName(at.Name)
		if t.kind == KindNull && at.Name != "null" {
			return Type{}, errors.Errorf("unrecognised arrow type name %q", at.Name)
		}
	}
	var attrs []Attribute
	name := ""
	for k, v := range at.Metadata {
		if !hasPrefix(k, metadataNamespace) {
			continue
		}
		key := k[len(metadataNamespace):]
		if key == "name" {
			name = v
			continue
		}
		if hasPrefix(key, "variant.") {
			continue
		}
		attrs = append(attrs, Attribute{Key: key, Value: v})
	}
	if len(attrs) > 0 {
		t = t.WithAttributes(attrs...)
	}
	if name != "" {
		t = t.Named(name)
	}
	return t, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
