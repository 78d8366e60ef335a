// Package yamlbridge converts between tsql.Data and the plain Go values
// gopkg.in/yaml.v2 marshals, backing the configuration layer's recursive
// mapping (spec.md §6) and the YAML round-trip law of spec.md §8:
// `YAML -> data -> YAML` must reproduce any value whose type is
// representable in the YAML surface.
package yamlbridge

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tenzir-community/tenzirgo/tsql"
)

// TimeLayout is the ISO-8601-with-timezone format times round-trip
// through, per spec.md §8.
const TimeLayout = time.RFC3339Nano

// ToYAML converts d into a plain Go value suitable for yaml.Marshal:
// scalars map to their native Go type, durations and times become
// suffix-annotated/ISO-8601 strings, lists become []interface{}, and
// records become yaml.MapSlice so field order survives the round trip
// (a plain Go map would not, per spec.md §8's round-trip law).
func ToYAML(d tsql.Data) (interface{}, error) {
	if d.IsNull() {
		return nil, nil
	}
	switch d.Kind() {
	case tsql.KindBool:
		v, _ := d.Bool()
		return v, nil
	case tsql.KindInt64:
		v, _ := d.Int64()
		return v, nil
	case tsql.KindUint64:
		v, _ := d.Uint64()
		return v, nil
	case tsql.KindDouble:
		v, _ := d.Double()
		return v, nil
	case tsql.KindDuration:
		v, _ := d.Duration()
		return v.String(), nil
	case tsql.KindTime:
		v, _ := d.Time()
		return v.UTC().Format(TimeLayout), nil
	case tsql.KindString, tsql.KindPattern:
		v, _ := d.String()
		return v, nil
	case tsql.KindBlob:
		v, _ := d.Blob()
		return string(v), nil
	case tsql.KindIP:
		v, _ := d.IP()
		return v.String(), nil
	case tsql.KindSubnet:
		ip, prefix, _ := d.Subnet()
		return (&net.IPNet{IP: ip, Mask: net.CIDRMask(prefix, 128)}).String(), nil
	case tsql.KindList:
		items, _ := d.List()
		out := make([]interface{}, len(items))
		for i, item := range items {
			v, err := ToYAML(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case tsql.KindRecord:
		fields, _ := d.Record()
		out := make(yaml.MapSlice, len(fields))
		for i, f := range fields {
			v, err := ToYAML(f.Value)
			if err != nil {
				return nil, err
			}
			out[i] = yaml.MapItem{Key: f.Name, Value: v}
		}
		return out, nil
	case tsql.KindMap:
		kv, _ := d.Map()
		out := make(yaml.MapSlice, len(kv))
		for i, e := range kv {
			key, err := ToYAML(e.Key)
			if err != nil {
				return nil, err
			}
			val, err := ToYAML(e.Val)
			if err != nil {
				return nil, err
			}
			out[i] = yaml.MapItem{Key: key, Value: val}
		}
		return out, nil
	default:
		return nil, errors.Errorf("yamlbridge: kind %v has no YAML representation", d.Kind())
	}
}

// FromYAML converts a plain Go value decoded by yaml.Unmarshal back into
// tsql.Data of type t, the inverse of ToYAML. YAML carries no type tags of
// its own, so t supplies the target shape the way a config schema would.
func FromYAML(v interface{}, t tsql.Type) (tsql.Data, error) {
	if v == nil {
		return tsql.NullData, nil
	}
	switch t.Kind() {
	case tsql.KindBool:
		b, ok := v.(bool)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected bool, got %T", v)
		}
		return tsql.NewBool(b), nil
	case tsql.KindInt64:
		n, err := toInt64(v)
		if err != nil {
			return tsql.Data{}, err
		}
		return tsql.NewInt64(n), nil
	case tsql.KindUint64:
		n, err := toInt64(v)
		if err != nil {
			return tsql.Data{}, err
		}
		return tsql.NewUint64(uint64(n)), nil
	case tsql.KindDouble:
		switch n := v.(type) {
		case float64:
			return tsql.NewDouble(n), nil
		case int:
			return tsql.NewDouble(float64(n)), nil
		case int64:
			return tsql.NewDouble(float64(n)), nil
		default:
			return tsql.Data{}, errors.Errorf("yamlbridge: expected double, got %T", v)
		}
	case tsql.KindDuration:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected duration string, got %T", v)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return tsql.Data{}, errors.Wrap(err, "yamlbridge: duration")
		}
		return tsql.NewDuration(d), nil
	case tsql.KindTime:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected time string, got %T", v)
		}
		parsed, err := time.Parse(TimeLayout, s)
		if err != nil {
			return tsql.Data{}, errors.Wrap(err, "yamlbridge: time")
		}
		return tsql.NewTime(parsed), nil
	case tsql.KindString, tsql.KindPattern:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected string, got %T", v)
		}
		return tsql.NewString(s), nil
	case tsql.KindBlob:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected blob string, got %T", v)
		}
		return tsql.NewBlob([]byte(s)), nil
	case tsql.KindIP:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected IP string, got %T", v)
		}
		ip := net.ParseIP(s)
		if ip == nil {
			return tsql.Data{}, errors.Errorf("yamlbridge: invalid IP %q", s)
		}
		return tsql.NewIP(ip), nil
	case tsql.KindSubnet:
		s, ok := v.(string)
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected subnet string, got %T", v)
		}
		ip, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return tsql.Data{}, errors.Wrap(err, "yamlbridge: subnet")
		}
		prefix, _ := ipnet.Mask.Size()
		return tsql.NewSubnet(ip, prefix)
	case tsql.KindList:
		items, ok := v.([]interface{})
		if !ok {
			return tsql.Data{}, errors.Errorf("yamlbridge: expected list, got %T", v)
		}
		elemType := elemTypeOf(t)
		out := make([]tsql.Data, len(items))
		for i, item := range items {
			d, err := FromYAML(item, elemType)
			if err != nil {
				return tsql.Data{}, err
			}
			out[i] = d
		}
		return tsql.NewList(out), nil
	case tsql.KindRecord:
		items, err := asMapSlice(v)
		if err != nil {
			return tsql.Data{}, err
		}
		byName := make(map[string]interface{}, len(items))
		for _, item := range items {
			key, ok := item.Key.(string)
			if !ok {
				return tsql.Data{}, errors.Errorf("yamlbridge: record key %v is not a string", item.Key)
			}
			byName[key] = item.Value
		}
		fields := make([]tsql.FieldValue, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			raw, ok := byName[f.Name]
			if !ok {
				fields = append(fields, tsql.FieldValue{Name: f.Name, Value: tsql.NullData})
				continue
			}
			val, err := FromYAML(raw, f.Type)
			if err != nil {
				return tsql.Data{}, errors.Wrapf(err, "yamlbridge: field %q", f.Name)
			}
			fields = append(fields, tsql.FieldValue{Name: f.Name, Value: val})
		}
		return tsql.NewRecord(fields), nil
	case tsql.KindMap:
		items, err := asMapSlice(v)
		if err != nil {
			return tsql.Data{}, err
		}
		keyType, valType, _ := t.KeyValue()
		out := make([]tsql.KV, 0, len(items))
		for _, item := range items {
			key, err := FromYAML(item.Key, keyType)
			if err != nil {
				return tsql.Data{}, err
			}
			val, err := FromYAML(item.Value, valType)
			if err != nil {
				return tsql.Data{}, err
			}
			out = append(out, tsql.KV{Key: key, Val: val})
		}
		return tsql.NewMap(out), nil
	default:
		return tsql.Data{}, errors.Errorf("yamlbridge: kind %v has no YAML representation", t.Kind())
	}
}

func elemTypeOf(listType tsql.Type) tsql.Type {
	elem, ok := listType.Elem()
	if !ok {
		return tsql.String
	}
	return elem
}

// asMapSlice normalises either yaml.MapSlice (produced by our own ToYAML
// round-tripping through yaml.Marshal/Unmarshal) or map[interface{}]interface{}
// (produced directly by yaml.Unmarshal on user-authored config text, which
// carries no guaranteed key order) into a single ordered form.
func asMapSlice(v interface{}) (yaml.MapSlice, error) {
	switch m := v.(type) {
	case yaml.MapSlice:
		return m, nil
	case map[interface{}]interface{}:
		out := make(yaml.MapSlice, 0, len(m))
		for k, val := range m {
			out = append(out, yaml.MapItem{Key: k, Value: val})
		}
		return out, nil
	default:
		return nil, errors.Errorf("yamlbridge: expected mapping, got %T", v)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	default:
		return 0, errors.Errorf("yamlbridge: expected integer, got %T", v)
	}
}

// Marshal renders d as YAML text.
func Marshal(d tsql.Data) ([]byte, error) {
	v, err := ToYAML(d)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}

// Unmarshal parses YAML text into tsql.Data of type t.
func Unmarshal(text []byte, t tsql.Type) (tsql.Data, error) {
	var v interface{}
	if err := yaml.Unmarshal(text, &v); err != nil {
		return tsql.Data{}, errors.Wrap(err, "yamlbridge: parse")
	}
	return FromYAML(v, t)
}
