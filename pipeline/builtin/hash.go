package builtin

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/pipeline"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// hashOperator appends a new hex-digest string column computed from an
// existing field, grounded on hash.cpp's hash_operator: additive and
// non-destructive (the source field survives untouched), a no-op on
// schemas that lack the source field, and order-invariant under
// optimisation since it neither filters rows nor depends on row order.
type hashOperator struct {
	op.DefaultOptimize
	Field string
	Out   string
	Salt  string

	state *pipeline.SchemaState
}

// Hash constructs a `hash` operator: append Out as the (optionally
// salted) hex xxhash digest of Field, leaving Field itself untouched.
func Hash(field, out, salt string) op.Operator {
	return &hashOperator{Field: field, Out: out, Salt: salt, state: pipeline.NewSchemaState()}
}

func (h *hashOperator) Name() string               { return "hash" }
func (h *hashOperator) InputType() op.ElementType  { return op.Events }
func (h *hashOperator) OutputType() op.ElementType { return op.Events }
func (h *hashOperator) Location() op.Location      { return op.Anywhere }
func (h *hashOperator) Internal() bool             { return false }

// hashSchemaPlan is the per-schema substate: either no-op (the field is
// absent from this schema) or the resolved leaf index to hash.
type hashSchemaPlan struct {
	leafIndex int
	applies   bool
}

func (h *hashOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil || y.Kind != op.Productive {
			return y, err
		}
		slice := y.Element.Events
		schema := slice.Schema()
		planV := h.state.GetOrCreate(schema, func() interface{} {
			if _, idx, ok := schema.Resolve(h.Field); ok {
				return hashSchemaPlan{leafIndex: idx, applies: true}
			}
			return hashSchemaPlan{applies: false}
		})
		plan := planV.(hashSchemaPlan)
		if !plan.applies {
			return op.ProductiveEvents(slice), nil
		}
		col := h.digestColumn(slice.Columns()[plan.leafIndex], slice.Rows())
		fields := append(append([]tsql.Field{}, leafFields(schema)...), tsql.Field{Name: h.Out, Type: tsql.String})
		columns := append(append([]*table.Column{}, slice.Columns()...), col)
		rec, err := tsql.NewRecord(fields)
		if err != nil {
			return op.Yield{}, err
		}
		if schema.IsNamed() {
			rec = rec.Named(schema.Name())
		}
		var out *table.Slice
		if importTime, ok := slice.ImportTime(); ok {
			out, err = table.New(rec, columns, &importTime)
		} else {
			out, err = table.New(rec, columns, nil)
		}
		if err != nil {
			return op.Yield{}, err
		}
		return op.ProductiveEvents(out), nil
	}), nil
}

func leafFields(schema tsql.Type) []tsql.Field {
	leaves := schema.Leaves()
	out := make([]tsql.Field, len(leaves))
	for i, l := range leaves {
		out[i] = l.Field
	}
	return out
}

func (h *hashOperator) digestColumn(src *table.Column, rows int) *table.Column {
	out := table.NewColumn(tsql.String, rows)
	for row := 0; row < rows; row++ {
		v := src.At(row)
		if v.IsNull() {
			continue
		}
		digest := xxhash.Sum64(canonicalBytes(v.Materialize(), h.Salt))
		out.Set(row, tsql.NewString(fmt.Sprintf("%016x", digest)))
	}
	return out
}

// canonicalBytes produces a stable byte encoding of d for hashing,
// mirroring hash.cpp's type-dispatching hash_append: each kind
// contributes a distinguishable byte representation so that values of
// different types never collide by coincidence of formatting.
func canonicalBytes(d tsql.Data, salt string) []byte {
	var buf []byte
	buf = append(buf, byte(d.Kind()))
	switch d.Kind() {
	case tsql.KindBool:
		b, _ := d.Bool()
		if b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case tsql.KindInt64:
		v, _ := d.Int64()
		buf = appendUint64(buf, uint64(v))
	case tsql.KindUint64, tsql.KindEnum:
		v, _ := d.Uint64()
		buf = appendUint64(buf, v)
	case tsql.KindDouble:
		v, _ := d.Double()
		buf = appendUint64(buf, math.Float64bits(v))
	case tsql.KindDuration:
		v, _ := d.Duration()
		buf = appendUint64(buf, uint64(v))
	case tsql.KindTime:
		v, _ := d.Time()
		buf = appendUint64(buf, uint64(v.UnixNano()))
	case tsql.KindString, tsql.KindPattern:
		v, _ := d.String()
		buf = append(buf, []byte(v)...)
	case tsql.KindBlob:
		v, _ := d.Blob()
		buf = append(buf, v...)
	case tsql.KindIP:
		v, _ := d.IP()
		buf = append(buf, v...)
	default:
		buf = append(buf, []byte(fmt.Sprintf("%v", d))...)
	}
	if salt != "" {
		buf = append(buf, []byte(salt)...)
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}
