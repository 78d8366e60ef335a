package builtin

import (
	"context"
	"sort"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// dropOperator removes entire schemas or individual fields from the
// stream, grounded on drop.cpp's drop_operator: a schema-level drop
// discards the whole batch before any field-level work happens; a
// field-level drop resolves each configured suffix against the schema and
// deletes the matching leaf columns via table.TransformColumns.
type dropOperator struct {
	op.DefaultOptimize
	Fields  []string
	Schemas []string
}

// Drop constructs a `drop` operator removing the named fields (resolved
// by dotted-name suffix, as `select` does) and/or entire named schemas.
func Drop(fields []string, schemas []string) op.Operator {
	return &dropOperator{Fields: fields, Schemas: schemas}
}

func (d *dropOperator) Name() string               { return "drop" }
func (d *dropOperator) InputType() op.ElementType  { return op.Events }
func (d *dropOperator) OutputType() op.ElementType { return op.Events }
func (d *dropOperator) Location() op.Location      { return op.Anywhere }
func (d *dropOperator) Internal() bool             { return false }

func (d *dropOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil || y.Kind != op.Productive {
			return y, err
		}
		slice := y.Element.Events
		schema := slice.Schema()
		for _, name := range d.Schemas {
			if schema.IsNamed() && schema.Name() == name {
				return op.EmptyYield(), nil
			}
		}
		if len(d.Fields) == 0 {
			return op.ProductiveEvents(slice), nil
		}
		leafIndices := make(map[int]bool)
		for _, field := range d.Fields {
			if _, idx, ok := schema.Resolve(field); ok {
				leafIndices[idx] = true
			}
		}
		if len(leafIndices) == 0 {
			return op.ProductiveEvents(slice), nil
		}
		indices := make([]int, 0, len(leafIndices))
		for i := range leafIndices {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		transforms := make([]table.ColumnTransform, len(indices))
		for i, idx := range indices {
			transforms[i] = table.ColumnTransform{
				LeafIndex: idx,
				Fn: func(field tsql.Field, col *table.Column) ([]table.TransformedColumn, error) {
					return nil, nil
				},
			}
		}
		out, err := table.TransformColumns(slice, transforms)
		if err != nil {
			return op.Yield{}, err
		}
		return op.ProductiveEvents(out), nil
	}), nil
}
