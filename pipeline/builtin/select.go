// Package builtin implements the supplemented pipeline operators of spec
// §3.6/§9.1: schema-mutating transformations (select/put/extend/drop,
// hash), diagnostic sources/sinks (version, measure), a rate limiter
// (throttle), and the partition-evaluator-backed `partitions` source.
package builtin

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// selectOperator keeps only the named fields, in the order given, dropping
// every other field — the projection primitive of spec §8 scenario 1
// (`where x >= 2 | select y`).
type selectOperator struct {
	op.DefaultOptimize
	Fields []string
}

// Select constructs a `select` operator that projects slices down to
// fields, in the given order.
func Select(fields ...string) op.Operator {
	return &selectOperator{Fields: fields}
}

func (s *selectOperator) Name() string               { return "select" }
func (s *selectOperator) InputType() op.ElementType  { return op.Events }
func (s *selectOperator) OutputType() op.ElementType { return op.Events }
func (s *selectOperator) Location() op.Location      { return op.Anywhere }
func (s *selectOperator) Internal() bool             { return false }

func (s *selectOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil || y.Kind != op.Productive {
			return y, err
		}
		slice := y.Element.Events
		out, err := projectFields(slice, s.Fields)
		if err != nil {
			return op.Yield{}, errors.Wrap(err, "select")
		}
		return op.ProductiveEvents(out), nil
	}), nil
}

// projectFields builds a new Slice containing exactly the requested
// fields (resolved by dotted-name suffix match, spec §4.A `resolve`), in
// the given order, reusing the original columns without copying.
func projectFields(slice *table.Slice, fields []string) (*table.Slice, error) {
	schema := slice.Schema()
	newFields := make([]tsql.Field, 0, len(fields))
	newColumns := make([]*table.Column, 0, len(fields))
	for _, name := range fields {
		field, leafIndex, ok := schema.Resolve(name)
		if !ok {
			return nil, errors.Errorf("select: field %q not found in schema %s", name, schema)
		}
		newFields = append(newFields, field)
		newColumns = append(newColumns, slice.Columns()[leafIndex])
	}
	rec, err := tsql.NewRecord(newFields)
	if err != nil {
		return nil, err
	}
	if schema.IsNamed() {
		rec = rec.Named(schema.Name())
	}
	if importTime, ok := slice.ImportTime(); ok {
		return table.New(rec, newColumns, &importTime)
	}
	return table.New(rec, newColumns, nil)
}
