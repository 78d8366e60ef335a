package builtin

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tenzir-community/tenzirgo/agg"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// AggSpec is one `out = function(args...)` clause of a summarize
// invocation, wiring agg.Lookup's registered functions into the pipeline.
type AggSpec struct {
	Out      string
	Function string
	Args     []string
}

// summarizeOperator is the pipeline-level grouping operator of spec
// §4.G: it buffers every incoming batch, bucketing rows by their GroupBy
// field values, and on upstream exhaustion emits one row per distinct
// group carrying the group-by fields followed by each aggregation's
// Get() result. Grounded directly on agg.Instance's
// Update(batch)/Get()/Merge() cycle, which agg_test.go already exercises
// without a surrounding pipeline; this operator is the missing glue that
// drives that cycle from a real operator chain.
type summarizeOperator struct {
	op.DefaultOptimize
	GroupBy []string
	Aggs    []AggSpec
}

// Summarize constructs a `summarize` operator grouping by groupBy and
// computing aggs per group.
func Summarize(groupBy []string, aggs []AggSpec) op.Operator {
	return &summarizeOperator{GroupBy: groupBy, Aggs: aggs}
}

func (s *summarizeOperator) Name() string               { return "summarize" }
func (s *summarizeOperator) InputType() op.ElementType  { return op.Events }
func (s *summarizeOperator) OutputType() op.ElementType { return op.Events }
func (s *summarizeOperator) Location() op.Location      { return op.Anywhere }
func (s *summarizeOperator) Internal() bool             { return false }

// groupState is the per-group-key accumulator: the group-by values
// themselves (for the output row) and one agg.Instance per AggSpec, in
// the same order as s.Aggs.
type groupState struct {
	keyValues []tsql.Data
	instances []agg.Instance
}

func (s *summarizeOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	groups := make(map[string]*groupState)
	var order []string // first-seen group key order, for deterministic output
	var outSchema tsql.Type
	schemaBuilt := false
	upstreamDone := false

	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if upstreamDone {
			return op.DoneYield(), nil
		}

		y, err := input.Next(ctx)
		if err != nil {
			return y, err
		}
		if y.Kind != op.Productive {
			if y.Kind == op.Done {
				upstreamDone = true
				return s.finish(groups, order)
			}
			return y, nil
		}

		batch := y.Element.Events
		if !schemaBuilt {
			outSchema = batch.Schema()
			schemaBuilt = true
		}
		if err := s.absorb(batch, groups, &order, ctrl.Diagnostics()); err != nil {
			return op.Yield{}, errors.Wrap(err, "summarize")
		}
		return op.EmptyYield(), nil
	}), nil
}

// absorb buckets batch's rows by group key and feeds each group's rows
// into its per-aggregation instances, creating both group and instances
// on first sight of a key.
func (s *summarizeOperator) absorb(batch *table.Slice, groups map[string]*groupState, order *[]string, diags diag.Sink) error {
	schema := batch.Schema()
	groupIdx := make([]int, len(s.GroupBy))
	for i, name := range s.GroupBy {
		_, idx, ok := schema.Resolve(name)
		if !ok {
			return errors.Errorf("summarize: group-by field %q not found", name)
		}
		groupIdx[i] = idx
	}

	argIdx := make([][]int, len(s.Aggs))
	argTypes := make([][]tsql.Type, len(s.Aggs))
	for ai, a := range s.Aggs {
		argIdx[ai] = make([]int, len(a.Args))
		argTypes[ai] = make([]tsql.Type, len(a.Args))
		for j, name := range a.Args {
			_, idx, ok := schema.Resolve(name)
			if !ok {
				return errors.Errorf("summarize: argument field %q not found", name)
			}
			argIdx[ai][j] = idx
			argTypes[ai][j] = batch.Columns()[idx].Type
		}
	}

	rows := batch.Rows()
	keyOf := func(row int) (string, []tsql.Data) {
		key := make([]byte, 0, 16*len(groupIdx))
		values := make([]tsql.Data, len(groupIdx))
		for i, idx := range groupIdx {
			v := batch.Columns()[idx].At(row).Materialize()
			values[i] = v
			key = append(key, canonicalBytes(v, "")...)
			key = append(key, 0)
		}
		return string(key), values
	}

	byKey := make(map[string][]int)
	keyValues := make(map[string][]tsql.Data)
	for row := 0; row < rows; row++ {
		k, values := keyOf(row)
		byKey[k] = append(byKey[k], row)
		keyValues[k] = values
	}

	for k, rowIdxs := range byKey {
		g, ok := groups[k]
		if !ok {
			g = &groupState{keyValues: keyValues[k], instances: make([]agg.Instance, len(s.Aggs))}
			for ai, a := range s.Aggs {
				fn, ok := agg.Lookup(a.Function)
				if !ok {
					return errors.Errorf("summarize: unknown aggregation function %q", a.Function)
				}
				inst, err := fn.New(argTypes[ai])
				if err != nil {
					return errors.Wrapf(err, "summarize: %s(%v)", a.Function, a.Args)
				}
				g.instances[ai] = inst
			}
			groups[k] = g
			*order = append(*order, k)
		}
		mask := make(table.Mask, rows)
		for _, r := range rowIdxs {
			mask[r] = true
		}
		groupRows, err := table.Filter(batch, mask)
		if err != nil {
			return err
		}
		if groupRows == nil {
			continue
		}
		for ai := range s.Aggs {
			argSlice, err := projectIndices(groupRows, argIdx[ai])
			if err != nil {
				return err
			}
			if err := g.instances[ai].Update(argSlice, diags); err != nil {
				return err
			}
		}
	}
	return nil
}

// projectIndices builds a Slice containing exactly the given leaf column
// indices of src, in order, reusing columns without copying.
func projectIndices(src *table.Slice, indices []int) (*table.Slice, error) {
	leaves := src.Schema().Leaves()
	fields := make([]tsql.Field, len(indices))
	columns := make([]*table.Column, len(indices))
	for i, idx := range indices {
		fields[i] = leaves[idx].Field
		columns[i] = src.Columns()[idx]
	}
	rec, err := tsql.NewRecord(fields)
	if err != nil {
		return nil, err
	}
	return table.New(rec, columns, nil)
}

func (s *summarizeOperator) finish(groups map[string]*groupState, order []string) (op.Yield, error) {
	if len(groups) == 0 {
		return op.DoneYield(), nil
	}
	// Types are only knowable once every instance has seen at least one
	// Update, so the output schema is derived from the first group.
	first := groups[order[0]]
	fields := make([]tsql.Field, 0, len(s.GroupBy)+len(s.Aggs))
	for i, name := range s.GroupBy {
		fields = append(fields, tsql.Field{Name: name, Type: typeOfData(first.keyValues[i])})
	}
	for i, a := range s.Aggs {
		fields = append(fields, tsql.Field{Name: a.Out, Type: typeOfData(first.instances[i].Get())})
	}
	rec, err := tsql.NewRecord(fields)
	if err != nil {
		return op.Yield{}, err
	}
	b := table.NewBuilder(rec)
	for _, k := range order {
		g := groups[k]
		row := make([]tsql.Data, 0, len(fields))
		row = append(row, g.keyValues...)
		for _, inst := range g.instances {
			row = append(row, inst.Get())
		}
		b.AddRow(row...)
	}
	slice, err := b.Build(nil)
	if err != nil {
		return op.Yield{}, err
	}
	return op.ProductiveEvents(slice), nil
}

func typeOfData(d tsql.Data) tsql.Type {
	switch d.Kind() {
	case tsql.KindBool:
		return tsql.Bool
	case tsql.KindInt64:
		return tsql.Int64
	case tsql.KindUint64:
		return tsql.Uint64
	case tsql.KindDouble:
		return tsql.Double
	case tsql.KindDuration:
		return tsql.Duration
	case tsql.KindTime:
		return tsql.Time
	case tsql.KindBlob:
		return tsql.Blob
	case tsql.KindIP:
		return tsql.IP
	case tsql.KindSubnet:
		return tsql.Subnet
	default:
		return tsql.String
	}
}
