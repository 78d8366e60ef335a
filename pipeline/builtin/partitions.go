package builtin

import (
	"context"

	"github.com/pilosa/pilosa/roaring"

	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/partition"
	"github.com/tenzir-community/tenzirgo/table"
)

// PartitionSource pairs one partition/partition.go Partition with the
// slice of rows it actually stores, row index aligned with the
// partition's row-id space. This is the unit `partitions` scans.
type PartitionSource struct {
	Partition *partition.Partition
	Rows      *table.Slice
}

// partitionsOperator is the source half of spec §4.H's partition pruning:
// for every configured partition, evaluate Predicate against the
// partition's indexers/synopsis to get a candidate row-id bitmap, then
// filter the partition's backing rows down to it before emitting. Because
// the evaluator's candidate set can be a superset of the true matches
// (false positives from an approximate indexer, per spec §4.H's
// quantified bound), the predicate is left in the accumulator unchanged
// so a downstream `where` still rechecks it row-by-row — this operator
// embeds op.DefaultOptimize rather than absorbing the filter.
type partitionsOperator struct {
	op.DefaultOptimize
	Sources   []PartitionSource
	Predicate *expr.Expr
}

// Partitions constructs a `partitions` source scanning sources, pruning
// each with predicate (nil means scan every row of every partition).
func Partitions(sources []PartitionSource, predicate *expr.Expr) op.Operator {
	return &partitionsOperator{Sources: sources, Predicate: predicate}
}

func (p *partitionsOperator) Name() string               { return "partitions" }
func (p *partitionsOperator) InputType() op.ElementType  { return op.Void }
func (p *partitionsOperator) OutputType() op.ElementType { return op.Events }
func (p *partitionsOperator) Location() op.Location      { return op.Anywhere }
func (p *partitionsOperator) Internal() bool             { return false }

func (p *partitionsOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	next := 0
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if next >= len(p.Sources) {
			return op.DoneYield(), nil
		}
		src := p.Sources[next]
		next++

		if p.Predicate == nil {
			return op.ProductiveEvents(src.Rows), nil
		}
		tailored := expr.Tailor(p.Predicate, src.Partition.Schema)
		bitmap, err := partition.Evaluate(ctx, tailored, src.Partition, ctrl.Diagnostics())
		if err != nil {
			return op.Yield{}, err
		}
		mask := bitmapMask(bitmap, src.Rows.Rows())
		out, err := table.Filter(src.Rows, mask)
		if err != nil {
			return op.Yield{}, err
		}
		if out == nil {
			return op.EmptyYield(), nil
		}
		return op.ProductiveEvents(out), nil
	}), nil
}

func bitmapMask(b *roaring.Bitmap, rows int) table.Mask {
	mask := make(table.Mask, rows)
	for i := 0; i < rows; i++ {
		mask[i] = b.Contains(uint64(i))
	}
	return mask
}
