package partition

import (
	"context"

	"github.com/pilosa/pilosa/roaring"
	"github.com/tenzir-community/tenzirgo/expr"
)

// Indexer answers row-id queries for predicates over one leaf column,
// generalizing the teacher's sql.Index: where sql.Index builds a
// sql.IndexLookup from a single comparison, Indexer.Lookup takes the
// already-curried predicate (a KindBinary or KindLogical node whose field
// operand is this column) and returns the matching row ids directly.
type Indexer interface {
	// Lookup returns the row ids in this indexer's partition for which
	// pred holds. A returned error is treated by the evaluator as an
	// empty result with a warning (spec §4.H partial-failure policy).
	Lookup(ctx context.Context, pred *expr.Expr) (*roaring.Bitmap, error)
}

// IndexerFunc adapts a plain function to Indexer.
type IndexerFunc func(ctx context.Context, pred *expr.Expr) (*roaring.Bitmap, error)

func (f IndexerFunc) Lookup(ctx context.Context, pred *expr.Expr) (*roaring.Bitmap, error) {
	return f(ctx, pred)
}
