package partition

import (
	"context"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/pilosa/pilosa/roaring"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Evaluate implements the spec §4.H algorithm: tailor, resolve, evaluate,
// scan-fallback, bounded by the partition's all-rows set. It never returns
// an error for partial indexer failures — those degrade to an empty
// contribution plus a warning diagnostic, per the partial-failure policy —
// only for context cancellation.
func Evaluate(ctx context.Context, e *expr.Expr, part *Partition, diags diag.Sink) (*roaring.Bitmap, error) {
	tailored := expr.Tailor(e, part.Schema)
	if expr.IsTriviallyFalse(tailored) {
		return roaring.NewBitmap(), nil
	}
	ev := &evaluation{part: part, diags: diags, memo: map[uint64]*roaring.Bitmap{}}
	result, err := ev.eval(ctx, tailored)
	if err != nil {
		return nil, err
	}
	return result.Intersect(part.AllRows), nil
}

type evaluation struct {
	part  *Partition
	diags diag.Sink
	mu    sync.Mutex
	memo  map[uint64]*roaring.Bitmap
}

// memoKey keys the memo so that two identical subtrees reached via
// different paths share one indexer call (spec §4.H "deduplicating
// identical predicates across the expression tree"). hashstructure only
// sees exported fields, so tsql.StructuralHash alone does not distinguish
// literal values (tsql.Data has no exported fields); the key therefore
// also mixes in a hash of the node's printed form, which includes them.
func (ev *evaluation) memoKey(node *expr.Expr) (uint64, bool) {
	h, err := tsql.StructuralHash(node)
	if err != nil {
		return 0, false
	}
	return h ^ xxhash.Sum64String(node.String()), true
}

func (ev *evaluation) eval(ctx context.Context, node *expr.Expr) (*roaring.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, cacheable := ev.memoKey(node)
	if cacheable {
		ev.mu.Lock()
		if cached, ok := ev.memo[key]; ok {
			ev.mu.Unlock()
			return cached, nil
		}
		ev.mu.Unlock()
	}

	result, err := ev.evalUncached(ctx, node)
	if err != nil {
		return nil, err
	}
	if cacheable {
		ev.mu.Lock()
		ev.memo[key] = result
		ev.mu.Unlock()
	}
	return result, nil
}

func (ev *evaluation) evalUncached(ctx context.Context, node *expr.Expr) (*roaring.Bitmap, error) {
	switch node.Kind {
	case expr.KindLogical:
		return ev.evalLogical(ctx, node)
	case expr.KindUnaryNot:
		inner, err := ev.eval(ctx, node.Operand)
		if err != nil {
			return nil, err
		}
		return ev.part.AllRows.Difference(inner), nil
	case expr.KindBinary:
		return ev.evalBinary(ctx, node)
	case expr.KindLiteral:
		if b, ok := node.Literal.Bool(); ok && b {
			return ev.part.AllRows, nil
		}
		return roaring.NewBitmap(), nil
	default:
		// Scan fallback: any node shape the evaluator doesn't specifically
		// resolve (e.g. a bare function call) can't be answered by an
		// indexer, so hand back every row for a downstream filter to prune.
		return ev.part.AllRows, nil
	}
}

func (ev *evaluation) evalLogical(ctx context.Context, node *expr.Expr) (*roaring.Bitmap, error) {
	results := make([]*roaring.Bitmap, len(node.Operands))
	errs := make([]error, len(node.Operands))
	var wg sync.WaitGroup
	for i, operand := range node.Operands {
		wg.Add(1)
		go func(i int, operand *expr.Expr) {
			defer wg.Done()
			r, err := ev.eval(ctx, operand)
			results[i], errs[i] = r, err
		}(i, operand)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	switch node.LogOp {
	case expr.OpAnd:
		acc := ev.part.AllRows
		for _, r := range results {
			acc = acc.Intersect(r)
		}
		return acc, nil
	default: // OpOr
		acc := roaring.NewBitmap()
		for _, r := range results {
			acc = acc.Union(r)
		}
		return acc, nil
	}
}

func (ev *evaluation) evalBinary(ctx context.Context, node *expr.Expr) (*roaring.Bitmap, error) {
	if node.Left.Kind == expr.KindMeta {
		return ev.evalMeta(node.Left.Meta, node)
	}
	if node.Left.Kind == expr.KindField {
		return ev.evalField(ctx, node.Left.FieldPath, node)
	}
	// Neither side is something the evaluator can curry to an indexer
	// (e.g. a computed left-hand side); fall back to a full scan.
	return ev.part.AllRows, nil
}

func (ev *evaluation) evalField(ctx context.Context, fieldPath string, pred *expr.Expr) (*roaring.Bitmap, error) {
	indexer, ok := ev.part.Indexers[fieldPath]
	if !ok {
		return ev.part.AllRows, nil
	}
	ids, err := indexer.Lookup(ctx, pred)
	if err != nil {
		if ev.diags != nil {
			ev.diags.Emit(diag.Warningf("indexer for %q failed: %s", fieldPath, err).Done())
		}
		return roaring.NewBitmap(), nil
	}
	return ids, nil
}

func (ev *evaluation) evalMeta(m expr.MetaExtractor, pred *expr.Expr) (*roaring.Bitmap, error) {
	switch m {
	case expr.MetaSchema:
		acc := roaring.NewBitmap()
		for name, ids := range ev.part.TypeIDs {
			if matchesLiteral(pred, tsql.NewString(name)) {
				acc = acc.Union(ids)
			}
		}
		return acc, nil
	case expr.MetaSchemaID:
		acc := roaring.NewBitmap()
		for name, ids := range ev.part.TypeIDs {
			if matchesLiteral(pred, tsql.NewUint64(ev.part.SchemaFingerprint(name))) {
				acc = acc.Union(ids)
			}
		}
		return acc, nil
	case expr.MetaImportTime:
		switch ev.importTimeVerdict(pred) {
		case DefinitelyNo:
			return roaring.NewBitmap(), nil
		default: // Maybe and DefinitelyYes both widen to every row in range.
			return ev.part.AllRows, nil
		}
	case expr.MetaInternal:
		if matchesLiteral(pred, tsql.NewBool(ev.part.Internal)) {
			return ev.part.AllRows, nil
		}
		return roaring.NewBitmap(), nil
	default:
		return ev.part.AllRows, nil
	}
}

func (ev *evaluation) importTimeVerdict(pred *expr.Expr) Verdict {
	if ev.part.ImportTimeSynopsis == nil {
		return Maybe
	}
	return ev.part.ImportTimeSynopsis.Check(pred)
}

// matchesLiteral evaluates pred's comparison operator against a concrete
// candidate value substituted for its left-hand meta extractor, used for
// the #schema/#schema_id/#internal per-name checks of spec §4.H step 2.
func matchesLiteral(pred *expr.Expr, candidate tsql.Data) bool {
	right, ok := pred.Right.Literal, pred.Right.Kind == expr.KindLiteral
	if !ok {
		return false
	}
	switch pred.BinOp {
	case expr.OpEq:
		return tsql.Equal(candidate, right)
	case expr.OpNe:
		return !tsql.Equal(candidate, right)
	default:
		return false
	}
}
