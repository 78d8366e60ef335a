// Package memtable provides an in-memory reference implementation of the
// storage-adjacent interfaces the rest of the module only specifies as
// protocols: a partition.Indexer that answers predicates by a literal
// table scan, a partition.Synopsis that delegates to an injected verdict
// function, and op.Operator sources/sinks that hold their rows as plain
// table.Slice batches. It plays the role the teacher's memory package
// plays for sql.Database/sql.Table: a dependency-free stand-in good
// enough to drive enginetest and unit tests, never meant for production
// storage.
package memtable

import (
	"context"
	"sync"

	"github.com/pilosa/pilosa/roaring"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/partition"
	"github.com/tenzir-community/tenzirgo/table"
)

// ScanIndexer is a partition.Indexer that answers every Lookup by
// evaluating pred against every row of Rows directly, the brute-force
// baseline every real indexer is checked against.
type ScanIndexer struct {
	Rows *table.Slice
}

func (s *ScanIndexer) Lookup(ctx context.Context, pred *expr.Expr) (*roaring.Bitmap, error) {
	mask := expr.EvalMask(expr.Tailor(pred, s.Rows.Schema()), s.Rows, discardSink{})
	var ids []uint64
	for i, ok := range mask {
		if ok {
			ids = append(ids, uint64(i))
		}
	}
	return roaring.NewBitmap(ids...), nil
}

// discardSink is a diag.Sink that drops every diagnostic; ScanIndexer's
// Lookup never returns an error, and warnings raised while evaluating the
// predicate are not reported anywhere.
type discardSink struct{}

func (discardSink) Emit(diag.Diagnostic) {}

// IntervalSynopsis is a partition.Synopsis whose verdicts come from the
// injected Check_ function; it stores no interval of its own. With a nil
// Check_ every predicate gets Maybe.
type IntervalSynopsis struct {
	Check_ func(pred *expr.Expr) partition.Verdict
}

func (s *IntervalSynopsis) Check(pred *expr.Expr) partition.Verdict {
	if s.Check_ == nil {
		return partition.Maybe
	}
	return s.Check_(pred)
}

// Store is an in-memory append-only sequence of table.Slice batches,
// shared between a Source generator (reads) and a Sink generator
// (writes) so tests can assert what a pipeline produced.
type Store struct {
	mu     sync.Mutex
	schema table.Slice
	Rows   []*table.Slice
}

// NewStore creates an empty store.
func NewStore() *Store { return &Store{} }

// Append adds a batch to the store. Safe for concurrent use since a
// sink's Instantiate may run on a different generator than a concurrent
// reader inspecting Snapshot in a test.
func (s *Store) Append(slice *table.Slice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows = append(s.Rows, slice)
}

// Snapshot returns every batch appended so far.
func (s *Store) Snapshot() []*table.Slice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*table.Slice, len(s.Rows))
	copy(out, s.Rows)
	return out
}

// sourceOperator replays a fixed sequence of batches, one per Next call,
// the reference source every enginetest scenario reads its input from.
type sourceOperator struct {
	op.DefaultOptimize
	Batches []*table.Slice
}

// Source constructs a memtable source operator emitting batches in
// order, then Done.
func Source(batches []*table.Slice) op.Operator {
	return &sourceOperator{Batches: batches}
}

func (s *sourceOperator) Name() string               { return "memtable-source" }
func (s *sourceOperator) InputType() op.ElementType  { return op.Void }
func (s *sourceOperator) OutputType() op.ElementType { return op.Events }
func (s *sourceOperator) Location() op.Location      { return op.Anywhere }
func (s *sourceOperator) Internal() bool             { return false }

func (s *sourceOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	next := 0
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if ctrl.Cancelled() {
			return op.DoneYield(), nil
		}
		if next >= len(s.Batches) {
			return op.DoneYield(), nil
		}
		batch := s.Batches[next]
		next++
		return op.ProductiveEvents(batch), nil
	}), nil
}

// sinkOperator drains its upstream generator into a Store, one Append
// per upstream batch, so a test can assert on the Store's contents once
// the pipeline runs to completion.
type sinkOperator struct {
	op.DefaultOptimize
	Store *Store
}

// Sink constructs a memtable sink operator appending every upstream
// batch to store.
func Sink(store *Store) op.Operator {
	return &sinkOperator{Store: store}
}

func (s *sinkOperator) Name() string               { return "memtable-sink" }
func (s *sinkOperator) InputType() op.ElementType  { return op.Events }
func (s *sinkOperator) OutputType() op.ElementType { return op.Void }
func (s *sinkOperator) Location() op.Location      { return op.Anywhere }
func (s *sinkOperator) Internal() bool             { return false }

func (s *sinkOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil {
			return op.Yield{}, err
		}
		if y.Kind == op.Productive && y.Element.Events != nil {
			s.Store.Append(y.Element.Events)
		}
		return y, nil
	}), nil
}
