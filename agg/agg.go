// Package agg implements the aggregation-function protocol of spec §4.G:
// per-group instances with update/get/save/restore/reset, the three-valued
// state machine (none/nulled/failed), and associative/commutative merge.
//
// Grounded on the teacher's sql/expression/aggregation_test.go
// NewBuffer()/Update(session, buf, row)/Merge(session, dst, src)/eval(...)
// cycle, renamed to the spec's vocabulary.
package agg

import (
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// State is the three-valued outcome spec §4.G assigns to aggregations that
// admit it.
type State uint8

const (
	StateNone State = iota
	StateNulled
	StateFailed
)

// Function is a registered aggregation-function constructor, keyed by
// name (e.g. "any", "max", "count_distinct").
type Function interface {
	// Name is the stable function identifier.
	Name() string
	// New constructs a fresh, just-constructed Instance for one group,
	// given the (already-tailored) argument expressions' static types.
	New(argTypes []tsql.Type) (Instance, error)
}

// Instance is a per-group aggregation state (spec §4.G).
type Instance interface {
	// Update incorporates all rows of batch (restricted to the columns
	// the instance's arguments resolve to) into the state. Must be
	// deterministic for deterministic functions; emits warnings on type
	// clashes without aborting.
	Update(batch *table.Slice, diags diag.Sink) error
	// Get produces the current result value. Idempotent; must not
	// mutate state.
	Get() tsql.Data
	// Save serialises state to an opaque byte blob.
	Save() ([]byte, error)
	// Restore loads state previously saved; on format error, emits a
	// warning and leaves state as constructed.
	Restore(blob []byte, diags diag.Sink)
	// Reset returns the instance to its just-constructed state.
	Reset()
	// IsDeterministic is used by the planner for re-ordering safety.
	IsDeterministic() bool
	// Merge combines other's state into the receiver's. Must be
	// associative and, for deterministic functions, commutative.
	Merge(other Instance) error
}

var registry = map[string]Function{}

// Register adds fn to the global aggregation-function registry.
func Register(fn Function) { registry[fn.Name()] = fn }

// Lookup finds a registered aggregation function by name.
func Lookup(name string) (Function, bool) {
	fn, ok := registry[name]
	return fn, ok
}
