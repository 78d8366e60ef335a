package pipeline

import (
	"sync"

	"github.com/tenzir-community/tenzirgo/tsql"
)

// SchemaState caches one per-schema substate per distinct schema
// fingerprint, implementing spec §4.E's per-schema specialisation
// protocol: "on each newly observed schema the operator may install a
// schema-specific substate; on subsequent batches with that schema the
// substate is reused." Operators embed a *SchemaState and call GetOrCreate
// from their Instantiate-produced Generator.
//
// Safe for concurrent use since spec §4.H's indexer dispatch already
// relies on a mutex-guarded memo of this shape (partition/evaluator.go),
// and a single-threaded scheduler makes the mutex uncontended overhead
// rather than a correctness requirement.
type SchemaState struct {
	mu    sync.Mutex
	subst map[uint64]interface{}
}

// NewSchemaState constructs an empty per-schema substate cache.
func NewSchemaState() *SchemaState {
	return &SchemaState{subst: make(map[uint64]interface{})}
}

// GetOrCreate returns the cached substate for schema, constructing it via
// create on first observation of that schema's fingerprint.
func (s *SchemaState) GetOrCreate(schema tsql.Type, create func() interface{}) interface{} {
	fp := tsql.Fingerprint(schema)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.subst[fp]; ok {
		return v
	}
	v := create()
	s.subst[fp] = v
	return v
}

// Reset discards every cached substate, for operators whose `reset`
// semantics (spec §4.G-adjacent) also cover schema-keyed state.
func (s *SchemaState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subst = make(map[uint64]interface{})
}
