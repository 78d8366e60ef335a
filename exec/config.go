// Package exec implements the streaming execution runtime of spec §4.F:
// the cooperative single-threaded scheduler, the Controller an operator's
// Instantiate receives, per-operator-step tracing, and the remote-operator
// transport stub for location=remote.
//
// Grounded on the teacher's sql.RowIter/sql.Context pull-iteration model
// (engine.go's row-by-row iteration loop) and its ubiquitous use of
// context.Context for cancellation throughout sql/ and enginetest/.
package exec

import "time"

// BatchConfig carries the two soft batching budgets of spec §4.F, both
// configurable and defaulted the way the teacher's engine.go defaults its
// own tunables (a plain struct with documented zero-value fallback).
type BatchConfig struct {
	MaxRowsPerBatch  int
	MaxBatchInterval time.Duration
}

// DefaultBatchConfig returns the spec-mandated defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{MaxRowsPerBatch: 65536, MaxBatchInterval: time.Second}
}

// Config bundles the runtime's top-level tunables. It is a plain struct;
// nothing in the module loads it from a configuration file.
type Config struct {
	Batch       BatchConfig
	CancelGrace time.Duration
}

// DefaultConfig returns the runtime defaults.
func DefaultConfig() Config {
	return Config{Batch: DefaultBatchConfig(), CancelGrace: 2 * time.Second}
}
