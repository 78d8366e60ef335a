package partition

import "github.com/tenzir-community/tenzirgo/expr"

// Verdict is the three-valued answer a synopsis gives about whether a
// predicate could match any row it summarizes (spec §4.H step 2,
// #import_time synopsis lookup).
type Verdict uint8

const (
	// DefinitelyNo: no row in the summarized range can satisfy pred; the
	// evaluator may skip it entirely.
	DefinitelyNo Verdict = iota
	// Maybe: some rows might satisfy pred; the evaluator must widen to
	// every row in range rather than guess which ones.
	Maybe
	// DefinitelyYes: every row in the summarized range satisfies pred.
	DefinitelyYes
)

// Synopsis answers Verdict questions about a predicate over #import_time
// without inspecting individual rows, backed by the partition's
// [min_import_time, max_import_time] interval.
type Synopsis interface {
	Check(pred *expr.Expr) Verdict
}

// SynopsisFunc adapts a plain function to Synopsis.
type SynopsisFunc func(pred *expr.Expr) Verdict

func (f SynopsisFunc) Check(pred *expr.Expr) Verdict { return f(pred) }
