package diag

import errkind "gopkg.in/src-d/go-errors.v1"

// Kind is one of the domain error kinds enumerated in spec §7. Each Kind
// is a gopkg.in/src-d/go-errors.v1 *errors.Kind, the same closed-error-kind
// pattern the teacher uses throughout sql/index/pilosa (e.g.
// errTypeMismatch) — New(args...) produces a concrete, comparable error
// carrying the kind for errors.Is-style matching.
var (
	Parse             = errkind.NewKind("parse: %s")
	TypeClash         = errkind.NewKind("type-clash: %s")
	NoSuchField       = errkind.NewKind("no-such-field: %s")
	Overflow          = errkind.NewKind("overflow: %s")
	DivisionByZero    = errkind.NewKind("division-by-zero: %s")
	IndexerFailure    = errkind.NewKind("indexer-failure: %s")
	SynopsisUnknown   = errkind.NewKind("synopsis-unknown: %s")
	SecretResolution  = errkind.NewKind("secret-resolution: %s")
	Cancelled         = errkind.NewKind("cancelled: %s")
	Logic             = errkind.NewKind("logic: %s")
)

// Recovery describes the local-recovery policy for a Kind, per the table in
// spec §7. It is informational only: nothing in the module reads it, and
// the actual recovery behavior lives with each component.
type Recovery uint8

const (
	RecoveryNone Recovery = iota
	RecoveryRowWarnNull
	RecoveryExpressionWarnNull
	RecoveryTailorFalse
	RecoveryTreatAsNoRows
	RecoveryWidenToAllRows
	RecoveryFailOperator
	RecoveryUnwind
	RecoveryAbortPipeline
)
