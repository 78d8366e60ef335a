package op

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/secret"
	"github.com/tenzir-community/tenzirgo/table"
)

// YieldKind classifies what happened on one scheduler step (spec §4.F).
type YieldKind uint8

const (
	// Productive: produced one output element; the element flows to the
	// next operator.
	Productive YieldKind = iota
	// Empty: no element produced this step; the scheduler polls upstream
	// and re-enters.
	Empty
	// Suspended: the operator is blocked (ctrl.SetWaiting(true) was
	// called); the scheduler will not re-enter until wake fires.
	Suspended
	// Done: the generator is exhausted.
	Done
)

// Element is one unit flowing between operators: a table slice for the
// `events` element type, or an opaque byte chunk for `bytes`.
type Element struct {
	Events *table.Slice
	Bytes  []byte
}

// Yield is the result of one Generator.Next call.
type Yield struct {
	Kind    YieldKind
	Element Element
}

func ProductiveEvents(s *table.Slice) Yield {
	return Yield{Kind: Productive, Element: Element{Events: s}}
}

func ProductiveBytes(b []byte) Yield {
	return Yield{Kind: Productive, Element: Element{Bytes: b}}
}

func EmptyYield() Yield    { return Yield{Kind: Empty} }
func SuspendedYield() Yield { return Yield{Kind: Suspended} }
func DoneYield() Yield     { return Yield{Kind: Done} }

// Generator is the per-run unit of work an Operator.Instantiate produces:
// a cooperative, pull-driven sequence of Yields (spec §4.F).
type Generator interface {
	Next(ctx context.Context) (Yield, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context) (Yield, error)

func (f GeneratorFunc) Next(ctx context.Context) (Yield, error) { return f(ctx) }

// Controller is what an operator's Instantiate receives: diagnostics,
// cancellation, scheduler hooks, terminal capability, and secret
// resolution (spec §4.D, §4.F).
type Controller interface {
	Diagnostics() diag.Sink
	// SetWaiting declares the operator blocked (true) or ready (false).
	// The scheduler will not re-enter a generator that last returned
	// Suspended until the operator calls SetWaiting(false) or its wake
	// timer fires.
	SetWaiting(bool)
	// Cancelled reports whether ctrl.Cancel() has been called. Operators
	// must check this at every yield point and on every external wait.
	Cancelled() bool
	// IsTerminal reports whether the pipeline's sink is an interactive
	// terminal (operators like `measure` use this to decide on
	// human-readable vs. machine output; out of core scope beyond the
	// boolean itself).
	IsTerminal() bool
	// ResolveSecret submits a secret request and returns immediately;
	// the operator should call SetWaiting(true) and re-check on its next
	// Next() call.
	ResolveSecret(req secret.Request) <-chan secret.Result
	// Now returns the controller's notion of wall-clock time, injectable
	// for deterministic tests of time-sensitive operators (throttle,
	// measure).
	Now() time.Time
	Log() *logrus.Entry
}
