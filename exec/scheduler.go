package exec

import (
	"context"
	"errors"
	"time"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/op"
)

// Result is what Run resolves with: either the pipeline ran to
// completion, was cancelled, or stopped on a fatal diagnostic (spec §4.F
// "an error diagnostic additionally terminates the pipeline").
type Result struct {
	Cancelled bool
	Err       error
}

// Run drives root — the innermost Generator of an instantiated pipeline,
// i.e. its terminal sink — to completion, implementing the cooperative
// scheduling loop of spec §4.F: Productive yields are simply consumed (the
// sink itself is what turns them into side effects), Empty yields cause an
// immediate re-entry, and Suspended yields park the loop until the
// operator clears its waiting flag or the context is done.
//
// Grounded on the teacher's sql.RowIter pull loop (engine.go's row-by-row
// `for { row, err := iter.Next(ctx); ... }`), generalized to the
// three-valued yield the spec adds on top of plain "next row or EOF".
func Run(ctx context.Context, root op.Generator, ctrl *controller) Result {
	for {
		if ctrl.Cancelled() || ctx.Err() != nil {
			return Result{Cancelled: true}
		}
		y, err := root.Next(ctx)
		if err != nil {
			return Result{Err: err}
		}
		if diagnosticsFatal(ctrl.Diagnostics()) {
			return Result{Err: errors.New("pipeline terminated by an error diagnostic")}
		}
		switch y.Kind {
		case op.Done:
			return Result{}
		case op.Productive, op.Empty:
			continue
		case op.Suspended:
			if !waitForReady(ctx, ctrl) {
				return Result{Cancelled: true}
			}
		}
	}
}

// waitForReady blocks until the controller's waiting flag clears or the
// context is cancelled, polling at a short fixed interval since the
// runtime has no concrete wake-channel per operator (an operator that
// schedules a real timer clears SetWaiting itself once it fires; this
// poll is the scheduler's half of that handshake).
func waitForReady(ctx context.Context, ctrl *controller) bool {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if !ctrl.isWaiting() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if ctrl.Cancelled() {
				return false
			}
		}
	}
}

// Cancel requests cancellation of a running pipeline (spec §4.F
// "ctrl.cancel() sets a one-shot flag"). The scheduler observes it within
// one tick; operators are expected to observe it within one Next call.
func Cancel(ctrl *controller) { ctrl.Cancel() }

// diagnosticsFatal reports whether diags contains a terminating error. Run
// checks it after every Next call and stops the pipeline with an error
// Result as soon as an error diagnostic has been collected.
func diagnosticsFatal(diags diag.Sink) bool {
	c, ok := diags.(*diag.Collector)
	return ok && c.HasError()
}
