package builtin

import (
	"context"
	"time"

	"github.com/tenzir-community/tenzirgo/op"
)

// throttleOperator rate-limits a bytes stream to bandwidth bytes per
// window, grounded on throttle.cpp's token-bucket: once the current
// window's allowance is exhausted, the operator suspends until the window
// rolls over rather than buffering or dropping data.
//
// throttle.cpp schedules a wake callback via ctrl.self().run_scheduled_weak
// and calls ctrl.set_waiting(false) from that callback. The Controller here
// has no equivalent scheduled-wake primitive, so on suspending the operator
// arms a time.AfterFunc timer that clears the waiting flag once the window
// has elapsed; the scheduler (exec/scheduler.go) does not re-enter a
// Suspended generator until that flag is clear. On re-entry the wake time
// tracked in the operator's own state is checked against ctrl.Now().
type throttleOperator struct {
	op.DefaultOptimize
	Bandwidth uint64
	Window    time.Duration
}

// Throttle constructs a `throttle` operator limiting a bytes stream to
// bandwidth bytes per window.
func Throttle(bandwidth uint64, window time.Duration) op.Operator {
	if window <= 0 {
		window = time.Second
	}
	return &throttleOperator{Bandwidth: bandwidth, Window: window}
}

func (t *throttleOperator) Name() string               { return "throttle" }
func (t *throttleOperator) InputType() op.ElementType  { return op.Bytes }
func (t *throttleOperator) OutputType() op.ElementType { return op.Bytes }
func (t *throttleOperator) Location() op.Location      { return op.Anywhere }
func (t *throttleOperator) Internal() bool             { return false }

// throttleState is split per window: bytesSent counts what already went
// out this window, windowStart anchors the window, and pending holds the
// remainder of a chunk that was split across a window boundary.
type throttleState struct {
	bytesSent   uint64
	windowStart time.Time
	pending     []byte
	waiting     bool
	wakeAt      time.Time
}

func (t *throttleOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	st := &throttleState{windowStart: ctrl.Now()}

	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if st.waiting {
			now := ctrl.Now()
			if now.Before(st.wakeAt) {
				return op.SuspendedYield(), nil
			}
			st.waiting = false
			st.windowStart = now
			st.bytesSent = 0
			ctrl.SetWaiting(false)
		}

		if len(st.pending) == 0 {
			y, err := input.Next(ctx)
			if err != nil || y.Kind != op.Productive {
				return y, err
			}
			st.pending = y.Element.Bytes
			if len(st.pending) == 0 {
				return op.EmptyYield(), nil
			}
		}

		now := ctrl.Now()
		if now.Sub(st.windowStart) >= t.Window {
			st.windowStart = now
			st.bytesSent = 0
		}

		var allowance uint64
		if t.Bandwidth > st.bytesSent {
			allowance = t.Bandwidth - st.bytesSent
		}
		if allowance == 0 {
			st.wakeAt = st.windowStart.Add(t.Window)
			st.waiting = true
			ctrl.SetWaiting(true)
			time.AfterFunc(st.wakeAt.Sub(now), func() { ctrl.SetWaiting(false) })
			return op.SuspendedYield(), nil
		}

		send := st.pending
		if uint64(len(send)) > allowance {
			send = send[:allowance]
		}
		st.pending = st.pending[len(send):]
		st.bytesSent += uint64(len(send))
		return op.ProductiveBytes(send), nil
	}), nil
}
