package exec

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/secret"
)

// Clock is the injectable time source controller uses, so throttle- and
// measure-style operators can be driven deterministically in tests
// (grounded on the teacher's preference for injected time in its own
// enginetest harnesses rather than calling time.Now directly).
type Clock func() time.Time

// controller is the concrete op.Controller every operator in one pipeline
// run shares.
type controller struct {
	diags      diag.Sink
	cancelled  int32 // atomic bool
	waiting    int32 // atomic bool
	isTerminal bool
	resolver   secret.Resolver
	clock      Clock
	log        *logrus.Entry

	mu      sync.Mutex
	pending int // outstanding secret requests, for diagnostics/testing only
}

// NewController constructs the shared Controller for one pipeline run.
// resolver may be nil, in which case every ResolveSecret request fails
// with secret.NotFoundError.
func NewController(diags diag.Sink, resolver secret.Resolver, clock Clock, isTerminal bool, log *logrus.Entry) *controller {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &controller{diags: diags, resolver: resolver, clock: clock, isTerminal: isTerminal, log: log}
}

func (c *controller) Diagnostics() diag.Sink { return c.diags }

func (c *controller) SetWaiting(w bool) {
	if w {
		atomic.StoreInt32(&c.waiting, 1)
	} else {
		atomic.StoreInt32(&c.waiting, 0)
	}
}

func (c *controller) isWaiting() bool { return atomic.LoadInt32(&c.waiting) != 0 }

// Cancel sets the one-shot cancellation flag spec §4.F requires every
// generator to observe at each yield point.
func (c *controller) Cancel() { atomic.StoreInt32(&c.cancelled, 1) }

func (c *controller) Cancelled() bool { return atomic.LoadInt32(&c.cancelled) != 0 }

func (c *controller) IsTerminal() bool { return c.isTerminal }

func (c *controller) Now() time.Time { return c.clock() }

func (c *controller) Log() *logrus.Entry { return c.log }

func (c *controller) ResolveSecret(req secret.Request) <-chan secret.Result {
	out := make(chan secret.Result, 1)
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	go func() {
		defer func() {
			c.mu.Lock()
			c.pending--
			c.mu.Unlock()
		}()
		if c.resolver == nil {
			out <- secret.Result{Err: &secret.NotFoundError{Name: req.Name}}
			return
		}
		out <- c.resolver.Resolve(context.Background(), req)
	}()
	return out
}
