package builtin

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/secret"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// fakeController is a minimal op.Controller test double shared by this
// package's operator tests, with an injectable clock for the operators
// (measure, throttle) whose batching/rate-limiting depends on time.
type fakeController struct {
	diags diag.Collector
	now   time.Time
}

func (c *fakeController) Diagnostics() diag.Sink { return &c.diags }
func (c *fakeController) SetWaiting(bool)        {}
func (c *fakeController) Cancelled() bool        { return false }
func (c *fakeController) IsTerminal() bool       { return false }
func (c *fakeController) ResolveSecret(req secret.Request) <-chan secret.Result {
	ch := make(chan secret.Result, 1)
	ch <- secret.Result{Err: &secret.NotFoundError{Name: req.Name}}
	return ch
}
func (c *fakeController) Now() time.Time     { return c.now }
func (c *fakeController) Log() *logrus.Entry { return logrus.NewEntry(logrus.StandardLogger()) }

func recordSchema(t *testing.T, fields ...tsql.Field) tsql.Type {
	rec, err := tsql.NewRecord(fields)
	require.NoError(t, err)
	return rec
}
