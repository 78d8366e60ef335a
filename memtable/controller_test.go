package memtable

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/secret"
)

type fakeController struct {
	diags diag.Collector
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
func (c *fakeController) Now() time.Time     { return time.Time{} }
func (c *fakeController) Log() *logrus.Entry { return logrus.NewEntry(logrus.StandardLogger()) }
