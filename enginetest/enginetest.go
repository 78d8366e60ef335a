// Package enginetest is the black-box harness that drives a composed
// pipeline end to end through exec.Run against memtable source/sink
// operators, the generalization of the teacher's sql.Database/sql.Table
// driven enginetest harness to this module's own operator/exec
// protocols. It exercises spec.md §8's concrete end-to-end scenarios
// rather than one connector's worth of row-by-row SQL conformance.
package enginetest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/exec"
	"github.com/tenzir-community/tenzirgo/memtable"
	"github.com/tenzir-community/tenzirgo/pipeline"
	"github.com/tenzir-community/tenzirgo/table"
)

// RunToStore composes a memtable source emitting input, steps, and a
// memtable sink into one pipeline, runs it to completion, and returns
// the sink's accumulated batches. Mirrors the teacher's memoryharness.go
// pattern of wrapping a query under test with an in-memory table on one
// end and an assertable result set on the other.
func RunToStore(steps []pipeline.Step, input []*table.Slice) ([]*table.Slice, diag.Collector, error) {
	store := memtable.NewStore()
	full := append([]pipeline.Step{memtable.Source(input)}, steps...)
	full = append(full, memtable.Sink(store))

	p, err := pipeline.New(full...)
	if err != nil {
		return nil, diag.Collector{}, err
	}

	var diags diag.Collector
	ctrl := exec.NewController(&diags, nil, fixedClock(time.Unix(0, 0)), false, logrus.NewEntry(logrus.StandardLogger()))
	gen, err := pipeline.Instantiate(p, ctrl)
	if err != nil {
		return nil, diags, err
	}
	res := exec.Run(context.Background(), gen, ctrl)
	if res.Err != nil {
		return nil, diags, res.Err
	}
	return store.Snapshot(), diags, nil
}

func fixedClock(t time.Time) exec.Clock {
	return func() time.Time { return t }
}
