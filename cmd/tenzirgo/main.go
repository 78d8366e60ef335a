// Command tenzirgo is a minimal front-end over the pipeline engine: it
// composes a fixed demonstration pipeline (`version | measure events`),
// runs it to completion against an in-memory sink, and logs each output
// batch. This is the module's equivalent of the teacher's standalone
// server example — a self-contained way to see the engine work without
// wiring a real catalog, connector, or admin surface, all of which
// remain out of scope (spec.md §1).
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/exec"
	"github.com/tenzir-community/tenzirgo/memtable"
	"github.com/tenzir-community/tenzirgo/pipeline"
	"github.com/tenzir-community/tenzirgo/pipeline/builtin"
)

func main() {
	log := logrus.NewEntry(logrus.StandardLogger())

	store := memtable.NewStore()
	p, err := pipeline.New(
		builtin.Version(builtin.BuildInfo{
			Version:  "0.1.0",
			Tag:      "dev",
			Major:    0,
			Minor:    1,
			Patch:    0,
			Features: []string{"memtable", "partitions", "throttle"},
		}),
		builtin.MeasureEvents(1, false, false, time.Second),
		memtable.Sink(store),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to compose pipeline")
	}

	var diags diag.Collector
	ctrl := exec.NewController(&diags, nil, nil, false, log)
	gen, err := pipeline.Instantiate(p, ctrl)
	if err != nil {
		log.WithError(err).Fatal("failed to instantiate pipeline")
	}

	res := exec.Run(context.Background(), gen, ctrl)
	for _, d := range diags.Diagnostics() {
		log.Warn(d)
	}
	if res.Err != nil {
		log.WithError(res.Err).Fatal("pipeline run failed")
	}
	if res.Cancelled {
		log.Warn("pipeline run cancelled")
	}

	for _, batch := range store.Snapshot() {
		log.WithFields(logrus.Fields{
			"schema": batch.Schema().Name(),
			"rows":   batch.Rows(),
		}).Info("output batch")
	}

	if diags.HasError() {
		os.Exit(1)
	}
}
