package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// measureOperator reports row or byte throughput as a synthetic metrics
// stream instead of passing its input through, grounded on measure.cpp's
// dual events/bytes overloads: one counter accumulator, flushed as a
// batch whenever batchSize rows have accumulated, realTime is set, or
// timeout elapses since the last flush. Order-invariant under
// optimisation per measure.cpp's own optimize() (row order within a flush
// is unobserved by its semantics, even though the accumulated numbers
// would differ under a reordering upstream of it).
type measureOperator struct {
	op.DefaultOptimize
	events     bool // true: count rows per input schema; false: count bytes
	batchSize  uint64
	realTime   bool
	cumulative bool
	timeout    time.Duration
}

// MeasureEvents constructs a `measure` operator counting rows per schema
// of an events-element input.
func MeasureEvents(batchSize uint64, realTime, cumulative bool, timeout time.Duration) op.Operator {
	return &measureOperator{events: true, batchSize: batchSize, realTime: realTime, cumulative: cumulative, timeout: timeout}
}

// MeasureBytes constructs a `measure` operator counting bytes of a
// bytes-element input.
func MeasureBytes(batchSize uint64, realTime, cumulative bool, timeout time.Duration) op.Operator {
	return &measureOperator{events: false, batchSize: batchSize, realTime: realTime, cumulative: cumulative, timeout: timeout}
}

func (m *measureOperator) Name() string { return "measure" }
func (m *measureOperator) InputType() op.ElementType {
	if m.events {
		return op.Events
	}
	return op.Bytes
}
func (m *measureOperator) OutputType() op.ElementType { return op.Events }
func (m *measureOperator) Location() op.Location      { return op.Anywhere }
func (m *measureOperator) Internal() bool             { return false }

func measureEventsSchema() (tsql.Type, error) {
	rec, err := tsql.NewRecord([]tsql.Field{
		{Name: "timestamp", Type: tsql.Time},
		{Name: "events", Type: tsql.Uint64},
		{Name: "schema", Type: tsql.String},
		{Name: "schema_id", Type: tsql.String},
	})
	if err != nil {
		return tsql.Type{}, err
	}
	return rec.Named("tenzir.metrics.events"), nil
}

func measureBytesSchema() (tsql.Type, error) {
	rec, err := tsql.NewRecord([]tsql.Field{
		{Name: "timestamp", Type: tsql.Time},
		{Name: "bytes", Type: tsql.Uint64},
	})
	if err != nil {
		return tsql.Type{}, err
	}
	return rec.Named("tenzir.metrics.bytes"), nil
}

// measureState is the per-instantiation mutable state of a measure
// generator: the in-progress builder, schema-keyed (or global) counters,
// and the batching clock.
type measureState struct {
	schema       tsql.Type
	builder      *table.Builder
	eventCounts  map[uint64]uint64
	byteCount    uint64
	lastFlush    time.Time
	upstreamDone bool
}

func (m *measureOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	var schema tsql.Type
	var err error
	if m.events {
		schema, err = measureEventsSchema()
	} else {
		schema, err = measureBytesSchema()
	}
	if err != nil {
		return nil, err
	}

	st := &measureState{
		schema:      schema,
		builder:     table.NewBuilder(schema),
		eventCounts: make(map[uint64]uint64),
		lastFlush:   ctrl.Now(),
	}

	flush := func(now time.Time) (op.Yield, error) {
		st.lastFlush = now
		slice, err := st.builder.Build(nil)
		if err != nil {
			return op.Yield{}, err
		}
		st.builder = table.NewBuilder(st.schema)
		return op.ProductiveEvents(slice), nil
	}

	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if st.upstreamDone {
			if st.builder.Len() > 0 {
				return flush(ctrl.Now())
			}
			return op.DoneYield(), nil
		}

		y, err := input.Next(ctx)
		if err != nil {
			return y, err
		}
		now := ctrl.Now()

		if y.Kind == op.Done {
			st.upstreamDone = true
			if st.builder.Len() > 0 {
				return flush(now)
			}
			return op.DoneYield(), nil
		}
		if y.Kind != op.Productive {
			if st.builder.Len() > 0 && st.lastFlush.Add(m.timeout).Before(now) {
				return flush(now)
			}
			return y, nil
		}

		if m.events {
			s := y.Element.Events
			fp := tsql.Fingerprint(s.Schema())
			count := st.eventCounts[fp]
			if m.cumulative {
				count += uint64(s.Rows())
			} else {
				count = uint64(s.Rows())
			}
			st.eventCounts[fp] = count
			st.builder.AddRow(
				tsql.NewTime(now),
				tsql.NewUint64(count),
				tsql.NewString(s.Schema().Name()),
				tsql.NewString(fmt.Sprintf("%016x", fp)),
			)
		} else {
			n := uint64(len(y.Element.Bytes))
			if m.cumulative {
				st.byteCount += n
			} else {
				st.byteCount = n
			}
			st.builder.AddRow(tsql.NewTime(now), tsql.NewUint64(st.byteCount))
		}

		if m.realTime || uint64(st.builder.Len()) >= m.batchSize || st.lastFlush.Add(m.timeout).Before(now) {
			return flush(now)
		}
		return op.EmptyYield(), nil
	}), nil
}
