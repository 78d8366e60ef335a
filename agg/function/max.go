package function

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/agg"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// maxFunction implements `max`, grounded on max.cpp. Unlike `any`, max
// treats a null contribution as tainting the result to null for good —
// max.cpp never resumes tracking a maximum once a null has been folded in.
type maxFunction struct{}

func (maxFunction) Name() string { return "max" }

func (maxFunction) New(argTypes []tsql.Type) (agg.Instance, error) {
	if len(argTypes) != 1 {
		return nil, errors.New("max() expects exactly one argument")
	}
	k := argTypes[0].Kind()
	switch k {
	case tsql.KindInt64, tsql.KindUint64, tsql.KindDouble, tsql.KindDuration, tsql.KindTime, tsql.KindString:
	default:
		return nil, errors.Errorf("max() does not support %s", k)
	}
	return &maxInstance{argType: argTypes[0]}, nil
}

type maxState struct {
	State   agg.State
	Has     bool
	Current tsql.Data
}

type maxInstance struct {
	argType tsql.Type
	maxState
}

func (m *maxInstance) Update(batch *table.Slice, diags diag.Sink) error {
	if m.State == agg.StateFailed {
		return nil
	}
	col := batch.Columns()[0]
	for i := 0; i < col.Len(); i++ {
		v := col.At(i).Materialize()
		if v.IsNull() {
			m.State = agg.StateNulled
			continue
		}
		if v.Kind() != m.argType.Kind() {
			m.State = agg.StateFailed
			if diags != nil {
				diags.Emit(diag.Warningf("max: type clash, got %s expected %s", v.Kind(), m.argType.Kind()).Done())
			}
			return nil
		}
		if !m.Has || less(m.Current, v) {
			m.Current = v
			m.Has = true
		}
	}
	return nil
}

func (m *maxInstance) Get() tsql.Data {
	if m.State != agg.StateNone {
		return tsql.NullData
	}
	if !m.Has {
		return tsql.NullData
	}
	return m.Current
}

func (m *maxInstance) Save() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.maxState); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *maxInstance) Restore(blob []byte, diags diag.Sink) {
	var s maxState
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&s); err != nil {
		if diags != nil {
			diags.Emit(diag.Warningf("max: failed to restore saved state: %s", err).Done())
		}
		return
	}
	m.maxState = s
}

func (m *maxInstance) Reset() { m.maxState = maxState{} }

func (m *maxInstance) IsDeterministic() bool { return true }

func (m *maxInstance) Merge(other agg.Instance) error {
	o, ok := other.(*maxInstance)
	if !ok {
		return errors.New("max: cannot merge with a different aggregation instance type")
	}
	if o.State == agg.StateFailed {
		m.State = agg.StateFailed
		return nil
	}
	if o.State == agg.StateNulled {
		m.State = agg.StateNulled
	}
	if o.Has && (!m.Has || less(m.Current, o.Current)) {
		m.Current = o.Current
		m.Has = true
	}
	return nil
}

// less orders two same-kind, non-null values for max's comparisons,
// reusing the ordering the evaluator already implements for <,<=,>,>=.
func less(a, b tsql.Data) bool {
	switch a.Kind() {
	case tsql.KindInt64:
		av, _ := a.Int64()
		bv, _ := b.Int64()
		return av < bv
	case tsql.KindUint64:
		av, _ := a.Uint64()
		bv, _ := b.Uint64()
		return av < bv
	case tsql.KindDouble:
		av, _ := a.Double()
		bv, _ := b.Double()
		return av < bv
	case tsql.KindDuration:
		av, _ := a.Duration()
		bv, _ := b.Duration()
		return av < bv
	case tsql.KindTime:
		av, _ := a.Time()
		bv, _ := b.Time()
		return av.Before(bv)
	case tsql.KindString:
		av, _ := a.String()
		bv, _ := b.String()
		return av < bv
	default:
		return false
	}
}

func init() { agg.Register(maxFunction{}) }
