// Package function implements the built-in aggregation functions of spec
// §3.6, grounded one-to-one on
// original_source/libtenzir/builtins/aggregation-functions/*.cpp.
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

// anyFunction implements the `any` aggregation (logical OR over a bool
// column), grounded on any.cpp.
type anyFunction struct{}

func (anyFunction) Name() string { return "any" }

func (anyFunction) New(argTypes []tsql.Type) (agg.Instance, error) {
	if len(argTypes) != 1 || argTypes[0].Kind() != tsql.KindBool {
		return nil, errors.New("any() expects exactly one bool argument")
	}
	return &anyInstance{}, nil
}

// anyState is the gob-serialisable payload of anyInstance.
type anyState struct {
	SawTrue        bool
	SawNull        bool
	SawNonNullFalse bool
}

type anyInstance struct{ anyState }

func (a *anyInstance) Update(batch *table.Slice, diags diag.Sink) error {
	if batch.Rows() == 0 {
		return nil
	}
	col := batch.Columns()[0]
	if col.Type.Kind() != tsql.KindBool {
		return errors.New("any: argument column is not bool")
	}
	for i := 0; i < col.Len(); i++ {
		v := col.At(i).Materialize()
		if v.IsNull() {
			a.SawNull = true
			continue
		}
		b, _ := v.Bool()
		if b {
			a.SawTrue = true
		} else {
			a.SawNonNullFalse = true
		}
	}
	return nil
}

// Get implements the three scenarios of spec §8 scenario 3: a true
// anywhere wins outright; absent that, any null contribution makes the
// result null (state "nulled"); absent both, the OR of plain false values
// is false; absent any input at all the result is null (state "none").
func (a *anyInstance) Get() tsql.Data {
	if a.SawTrue {
		return tsql.NewBool(true)
	}
	if a.SawNull {
		return tsql.NullData
	}
	if a.SawNonNullFalse {
		return tsql.NewBool(false)
	}
	return tsql.NullData
}

func (a *anyInstance) Save() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a.anyState); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *anyInstance) Restore(blob []byte, diags diag.Sink) {
	var s anyState
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&s); err != nil {
		if diags != nil {
			diags.Emit(diag.Warningf("any: failed to restore saved state: %s", err).Done())
		}
		return
	}
	a.anyState = s
}

func (a *anyInstance) Reset() { a.anyState = anyState{} }

func (a *anyInstance) IsDeterministic() bool { return true }

func (a *anyInstance) Merge(other agg.Instance) error {
	o, ok := other.(*anyInstance)
	if !ok {
		return errors.New("any: cannot merge with a different aggregation instance type")
	}
	a.SawTrue = a.SawTrue || o.SawTrue
	a.SawNull = a.SawNull || o.SawNull
	a.SawNonNullFalse = a.SawNonNullFalse || o.SawNonNullFalse
	return nil
}

func init() { agg.Register(anyFunction{}) }
