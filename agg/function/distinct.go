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

// distinctFunction and countDistinctFunction share one instance
// implementation, distinguished only by what Get returns — grounded on
// distinct.cpp, which implements both `distinct` and `count_distinct` off
// of the same distinct_instance with a count_only_ flag.
type distinctFunction struct{ countOnly bool }

func (f distinctFunction) Name() string {
	if f.countOnly {
		return "count_distinct"
	}
	return "distinct"
}

func (f distinctFunction) New(argTypes []tsql.Type) (agg.Instance, error) {
	if len(argTypes) != 1 {
		return nil, errors.Errorf("%s() expects exactly one argument", f.Name())
	}
	return &distinctInstance{argType: argTypes[0], countOnly: f.countOnly, seen: map[string]int{}}, nil
}

type distinctInstance struct {
	argType   tsql.Type
	countOnly bool
	seen      map[string]int // gob-encoded value -> index into order
	order     []tsql.Data
}

func (d *distinctInstance) Update(batch *table.Slice, diags diag.Sink) error {
	col := batch.Columns()[0]
	for i := 0; i < col.Len(); i++ {
		v := col.At(i).Materialize()
		if v.IsNull() {
			continue
		}
		d.insert(v)
	}
	return nil
}

func (d *distinctInstance) insert(v tsql.Data) {
	key, err := gobKey(v)
	if err != nil {
		return
	}
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = len(d.order)
	d.order = append(d.order, v)
}

func (d *distinctInstance) Get() tsql.Data {
	if d.countOnly {
		return tsql.NewUint64(uint64(len(d.order)))
	}
	return tsql.NewList(append([]tsql.Data(nil), d.order...))
}

func (d *distinctInstance) Save() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d.order); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *distinctInstance) Restore(blob []byte, diags diag.Sink) {
	var order []tsql.Data
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&order); err != nil {
		if diags != nil {
			diags.Emit(diag.Warningf("%s: failed to restore saved state: %s", d.Name(), err).Done())
		}
		return
	}
	d.order = nil
	d.seen = map[string]int{}
	for _, v := range order {
		d.insert(v)
	}
}

func (d *distinctInstance) Name() string {
	if d.countOnly {
		return "count_distinct"
	}
	return "distinct"
}

func (d *distinctInstance) Reset() {
	d.order = nil
	d.seen = map[string]int{}
}

func (d *distinctInstance) IsDeterministic() bool { return true }

func (d *distinctInstance) Merge(other agg.Instance) error {
	o, ok := other.(*distinctInstance)
	if !ok {
		return errors.Errorf("%s: cannot merge with a different aggregation instance type", d.Name())
	}
	for _, v := range o.order {
		d.insert(v)
	}
	return nil
}

// gobKey produces a deterministic dedup key for v by gob-encoding it; two
// structurally equal values (spec §3.2) always produce the same bytes
// because Data's GobEncode walks its fields in a fixed order.
func gobKey(v tsql.Data) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func init() {
	agg.Register(distinctFunction{countOnly: false})
	agg.Register(distinctFunction{countOnly: true})
}
