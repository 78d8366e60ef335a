package function

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/agg"
	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// frequencyKind selects what a frequencyInstance reports, mirroring the
// tenzir::plugins::mode_value_counts_entropy::kind enum (mode, value_counts,
// entropy) plus two supplemented variants (top, rare) that reuse the same
// counts_ frequency table but surface the N most/least frequent values
// instead of a single statistic.
type frequencyKind uint8

const (
	kindMode frequencyKind = iota
	kindValueCounts
	kindEntropy
	kindTop
	kindRare
)

func (k frequencyKind) name() string {
	switch k {
	case kindMode:
		return "mode"
	case kindValueCounts:
		return "value_counts"
	case kindEntropy:
		return "entropy"
	case kindTop:
		return "top"
	case kindRare:
		return "rare"
	default:
		return "unknown"
	}
}

// frequencyFunction constructs instances for one of the five kinds above;
// `normalize` (entropy) and `limit` (top/rare) are plain fields fixed when
// the function is registered in init below (entropy unnormalized, top/rare
// limited to 10).
type frequencyFunction struct {
	kind      frequencyKind
	normalize bool
	limit     int
}

func (f frequencyFunction) Name() string { return f.kind.name() }

func (f frequencyFunction) New(argTypes []tsql.Type) (agg.Instance, error) {
	if len(argTypes) != 1 {
		return nil, errors.Errorf("%s() expects exactly one argument", f.Name())
	}
	limit := f.limit
	if limit <= 0 {
		limit = 10
	}
	return &frequencyInstance{
		kind: f.kind, normalize: f.normalize, limit: limit,
		counts: map[string]*countedValue{},
	}, nil
}

type countedValue struct {
	Value tsql.Data
	Count int64
}

type frequencyInstance struct {
	kind      frequencyKind
	normalize bool
	limit     int
	counts    map[string]*countedValue
	order     []string // insertion order, for deterministic tie-breaking
}

func (f *frequencyInstance) Update(batch *table.Slice, diags diag.Sink) error {
	col := batch.Columns()[0]
	for i := 0; i < col.Len(); i++ {
		v := col.At(i).Materialize()
		if v.IsNull() {
			continue
		}
		key, err := gobKey(v)
		if err != nil {
			continue
		}
		if c, ok := f.counts[key]; ok {
			c.Count++
			continue
		}
		f.counts[key] = &countedValue{Value: v, Count: 1}
		f.order = append(f.order, key)
	}
	return nil
}

func (f *frequencyInstance) Get() tsql.Data {
	switch f.kind {
	case kindMode:
		return f.mode()
	case kindValueCounts:
		return f.valueCounts(len(f.order))
	case kindEntropy:
		return f.entropy()
	case kindTop:
		return f.valueCounts(f.limit)
	case kindRare:
		return f.rare()
	default:
		return tsql.NullData
	}
}

// mode returns the value with the highest count; the original's
// std::ranges::max_element picks the first maximum it encounters, so on
// ties we keep first-seen-wins by scanning in insertion order.
func (f *frequencyInstance) mode() tsql.Data {
	if len(f.order) == 0 {
		return tsql.NullData
	}
	best := f.counts[f.order[0]]
	for _, key := range f.order[1:] {
		c := f.counts[key]
		if c.Count > best.Count {
			best = c
		}
	}
	return best.Value
}

// valueCounts returns up to limit (value, count) pairs ordered by count
// descending; top(limit) is the same list truncated to its head.
func (f *frequencyInstance) valueCounts(limit int) tsql.Data {
	sorted := f.sortedByCount()
	if f.kind == kindTop && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	rows := make([]tsql.Data, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, tsql.NewRecord([]tsql.FieldValue{
			{Name: "value", Value: c.Value},
			{Name: "count", Value: tsql.NewInt64(c.Count)},
		}))
	}
	return tsql.NewList(rows)
}

// rare is top's mirror: the limit least-frequent values.
func (f *frequencyInstance) rare() tsql.Data {
	sorted := f.sortedByCount()
	n := len(sorted)
	start := n - f.limit
	if start < 0 {
		start = 0
	}
	least := sorted[start:]
	// Reverse so the rarest value leads, symmetric with top's
	// most-frequent-leads ordering.
	rows := make([]tsql.Data, 0, len(least))
	for i := len(least) - 1; i >= 0; i-- {
		c := least[i]
		rows = append(rows, tsql.NewRecord([]tsql.FieldValue{
			{Name: "value", Value: c.Value},
			{Name: "count", Value: tsql.NewInt64(c.Count)},
		}))
	}
	return tsql.NewList(rows)
}

func (f *frequencyInstance) sortedByCount() []*countedValue {
	sorted := make([]*countedValue, 0, len(f.order))
	for _, key := range f.order {
		sorted = append(sorted, f.counts[key])
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	return sorted
}

// entropy computes the Shannon entropy of the observed frequency
// distribution, optionally normalised by log(distinct count), matching
// the original bit-for-bit: fewer than two distinct values yields 0.
func (f *frequencyInstance) entropy() tsql.Data {
	if len(f.counts) <= 1 {
		return tsql.NewDouble(0)
	}
	var total int64
	for _, c := range f.counts {
		total += c.Count
	}
	var h float64
	for _, c := range f.counts {
		p := float64(c.Count) / float64(total)
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	if f.normalize {
		h /= math.Log(float64(len(f.counts)))
	}
	return tsql.NewDouble(h)
}

func (f *frequencyInstance) Save() ([]byte, error) {
	var buf bytes.Buffer
	snapshot := make([]countedValue, 0, len(f.order))
	for _, key := range f.order {
		snapshot = append(snapshot, *f.counts[key])
	}
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *frequencyInstance) Restore(blob []byte, diags diag.Sink) {
	var snapshot []countedValue
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&snapshot); err != nil {
		if diags != nil {
			diags.Emit(diag.Warningf("%s: failed to restore saved state: %s", f.kind.name(), err).Done())
		}
		return
	}
	f.counts = map[string]*countedValue{}
	f.order = nil
	for _, cv := range snapshot {
		key, err := gobKey(cv.Value)
		if err != nil {
			continue
		}
		v := cv
		f.counts[key] = &v
		f.order = append(f.order, key)
	}
}

func (f *frequencyInstance) Reset() {
	f.counts = map[string]*countedValue{}
	f.order = nil
}

func (f *frequencyInstance) IsDeterministic() bool { return true }

func (f *frequencyInstance) Merge(other agg.Instance) error {
	o, ok := other.(*frequencyInstance)
	if !ok {
		return errors.Errorf("%s: cannot merge with a different aggregation instance type", f.kind.name())
	}
	for _, key := range o.order {
		oc := o.counts[key]
		if c, ok := f.counts[key]; ok {
			c.Count += oc.Count
			continue
		}
		cp := *oc
		f.counts[key] = &cp
		f.order = append(f.order, key)
	}
	return nil
}

func init() {
	agg.Register(frequencyFunction{kind: kindMode})
	agg.Register(frequencyFunction{kind: kindValueCounts})
	agg.Register(frequencyFunction{kind: kindEntropy})
	agg.Register(frequencyFunction{kind: kindTop, limit: 10})
	agg.Register(frequencyFunction{kind: kindRare, limit: 10})
}
