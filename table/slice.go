package table

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Slice is an immutable columnar batch (spec §3.3): a schema, a row count,
// one Column per leaf field, and an optional import time.
type Slice struct {
	schema     tsql.Type // always a named record type
	n          int
	columns    []*Column
	importTime *time.Time
}

// New constructs a Slice from a schema and one already-populated Column
// per leaf field, in leaf order. It returns an error if len(columns) does
// not match the schema's leaf count or if any column's length differs from
// the others (spec §3.3 invariant: "All columns have length n").
func New(schema tsql.Type, columns []*Column, importTime *time.Time) (*Slice, error) {
	leaves := schema.Leaves()
	if len(columns) != len(leaves) {
		return nil, errors.Errorf("schema has %d leaves but %d columns given", len(leaves), len(columns))
	}
	n := -1
	for i, c := range columns {
		if n == -1 {
			n = c.Len()
		} else if c.Len() != n {
			return nil, errors.Errorf("column %d has length %d, want %d", i, c.Len(), n)
		}
	}
	if n == -1 {
		n = 0
	}
	return &Slice{schema: schema, n: n, columns: columns, importTime: importTime}, nil
}

func (s *Slice) Schema() tsql.Type   { return s.schema }
func (s *Slice) Rows() int           { return s.n }
func (s *Slice) Columns() []*Column  { return s.columns }
func (s *Slice) ImportTime() (time.Time, bool) {
	if s.importTime == nil {
		return time.Time{}, false
	}
	return *s.importTime, true
}

// At returns the value of row, col as a data-view (spec §4.B).
func (s *Slice) At(row, col int) tsql.View {
	return s.columns[col].At(row)
}

// Subslice returns a view over rows [offset, offset+length) without
// copying any column (spec §3.3/§4.B).
func (s *Slice) Subslice(offset, length int) (*Slice, error) {
	if offset < 0 || length < 0 || offset+length > s.n {
		return nil, errors.Errorf("subslice [%d,%d) out of range [0,%d)", offset, offset+length, s.n)
	}
	cols := make([]*Column, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.slice(offset, length)
	}
	return &Slice{schema: s.schema, n: length, columns: cols, importTime: s.importTime}, nil
}

// ColumnTransform replaces the column at LeafIndex with zero or more
// (field, column) pairs, as consumed by TransformColumns.
type ColumnTransform struct {
	LeafIndex int
	Fn        func(field tsql.Field, col *Column) ([]TransformedColumn, error)
}

// TransformedColumn is one replacement column produced by a ColumnTransform.
type TransformedColumn struct {
	Field  tsql.Field
	Column *Column
}

// TransformColumns is the sole mutation primitive of spec §4.B: it takes a
// slice and an ordered list of (leaf_index, fn) transformations, sorted by
// LeafIndex, and returns a new slice. Each transformation sees the
// original field/column and returns replacement (field, column) pairs that
// substitute for that column in the output. Row count is preserved; the
// input Slice is never mutated.
func TransformColumns(s *Slice, transforms []ColumnTransform) (*Slice, error) {
	for i := 1; i < len(transforms); i++ {
		if transforms[i].LeafIndex < transforms[i-1].LeafIndex {
			return nil, errors.New("transform_columns: transforms must be sorted by leaf_index")
		}
	}
	leaves := s.schema.Leaves()
	byIndex := make(map[int]ColumnTransform, len(transforms))
	for _, t := range transforms {
		byIndex[t.LeafIndex] = t
	}

	var newFields []tsql.Field
	var newColumns []*Column
	for i, leaf := range leaves {
		if t, ok := byIndex[i]; ok {
			replacements, err := t.Fn(leaf.Field, s.columns[i])
			if err != nil {
				return nil, err
			}
			for _, r := range replacements {
				if r.Column.Len() != s.n {
					return nil, errors.Errorf("transform_columns: replacement column for %q has length %d, want %d", r.Field.Name, r.Column.Len(), s.n)
				}
				newFields = append(newFields, r.Field)
				newColumns = append(newColumns, r.Column)
			}
			continue
		}
		newFields = append(newFields, leaf.Field)
		newColumns = append(newColumns, s.columns[i])
	}

	newSchema, err := rebuildSchema(s.schema, newFields)
	if err != nil {
		return nil, err
	}
	return &Slice{schema: newSchema, n: s.n, columns: newColumns, importTime: s.importTime}, nil
}

// rebuildSchema constructs a flat record schema from the transformed leaf
// fields, preserving the original schema's name (structural operators like
// project/extend/drop produce a schema with a new *shape*, but keep the
// dataset's named-type identity where a naming layer above reassigns it).
func rebuildSchema(orig tsql.Type, fields []tsql.Field) (tsql.Type, error) {
	rec, err := tsql.NewRecord(fields)
	if err != nil {
		return tsql.Type{}, err
	}
	if orig.IsNamed() {
		rec = rec.Named(orig.Name())
	}
	return rec, nil
}

// Mask is a boolean selection mask, one entry per row of the slice it
// filters (spec §4.B `filter`, §8 property 4).
type Mask []bool

// Filter keeps only the rows where mask is true, returning nil if every
// row drops out (spec §4.B). It rejects a mask whose length does not match
// the slice's row count, per the "undefined otherwise" testable property.
func Filter(s *Slice, mask Mask) (*Slice, error) {
	if len(mask) != s.n {
		return nil, errors.Errorf("filter: mask length %d does not match slice row count %d", len(mask), s.n)
	}
	kept := 0
	for _, b := range mask {
		if b {
			kept++
		}
	}
	if kept == 0 {
		return nil, nil
	}
	if kept == s.n {
		return s, nil
	}
	newColumns := make([]*Column, len(s.columns))
	for ci, c := range s.columns {
		nc := NewColumn(c.Type, kept)
		j := 0
		for i, keep := range mask {
			if !keep {
				continue
			}
			nc.Null[j] = c.Null[i]
			copyCell(nc, c, j, i)
			j++
		}
		newColumns[ci] = nc
	}
	return &Slice{schema: s.schema, n: kept, columns: newColumns, importTime: s.importTime}, nil
}

// copyCell copies row src of c into row dst of nc, both already known to
// share a type (used by Filter, which allocates nc with NewColumn(c.Type, kept)).
func copyCell(nc, c *Column, dst, src int) {
	if c.Null[src] {
		return
	}
	switch c.Type.Kind() {
	case tsql.KindBool:
		nc.data.bools[dst] = c.data.bools[src]
	case tsql.KindInt64:
		nc.data.ints[dst] = c.data.ints[src]
	case tsql.KindUint64, tsql.KindEnum:
		nc.data.uints[dst] = c.data.uints[src]
	case tsql.KindDouble:
		nc.data.doubles[dst] = c.data.doubles[src]
	case tsql.KindDuration:
		nc.data.durations[dst] = c.data.durations[src]
	case tsql.KindTime:
		nc.data.times[dst] = c.data.times[src]
	case tsql.KindString, tsql.KindPattern:
		nc.data.strings[dst] = c.data.strings[src]
	case tsql.KindBlob:
		nc.data.blobs[dst] = c.data.blobs[src]
	case tsql.KindIP:
		nc.data.ips[dst] = c.data.ips[src]
	case tsql.KindSubnet:
		nc.data.subnets[dst] = c.data.subnets[src]
	case tsql.KindList:
		nc.data.lists[dst] = c.data.lists[src]
	case tsql.KindMap:
		nc.data.maps[dst] = c.data.maps[src]
	case tsql.KindRecord:
		nc.data.records[dst] = c.data.records[src]
	}
}
