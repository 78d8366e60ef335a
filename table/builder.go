package table

import (
	"time"

	"github.com/tenzir-community/tenzirgo/tsql"
)

// Builder incrementally constructs a Slice row by row. It mirrors the
// teacher's row-at-a-time `Insert` convention (seen throughout
// mem/table_test.go) generalized to columnar storage: rows are buffered as
// tsql.Data and materialized into typed Columns on Build.
type Builder struct {
	schema tsql.Type
	leaves []tsql.Leaf
	rows   [][]tsql.Data
}

// NewBuilder creates a Builder for the given (named record) schema.
func NewBuilder(schema tsql.Type) *Builder {
	return &Builder{schema: schema, leaves: schema.Leaves()}
}

// AddRow appends one row, given as one tsql.Data per leaf field in leaf
// order. Row shape is not validated: on Build, leaves a row gives no value
// for stay null and values beyond the leaf count are ignored.
func (b *Builder) AddRow(values ...tsql.Data) {
	b.rows = append(b.rows, values)
}

// Len returns the number of rows buffered so far.
func (b *Builder) Len() int { return len(b.rows) }

// Build materializes the buffered rows into an immutable Slice.
func (b *Builder) Build(importTime *time.Time) (*Slice, error) {
	cols := make([]*Column, len(b.leaves))
	for i, leaf := range b.leaves {
		cols[i] = NewColumn(leaf.Field.Type, len(b.rows))
	}
	for r, row := range b.rows {
		for i := range b.leaves {
			if i < len(row) {
				cols[i].Set(r, row[i])
			}
		}
	}
	return New(b.schema, cols, importTime)
}
