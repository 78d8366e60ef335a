package builtin

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Assignment is one `field = expr` (or bare `field`, an implicit
// self-reference) of a put/extend invocation.
type Assignment struct {
	Field string
	Value *expr.Expr // nil means an implicit reference to Field itself
}

// putExtendOperator implements both `put` and `extend`, grounded on
// put_extend.cpp's shared put_extend_operator<Mode> template: `put`
// drops every existing field before appending the assignments, `extend`
// keeps every existing field. Both treat a field-name collision the same
// way — resolved Open Question #1 (spec.md §9): ignore the colliding
// assignment and emit a warning, rather than erroring the pipeline or
// silently overwriting.
type putExtendOperator struct {
	op.DefaultOptimize
	name        string
	keepExisting bool
	assignments []Assignment
}

// Put constructs a `put` operator: the output schema is exactly the given
// assignments, in order — every original field is dropped.
func Put(assignments ...Assignment) op.Operator {
	return &putExtendOperator{name: "put", keepExisting: false, assignments: assignments}
}

// Extend constructs an `extend` operator: the output schema is every
// original field, followed by the given assignments (an assignment whose
// name collides with an existing field is skipped; among assignments that
// share a name, only the last-listed is kept).
func Extend(assignments ...Assignment) op.Operator {
	return &putExtendOperator{name: "extend", keepExisting: true, assignments: assignments}
}

func (p *putExtendOperator) Name() string               { return p.name }
func (p *putExtendOperator) InputType() op.ElementType  { return op.Events }
func (p *putExtendOperator) OutputType() op.ElementType { return op.Events }
func (p *putExtendOperator) Location() op.Location      { return op.Anywhere }
func (p *putExtendOperator) Internal() bool             { return false }

func (p *putExtendOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		y, err := input.Next(ctx)
		if err != nil || y.Kind != op.Productive {
			return y, err
		}
		out, err := p.apply(y.Element.Events, ctrl.Diagnostics())
		if err != nil {
			return op.Yield{}, errors.Wrap(err, p.name)
		}
		return op.ProductiveEvents(out), nil
	}), nil
}

func (p *putExtendOperator) apply(slice *table.Slice, diags diag.Sink) (*table.Slice, error) {
	schema := slice.Schema()

	seen := make(map[string]bool)
	var fields []tsql.Field
	var columns []*table.Column
	if p.keepExisting {
		for _, leaf := range schema.Leaves() {
			seen[leaf.Path] = true
			fields = append(fields, leaf.Field)
			columns = append(columns, slice.Columns()[leaf.LeafIndex])
		}
	}

	// Processed in reverse so that, among colliding assignments, the
	// last-listed one wins and earlier ones are dropped with a warning —
	// matching put_extend.cpp's reverse-iteration duplicate tracking.
	var newFields []tsql.Field
	var newColumns []*table.Column
	for i := len(p.assignments) - 1; i >= 0; i-- {
		a := p.assignments[i]
		if seen[a.Field] {
			if diags != nil {
				diags.Emit(diag.Warningf("%s: ignoring duplicate or conflicting assignment for field %q", p.name, a.Field).Done())
			}
			continue
		}
		seen[a.Field] = true
		value := a.Value
		if value == nil {
			value = expr.NewField(a.Field)
		}
		tailored := expr.Tailor(value, schema)
		series := expr.Eval(tailored, slice, diags)
		col, fieldType := materializeSeries(series, slice.Rows())
		newFields = append(newFields, tsql.Field{Name: a.Field, Type: fieldType})
		newColumns = append(newColumns, col)
	}
	// Undo the reverse processing to restore assignment order.
	for i, j := 0, len(newFields)-1; i < j; i, j = i+1, j-1 {
		newFields[i], newFields[j] = newFields[j], newFields[i]
		newColumns[i], newColumns[j] = newColumns[j], newColumns[i]
	}
	fields = append(fields, newFields...)
	columns = append(columns, newColumns...)

	rec, err := tsql.NewRecord(fields)
	if err != nil {
		return nil, err
	}
	if schema.IsNamed() {
		rec = rec.Named(schema.Name())
	}
	importTime, hasImportTime := slice.ImportTime()
	if hasImportTime {
		return table.New(rec, columns, &importTime)
	}
	return table.New(rec, columns, nil)
}

// materializeSeries collapses a (possibly multi-typed) evaluation result
// into one column of a single type, per spec §4.C's note that a
// multi-series result whose runs differ in type still has to land in one
// physical column; mismatched runs become null under the column's first
// observed type, reported as a warning at the call site (expr.Eval already
// emits it).
func materializeSeries(series []expr.Series, rows int) (*table.Column, tsql.Type) {
	if len(series) == 0 {
		t := tsql.String
		return table.NewColumn(t, rows), t
	}
	fieldType := series[0].Type
	col := table.NewColumn(fieldType, rows)
	row := 0
	for _, s := range series {
		for _, v := range s.Data {
			if row >= rows {
				break
			}
			if s.Type.Kind() == fieldType.Kind() {
				col.Set(row, v)
			}
			row++
		}
	}
	return col, fieldType
}
