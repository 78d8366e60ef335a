package builtin

import (
	"context"

	"github.com/tenzir-community/tenzirgo/op"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// BuildInfo is the set of fields version.cpp's version_operator hardcodes
// from compile-time macros; here it is passed in explicitly so the
// operator itself stays free of build-system coupling.
type BuildInfo struct {
	Version string
	Tag     string
	Major   int64
	Minor   int64
	Patch   int64
	Features []string
}

// versionOperator is a trivial internal source emitting exactly one row of
// build metadata, grounded on version.cpp: no input, a single event, then
// Done.
type versionOperator struct {
	op.DefaultOptimize
	info BuildInfo
}

// Version constructs a `version` source operator.
func Version(info BuildInfo) op.Operator {
	return &versionOperator{info: info}
}

func (v *versionOperator) Name() string               { return "version" }
func (v *versionOperator) InputType() op.ElementType  { return op.Void }
func (v *versionOperator) OutputType() op.ElementType { return op.Events }
func (v *versionOperator) Location() op.Location      { return op.Anywhere }
func (v *versionOperator) Internal() bool             { return false }

func versionSchema() (tsql.Type, error) {
	return tsql.NewRecord([]tsql.Field{
		{Name: "version", Type: tsql.String},
		{Name: "tag", Type: tsql.String},
		{Name: "major", Type: tsql.Int64},
		{Name: "minor", Type: tsql.Int64},
		{Name: "patch", Type: tsql.Int64},
		{Name: "features", Type: tsql.NewList(tsql.String)},
	})
}

func (v *versionOperator) Instantiate(input op.Generator, ctrl op.Controller) (op.Generator, error) {
	emitted := false
	return op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		if emitted {
			return op.DoneYield(), nil
		}
		emitted = true
		schema, err := versionSchema()
		if err != nil {
			return op.Yield{}, err
		}
		schema = schema.Named("tenzir.version")
		b := table.NewBuilder(schema)
		features := make([]tsql.Data, len(v.info.Features))
		for i, f := range v.info.Features {
			features[i] = tsql.NewString(f)
		}
		b.AddRow(
			tsql.NewString(v.info.Version),
			tsql.NewString(v.info.Tag),
			tsql.NewInt64(v.info.Major),
			tsql.NewInt64(v.info.Minor),
			tsql.NewInt64(v.info.Patch),
			tsql.NewList(features),
		)
		slice, err := b.Build(nil)
		if err != nil {
			return op.Yield{}, err
		}
		return op.ProductiveEvents(slice), nil
	}), nil
}
