// Package expr implements the expression tree and vectorised evaluator of
// spec §3.5/§4.C: literals, field references, meta extractors, unary and
// binary operators, logical connectives, and function calls, evaluated
// over table.Slice batches into typed multi-series.
package expr

import (
	"fmt"
	"regexp"

	"github.com/tenzir-community/tenzirgo/tsql"
)

// Kind is the expression node constructor.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindField      // by dotted name or leaf index
	KindMeta       // #schema, #schema_id, #import_time, #internal
	KindUnaryNeg
	KindUnaryNot
	KindBinary
	KindLogical // and/or, n-ary
	KindCall
)

// BinaryOp is one of the binary comparison operators of spec §3.5.
type BinaryOp uint8

const (
	OpEq BinaryOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpNotIn
	OpMatch    // ~
	OpNotMatch // !~
)

func (o BinaryOp) String() string {
	return [...]string{"==", "!=", "<", "<=", ">", ">=", "in", "not in", "~", "!~"}[o]
}

// LogicalOp is `and` or `or`.
type LogicalOp uint8

const (
	OpAnd LogicalOp = iota
	OpOr
)

// MetaExtractor is one of the four meta extractors of spec §3.5.
type MetaExtractor uint8

const (
	MetaSchema MetaExtractor = iota
	MetaSchemaID
	MetaImportTime
	MetaInternal
)

func (m MetaExtractor) String() string {
	return [...]string{"#schema", "#schema_id", "#import_time", "#internal"}[m]
}

// Arg is one argument of a function call, positional (Name == "") or named.
type Arg struct {
	Name string
	Expr *Expr
}

// Expr is an expression tree node. The zero value is not a valid
// expression; construct with the New* helpers below.
type Expr struct {
	Kind Kind

	// KindLiteral
	Literal tsql.Data

	// KindField
	FieldPath  string
	LeafIndex  int // -1 until tailored
	HasIndex   bool

	// KindMeta
	Meta MetaExtractor

	// KindUnaryNeg / KindUnaryNot / operand of a function wrapper
	Operand *Expr

	// KindBinary
	BinOp BinaryOp
	Left  *Expr
	Right *Expr

	// regex cache for Match/NotMatch, populated lazily and memoized on
	// the node itself (spec §4.C "~ compiles the regex once per
	// expression and caches it within the eval session").
	compiledRegex *regexp.Regexp

	// KindLogical
	LogOp    LogicalOp
	Operands []*Expr

	// KindCall
	FuncName string
	Args     []Arg

	// resolvedType is set once Tailor has bound this node to a concrete
	// schema; nil before tailoring.
	resolvedType *tsql.Type
}

func NewLiteral(d tsql.Data) *Expr { return &Expr{Kind: KindLiteral, Literal: d} }

func NewField(path string) *Expr { return &Expr{Kind: KindField, FieldPath: path, LeafIndex: -1} }

func NewFieldIndex(path string, leafIndex int) *Expr {
	return &Expr{Kind: KindField, FieldPath: path, LeafIndex: leafIndex, HasIndex: true}
}

func NewMeta(m MetaExtractor) *Expr { return &Expr{Kind: KindMeta, Meta: m} }

func NewNeg(operand *Expr) *Expr { return &Expr{Kind: KindUnaryNeg, Operand: operand} }

func NewNot(operand *Expr) *Expr { return &Expr{Kind: KindUnaryNot, Operand: operand} }

func NewBinary(op BinaryOp, left, right *Expr) *Expr {
	return &Expr{Kind: KindBinary, BinOp: op, Left: left, Right: right}
}

func NewLogical(op LogicalOp, operands ...*Expr) *Expr {
	return &Expr{Kind: KindLogical, LogOp: op, Operands: operands}
}

func NewCall(name string, args ...Arg) *Expr {
	return &Expr{Kind: KindCall, FuncName: name, Args: args}
}

// Positional is a convenience constructor for an unnamed call argument.
func Positional(e *Expr) Arg { return Arg{Expr: e} }

// Named is a convenience constructor for a named call argument.
func Named(name string, e *Expr) Arg { return Arg{Name: name, Expr: e} }

func (e *Expr) String() string {
	switch e.Kind {
	case KindLiteral:
		return fmt.Sprintf("%v", e.Literal)
	case KindField:
		return e.FieldPath
	case KindMeta:
		return e.Meta.String()
	case KindUnaryNeg:
		return "-" + e.Operand.String()
	case KindUnaryNot:
		return "not " + e.Operand.String()
	case KindBinary:
		return fmt.Sprintf("(%s %s %s)", e.Left, e.BinOp, e.Right)
	case KindLogical:
		op := "and"
		if e.LogOp == OpOr {
			op = "or"
		}
		s := "("
		for i, o := range e.Operands {
			if i > 0 {
				s += " " + op + " "
			}
			s += o.String()
		}
		return s + ")"
	case KindCall:
		s := e.FuncName + "("
		for i, a := range e.Args {
			if i > 0 {
				s += ", "
			}
			if a.Name != "" {
				s += a.Name + "="
			}
			s += a.Expr.String()
		}
		return s + ")"
	default:
		return "<invalid>"
	}
}

// Children returns the direct subexpressions of e, for generic tree walks
// (normalisation, tailoring, dedup hashing).
func (e *Expr) Children() []*Expr {
	switch e.Kind {
	case KindUnaryNeg, KindUnaryNot:
		return []*Expr{e.Operand}
	case KindBinary:
		return []*Expr{e.Left, e.Right}
	case KindLogical:
		return e.Operands
	case KindCall:
		out := make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			out[i] = a.Expr
		}
		return out
	default:
		return nil
	}
}
