package expr

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Normalize rewrites e into canonical form (spec §4.C): and/or are made
// n-ary and right-associative, double negations collapse, literals fold,
// and extractor paths are canonicalised (whitespace trimmed from the path
// and from each '.'-separated segment; case is kept). Normalize is
// idempotent (spec §8).
func Normalize(e *Expr) *Expr {
	switch e.Kind {
	case KindUnaryNeg:
		inner := Normalize(e.Operand)
		if inner.Kind == KindUnaryNeg {
			return inner.Operand // double negation collapses: -(-x) == x
		}
		if inner.Kind == KindLiteral {
			if neg, ok := negateLiteral(inner); ok {
				return neg
			}
		}
		return NewNeg(inner)
	case KindUnaryNot:
		inner := Normalize(e.Operand)
		if inner.Kind == KindUnaryNot {
			return inner.Operand // not (not x) == x
		}
		return NewNot(inner)
	case KindBinary:
		return NewBinary(e.BinOp, Normalize(e.Left), Normalize(e.Right))
	case KindLogical:
		var flat []*Expr
		for _, o := range e.Operands {
			n := Normalize(o)
			if n.Kind == KindLogical && n.LogOp == e.LogOp {
				flat = append(flat, n.Operands...) // n-ary flattening
			} else {
				flat = append(flat, n)
			}
		}
		if len(flat) == 1 {
			return flat[0]
		}
		return NewLogical(e.LogOp, flat...)
	case KindCall:
		args := make([]Arg, len(e.Args))
		for i, a := range e.Args {
			args[i] = Arg{Name: a.Name, Expr: Normalize(a.Expr)}
		}
		return NewCall(e.FuncName, args...)
	case KindField:
		return NewField(canonicalizePath(e.FieldPath))
	default:
		return e
	}
}

func canonicalizePath(path string) string {
	parts := strings.Split(strings.TrimSpace(path), ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ".")
}

func negateLiteral(e *Expr) (*Expr, bool) {
	if i, ok := e.Literal.Int64(); ok {
		return NewLiteral(tsql.NewInt64(-i)), true
	}
	if d, ok := e.Literal.Double(); ok {
		return NewLiteral(tsql.NewDouble(-d)), true
	}
	return nil, false
}

// Validate is a schema-independent static check of the expression tree.
// It rejects exactly two shapes: a ~ or !~ whose right-hand side is a
// literal that is not a string, and an and/or with no operands. Other
// operator/operand type clashes, including between two literals, are not
// detected here; at evaluation time they produce a warning and null.
func Validate(e *Expr) error {
	switch e.Kind {
	case KindBinary:
		if err := Validate(e.Left); err != nil {
			return err
		}
		if err := Validate(e.Right); err != nil {
			return err
		}
		if (e.BinOp == OpMatch || e.BinOp == OpNotMatch) && e.Right.Kind == KindLiteral {
			if _, ok := e.Right.Literal.String(); !ok {
				return errors.Errorf("%s requires a pattern/string right-hand side", e.BinOp)
			}
		}
	case KindLogical:
		if len(e.Operands) == 0 {
			return errors.New("logical expression must have at least one operand")
		}
		for _, o := range e.Operands {
			if err := Validate(o); err != nil {
				return err
			}
		}
	case KindUnaryNeg, KindUnaryNot:
		return Validate(e.Operand)
	case KindCall:
		for _, a := range e.Args {
			if err := Validate(a.Expr); err != nil {
				return err
			}
		}
	}
	return nil
}
