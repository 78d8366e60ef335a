package expr

import "github.com/tenzir-community/tenzirgo/tsql"

// Tailor produces a schema-specialised expression in which field
// extractors are bound to concrete leaf indices (spec §4.C). Predicates
// that cannot bind (spec's `no-such-field`) become the literal `false` at
// that schema, per spec §7's silent-by-design recovery for no-such-field.
func Tailor(e *Expr, schema tsql.Type) *Expr {
	switch e.Kind {
	case KindField:
		if e.HasIndex {
			return e // already tailored
		}
		field, idx, ok := schema.Resolve(e.FieldPath)
		if !ok {
			return falseExpr()
		}
		tailored := NewFieldIndex(e.FieldPath, idx)
		t := field.Type
		tailored.resolvedType = &t
		return tailored
	case KindUnaryNeg:
		return NewNeg(Tailor(e.Operand, schema))
	case KindUnaryNot:
		inner := Tailor(e.Operand, schema)
		if isFalseExpr(inner) {
			return trueExpr()
		}
		if isTrueExpr(inner) {
			return falseExpr()
		}
		return NewNot(inner)
	case KindBinary:
		left := Tailor(e.Left, schema)
		right := Tailor(e.Right, schema)
		if (isFalseExpr(left) && !isFalseExpr(e.Left)) || (isFalseExpr(right) && !isFalseExpr(e.Right)) {
			return falseExpr()
		}
		return NewBinary(e.BinOp, left, right)
	case KindLogical:
		operands := make([]*Expr, 0, len(e.Operands))
		for _, o := range e.Operands {
			t := Tailor(o, schema)
			if e.LogOp == OpAnd && isFalseExpr(t) {
				return falseExpr()
			}
			if e.LogOp == OpOr && isTrueExpr(t) {
				return trueExpr()
			}
			if e.LogOp == OpAnd && isTrueExpr(t) {
				continue // drop trivially-true conjuncts
			}
			if e.LogOp == OpOr && isFalseExpr(t) {
				continue // drop trivially-false disjuncts
			}
			operands = append(operands, t)
		}
		if len(operands) == 0 {
			if e.LogOp == OpAnd {
				return trueExpr()
			}
			return falseExpr()
		}
		if len(operands) == 1 {
			return operands[0]
		}
		return NewLogical(e.LogOp, operands...)
	case KindCall:
		args := make([]Arg, len(e.Args))
		for i, a := range e.Args {
			args[i] = Arg{Name: a.Name, Expr: Tailor(a.Expr, schema)}
		}
		return NewCall(e.FuncName, args...)
	default:
		return e
	}
}

func falseExpr() *Expr { return NewLiteral(tsql.NewBool(false)) }
func trueExpr() *Expr  { return NewLiteral(tsql.NewBool(true)) }

func isFalseExpr(e *Expr) bool {
	if e.Kind != KindLiteral {
		return false
	}
	b, ok := e.Literal.Bool()
	return ok && !b
}

func isTrueExpr(e *Expr) bool {
	if e.Kind != KindLiteral {
		return false
	}
	b, ok := e.Literal.Bool()
	return ok && b
}

// IsTriviallyFalse reports whether e is exactly the tailored-false
// literal, used by the partition evaluator's short-circuit (spec §4.H
// step 1 "If the result is trivially false, return the empty bitset
// immediately").
func IsTriviallyFalse(e *Expr) bool { return isFalseExpr(e) }
