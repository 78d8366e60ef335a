package expr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tenzir-community/tenzirgo/diag"
	"github.com/tenzir-community/tenzirgo/table"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Series is one (type, column) pair of a multi-series result (spec §4.C
// GLOSSARY "Multi-series"). Eval returns a sequence of Series whose
// lengths sum to the input slice's row count: most expressions yield
// exactly one Series spanning every row; an expression whose per-row
// result type varies (e.g. a coercion fallback that only applies to some
// rows) yields one Series per maximal run of same-typed rows, in row
// order.
type Series struct {
	Type tsql.Type
	Data []tsql.Data // len(Data) rows of this run
}

// Eval evaluates e over every row of s, producing a multi-series and
// routing warnings to diags. Eval never panics or returns a Go error for a
// row-level type mismatch: per spec §4.C "the evaluator never throws",
// mismatches become a warning diagnostic plus a null result for the
// offending rows.
func Eval(e *Expr, s *table.Slice, diags diag.Sink) []Series {
	divZeroWarned := false
	out := make([]tsql.Data, s.Rows())
	for row := 0; row < s.Rows(); row++ {
		out[row] = evalRow(e, s, row, diags, &divZeroWarned)
	}
	return packRuns(out)
}

// EvalMask evaluates a boolean-valued e over s and returns the selection
// mask (spec §4.C "a boolean selection mask, for filtering"). A non-bool
// or null result at a row selects false.
func EvalMask(e *Expr, s *table.Slice, diags diag.Sink) table.Mask {
	mask := make(table.Mask, s.Rows())
	divZeroWarned := false
	for row := 0; row < s.Rows(); row++ {
		v := evalRow(e, s, row, diags, &divZeroWarned)
		if b, ok := v.Bool(); ok {
			mask[row] = b
		}
	}
	return mask
}

func packRuns(data []tsql.Data) []Series {
	if len(data) == 0 {
		return nil
	}
	var out []Series
	start := 0
	curType := inferredType(data[0])
	for i := 1; i <= len(data); i++ {
		if i == len(data) || !inferredType(data[i]).Congruent(curType) {
			out = append(out, Series{Type: curType, Data: append([]tsql.Data(nil), data[start:i]...)})
			if i < len(data) {
				start = i
				curType = inferredType(data[i])
			}
		}
	}
	return out
}

func inferredType(d tsql.Data) tsql.Type {
	switch d.Kind() {
	case tsql.KindBool:
		return tsql.Bool
	case tsql.KindInt64:
		return tsql.Int64
	case tsql.KindUint64:
		return tsql.Uint64
	case tsql.KindDouble:
		return tsql.Double
	case tsql.KindDuration:
		return tsql.Duration
	case tsql.KindTime:
		return tsql.Time
	case tsql.KindString:
		return tsql.String
	case tsql.KindBlob:
		return tsql.Blob
	case tsql.KindIP:
		return tsql.IP
	case tsql.KindSubnet:
		return tsql.Subnet
	default:
		return tsql.Null
	}
}

func evalRow(e *Expr, s *table.Slice, row int, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	switch e.Kind {
	case KindLiteral:
		return e.Literal
	case KindField:
		if !e.HasIndex {
			emit(diags, diag.Warningf("unbound field extractor %q (tailor before eval)", e.FieldPath))
			return tsql.NullData
		}
		return s.At(row, e.LeafIndex).Materialize()
	case KindMeta:
		return evalMeta(e.Meta, s, row)
	case KindUnaryNeg:
		return evalNeg(evalRow(e.Operand, s, row, diags, divZeroWarned), diags)
	case KindUnaryNot:
		v := evalRow(e.Operand, s, row, diags, divZeroWarned)
		if v.IsNull() {
			return tsql.NullData
		}
		b, ok := v.Bool()
		if !ok {
			emit(diags, diag.Warningf("not: operand is not bool"))
			return tsql.NullData
		}
		return tsql.NewBool(!b)
	case KindBinary:
		l := evalRow(e.Left, s, row, diags, divZeroWarned)
		r := evalRow(e.Right, s, row, diags, divZeroWarned)
		return evalBinary(e, l, r, diags, divZeroWarned)
	case KindLogical:
		return evalLogical(e, s, row, diags, divZeroWarned)
	case KindCall:
		return evalCall(e, s, row, diags, divZeroWarned)
	default:
		return tsql.NullData
	}
}

func emit(diags diag.Sink, b *diag.Builder) {
	if diags == nil {
		return
	}
	diags.Emit(b.Done())
}

func evalMeta(m MetaExtractor, s *table.Slice, row int) tsql.Data {
	switch m {
	case MetaSchema:
		return tsql.NewString(s.Schema().Name())
	case MetaSchemaID:
		return tsql.NewUint64(tsqlFingerprint(s))
	case MetaImportTime:
		if t, ok := s.ImportTime(); ok {
			return tsql.NewTime(t)
		}
		return tsql.NullData
	case MetaInternal:
		v, _ := s.Schema().Attribute("internal")
		return tsql.NewBool(v == "true")
	default:
		return tsql.NullData
	}
}

// tsqlFingerprint avoids a direct import cycle concern (tsql.Fingerprint
// lives in the tsql package already imported here).
func tsqlFingerprint(s *table.Slice) uint64 { return tsql.Fingerprint(s.Schema()) }

func evalNeg(v tsql.Data, diags diag.Sink) tsql.Data {
	if v.IsNull() {
		return tsql.NullData
	}
	if i, ok := v.Int64(); ok {
		return tsql.NewInt64(-i)
	}
	if d, ok := v.Double(); ok {
		return tsql.NewDouble(-d)
	}
	if dur, ok := v.Duration(); ok {
		return tsql.NewDuration(-dur)
	}
	emit(diags, diag.Warningf("unary -: incompatible operand type"))
	return tsql.NullData
}

func evalLogical(e *Expr, s *table.Slice, row int, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	// three-valued logic: null behaves as "unknown".
	sawNull := false
	for _, o := range e.Operands {
		v := evalRow(o, s, row, diags, divZeroWarned)
		b, ok := v.Bool()
		if v.IsNull() || !ok {
			sawNull = true
			continue
		}
		if e.LogOp == OpAnd && !b {
			return tsql.NewBool(false)
		}
		if e.LogOp == OpOr && b {
			return tsql.NewBool(true)
		}
	}
	if sawNull {
		return tsql.NullData
	}
	return tsql.NewBool(e.LogOp == OpAnd)
}

func evalBinary(e *Expr, l, r tsql.Data, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	switch e.BinOp {
	case OpEq:
		return compareEq(l, r, true, diags)
	case OpNe:
		return compareEq(l, r, false, diags)
	case OpLt, OpLe, OpGt, OpGe:
		return compareOrder(e.BinOp, l, r, diags)
	case OpIn, OpNotIn:
		return evalIn(e.BinOp, l, r, diags)
	case OpMatch, OpNotMatch:
		return evalMatch(e, l, r, diags)
	default:
		return arithmeticFallback(e, l, r, diags, divZeroWarned)
	}
}

func compareEq(l, r tsql.Data, wantEqual bool, diags diag.Sink) tsql.Data {
	if l.IsNull() || r.IsNull() {
		return tsql.NullData
	}
	ln, rn, ok := promoteNumeric(l, r, diags)
	if ok {
		eq := ln == rn
		return tsql.NewBool(eq == wantEqual)
	}
	eq := tsql.Equal(l, r)
	return tsql.NewBool(eq == wantEqual)
}

func compareOrder(op BinaryOp, l, r tsql.Data, diags diag.Sink) tsql.Data {
	if l.IsNull() || r.IsNull() {
		return tsql.NullData
	}
	if ln, rn, ok := promoteNumeric(l, r, diags); ok {
		switch op {
		case OpLt:
			return tsql.NewBool(ln < rn)
		case OpLe:
			return tsql.NewBool(ln <= rn)
		case OpGt:
			return tsql.NewBool(ln > rn)
		case OpGe:
			return tsql.NewBool(ln >= rn)
		}
	}
	if ls, ok1 := l.String(); ok1 {
		if rs, ok2 := r.String(); ok2 {
			switch op {
			case OpLt:
				return tsql.NewBool(ls < rs)
			case OpLe:
				return tsql.NewBool(ls <= rs)
			case OpGt:
				return tsql.NewBool(ls > rs)
			case OpGe:
				return tsql.NewBool(ls >= rs)
			}
		}
	}
	emit(diags, diag.Warningf("comparison between incompatible types"))
	return tsql.NullData
}

// promoteNumeric implements spec §4.C's numeric promotion rule:
// "Comparisons across distinct numeric kinds promote to double if either
// side is double, else widen signed/unsigned to a common signed domain,
// warning if the value does not fit."
func promoteNumeric(l, r tsql.Data, diags diag.Sink) (float64, float64, bool) {
	lf, lok := numericValue(l)
	rf, rok := numericValue(r)
	if !lok || !rok {
		return 0, 0, false
	}
	_, lIsInt := l.Int64()
	_, rIsInt := r.Int64()
	lu, lIsUint := l.Uint64()
	ru, rIsUint := r.Uint64()
	if (lIsUint && rIsInt && lu > 1<<63-1) || (rIsUint && lIsInt && ru > 1<<63-1) {
		emit(diags, diag.Warningf("uint64 value does not fit in signed comparison domain"))
	}
	return lf, rf, true
}

func numericValue(d tsql.Data) (float64, bool) {
	if v, ok := d.Int64(); ok {
		return float64(v), true
	}
	if v, ok := d.Uint64(); ok {
		return float64(v), true
	}
	if v, ok := d.Double(); ok {
		return v, true
	}
	return 0, false
}

func evalIn(op BinaryOp, l, r tsql.Data, diags diag.Sink) tsql.Data {
	if l.IsNull() || r.IsNull() {
		return tsql.NullData
	}
	found := false
	switch {
	case isStringLike(l) && isStringLike(r):
		ls, _ := l.String()
		rs, _ := r.String()
		found = strings.Contains(rs, ls)
	case l.Kind() == tsql.KindIP && r.Kind() == tsql.KindSubnet:
		addr, _ := l.IP()
		net, prefix, _ := r.Subnet()
		found = tsql.SubnetContains(net, prefix, addr)
	case r.Kind() == tsql.KindList:
		items, _ := r.List()
		for _, it := range items {
			if tsql.Equal(it, l) {
				found = true
				break
			}
		}
	case r.Kind() == tsql.KindMap:
		kvs, _ := r.Map()
		for _, kv := range kvs {
			if tsql.Equal(kv.Key, l) {
				found = true
				break
			}
		}
	default:
		emit(diags, diag.Warningf("in: unsupported operand types"))
		return tsql.NullData
	}
	if op == OpNotIn {
		found = !found
	}
	return tsql.NewBool(found)
}

func isStringLike(d tsql.Data) bool {
	_, ok := d.String()
	return ok
}

func evalMatch(e *Expr, l, r tsql.Data, diags diag.Sink) tsql.Data {
	if l.IsNull() {
		return tsql.NullData
	}
	s, ok := l.String()
	if !ok {
		emit(diags, diag.Warningf("%s: left-hand side is not a string", e.BinOp))
		return tsql.NullData
	}
	pattern, ok := r.String()
	if !ok {
		emit(diags, diag.Warningf("%s: right-hand side is not a pattern", e.BinOp))
		return tsql.NullData
	}
	re := e.compiledRegex
	if re == nil || re.String() != pattern {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			emit(diags, diag.Warningf("%s: invalid regex %q: %s", e.BinOp, pattern, err))
			return tsql.NullData
		}
		e.compiledRegex = re
	}
	matched := re.MatchString(s)
	if e.BinOp == OpNotMatch {
		matched = !matched
	}
	return tsql.NewBool(matched)
}

// arithmeticFallback handles a binary operator that is not a comparison,
// membership or match operator: it warns "unsupported binary operator"
// and yields null. Arithmetic (+, -, *, /, %) is not a binary operator
// here; it arrives as a call and is evaluated by evalArith via evalCall.
func arithmeticFallback(e *Expr, l, r tsql.Data, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	emit(diags, diag.Warningf("unsupported binary operator %s", e.BinOp))
	return tsql.NullData
}

func evalCall(e *Expr, s *table.Slice, row int, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	args := make([]tsql.Data, len(e.Args))
	for i, a := range e.Args {
		args[i] = evalRow(a.Expr, s, row, diags, divZeroWarned)
	}
	switch e.FuncName {
	case "+", "-", "*", "/", "%":
		if len(args) != 2 {
			emit(diags, diag.Warningf("%s: expects exactly 2 arguments", e.FuncName))
			return tsql.NullData
		}
		return evalArith(e.FuncName, args[0], args[1], diags, divZeroWarned)
	default:
		fn, ok := lookupFunction(e.FuncName)
		if !ok {
			emit(diags, diag.Warningf("unknown function %q", e.FuncName))
			return tsql.NullData
		}
		out, err := fn(args)
		if err != nil {
			emit(diags, diag.Warningf("%s: %s", e.FuncName, err))
			return tsql.NullData
		}
		return out
	}
}

func evalArith(op string, l, r tsql.Data, diags diag.Sink, divZeroWarned *bool) tsql.Data {
	if l.IsNull() || r.IsNull() {
		return tsql.NullData
	}
	lf, lok := numericValue(l)
	rf, rok := numericValue(r)
	if !lok || !rok {
		emit(diags, diag.Warningf("%s: incompatible operand types", op))
		return tsql.NullData
	}
	_, lInt := l.Int64()
	_, rInt := r.Int64()
	useInt := lInt && rInt
	switch op {
	case "+":
		if useInt {
			li, _ := l.Int64()
			ri, _ := r.Int64()
			return tsql.NewInt64(li + ri)
		}
		return tsql.NewDouble(lf + rf)
	case "-":
		if useInt {
			li, _ := l.Int64()
			ri, _ := r.Int64()
			return tsql.NewInt64(li - ri)
		}
		return tsql.NewDouble(lf - rf)
	case "*":
		if useInt {
			li, _ := l.Int64()
			ri, _ := r.Int64()
			return tsql.NewInt64(li * ri)
		}
		return tsql.NewDouble(lf * rf)
	case "/":
		if rf == 0 {
			if !*divZeroWarned {
				emit(diags, diag.Warningf("division by zero"))
				*divZeroWarned = true
			}
			return tsql.NullData
		}
		return tsql.NewDouble(lf / rf)
	case "%":
		if rf == 0 {
			if !*divZeroWarned {
				emit(diags, diag.Warningf("division by zero"))
				*divZeroWarned = true
			}
			return tsql.NullData
		}
		if useInt {
			li, _ := l.Int64()
			ri, _ := r.Int64()
			return tsql.NewInt64(li % ri)
		}
		return tsql.NewDouble(float64(int64(lf) % int64(rf)))
	}
	return tsql.NullData
}

// formatFloat prints f in its shortest round-tripping form; nothing in the
// module calls it at present.
func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
