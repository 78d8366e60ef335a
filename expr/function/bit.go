// Package function registers the built-in scalar functions consumed by
// expr's KindCall evaluation. Grounded on
// original_source/libtenzir/builtins/functions/bit.cpp.
package function

import (
	"github.com/pkg/errors"
	"github.com/tenzir-community/tenzirgo/expr"
	"github.com/tenzir-community/tenzirgo/tsql"
)

func init() {
	expr.RegisterFunction("bit_and", func(args []tsql.Data) (tsql.Data, error) {
		return bitwise(args, func(a, b int64) int64 { return a & b })
	})
	expr.RegisterFunction("bit_or", func(args []tsql.Data) (tsql.Data, error) {
		return bitwise(args, func(a, b int64) int64 { return a | b })
	})
	expr.RegisterFunction("bit_xor", func(args []tsql.Data) (tsql.Data, error) {
		return bitwise(args, func(a, b int64) int64 { return a ^ b })
	})
	expr.RegisterFunction("bit_not", func(args []tsql.Data) (tsql.Data, error) {
		if len(args) != 1 {
			return tsql.Data{}, errors.New("bit_not expects exactly 1 argument")
		}
		if args[0].IsNull() {
			return tsql.NullData, nil
		}
		i, ok := args[0].Int64()
		if !ok {
			return tsql.Data{}, errors.New("bit_not expects an int64 argument")
		}
		return tsql.NewInt64(^i), nil
	})
}

func bitwise(args []tsql.Data, f func(a, b int64) int64) (tsql.Data, error) {
	if len(args) != 2 {
		return tsql.Data{}, errors.New("expects exactly 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return tsql.NullData, nil
	}
	a, ok1 := args[0].Int64()
	b, ok2 := args[1].Int64()
	if !ok1 || !ok2 {
		return tsql.Data{}, errors.New("expects int64 arguments")
	}
	return tsql.NewInt64(f(a, b)), nil
}
