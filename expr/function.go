package expr

import "github.com/tenzir-community/tenzirgo/tsql"

// ScalarFunction is a named, pure function over already-evaluated
// arguments, invoked from a KindCall node (spec §3.5 "function calls").
type ScalarFunction func(args []tsql.Data) (tsql.Data, error)

var scalarFunctions = map[string]ScalarFunction{}

// RegisterFunction adds name to the scalar-function registry used by the
// evaluator. Built-ins live in expr/function and register themselves from
// init(); callers that need them import expr/function for its side
// effects.
func RegisterFunction(name string, fn ScalarFunction) {
	scalarFunctions[name] = fn
}

func lookupFunction(name string) (ScalarFunction, bool) {
	fn, ok := scalarFunctions[name]
	return fn, ok
}
