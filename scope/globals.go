// Package scope gathers the names considered globally visible at
// module scope: the host language's builtins plus every top-level
// binding. Grounded in compiler/transform/gather_globals.py.
//
// The CPS transformer (package cps) uses this set, minus whatever a
// function shadows with parameters or local stores, to decide what a
// continuation must capture: only names that aren't already reachable
// through the module's global namespace need to travel with the
// continuation.
package scope

import "github.com/NetSys/kappa/ast"

// Builtins is the fixed list of names considered available without
// import in every Kappa program. It stands in for Python's
// `dir(builtins)` referenced by gather_global_names; the exact set an
// implementation ships is a deployment detail, not a compiler
// correctness concern, so this list covers the common names exercised
// by the example programs under compiler/testdata (print, range, len,
// and friends) plus the usual exception/type names a script might
// reference without importing them.
var Builtins = []string{
	"abs", "all", "any", "bool", "bytes", "callable", "chr", "dict",
	"divmod", "enumerate", "filter", "float", "format", "frozenset",
	"getattr", "hasattr", "hash", "hex", "id", "int", "isinstance",
	"issubclass", "iter", "len", "list", "map", "max", "min", "next",
	"object", "oct", "ord", "pow", "print", "property", "range",
	"repr", "reversed", "round", "set", "slice", "sorted", "staticmethod",
	"str", "sum", "super", "tuple", "type", "vars", "zip",
	"True", "False", "None", "NotImplemented", "Ellipsis",
	"Exception", "BaseException", "ValueError", "TypeError", "KeyError",
	"IndexError", "StopIteration", "RuntimeError", "NameError",
	"AttributeError", "NotImplementedError", "ArithmeticError",
}

// Gather returns the union of:
//  1. the builtin names (see Builtins), and
//  2. the names introduced at module scope by class/function
//     definitions, imports, and top-level assignments.
//
// Nested assignments (inside a function or class body) are not
// descended into -- only the final bound name at each top-level
// statement is considered, exactly as gather_global_names does by
// calling find_variables_by_usage(stmt)[ast.Store] on whole top-level
// statements other than class/function defs and imports.
func Gather(mod *ast.Module, extraBuiltins ...string) ast.NameSet {
	names := ast.NewNameSet(Builtins...)
	for _, b := range extraBuiltins {
		names.Add(b)
	}

	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			names.Add(s.Name)
		case *ast.ClassDef:
			names.Add(s.Name)
		case *ast.Import:
			for _, a := range s.Names {
				names.Add(a.BoundName())
			}
		case *ast.ImportFrom:
			for _, a := range s.Names {
				names.Add(a.BoundName())
			}
		default:
			vars := ast.VarsByUsage(stmt)
			for n := range vars[ast.Store] {
				names.Add(n)
			}
		}
	}

	return names
}
