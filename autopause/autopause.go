// Package autopause implements the optional pass that inserts a call to
// a policy-controlled rt.maybe_pause before every call site, so that a
// program which never calls rt.pause() explicitly still gets
// opportunistic pause points. Grounded in compiler/transform/auto_pause.py.
//
// It must run after flatten (so every call is already the sole RHS of a
// simple assignment) and before cps (so the synthesized maybe_pause
// call-assignments themselves become pause opportunities in the next pass).
package autopause

import (
	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/ignore"
)

// tempName is the throwaway temporary bound to rt.maybe_pause and then
// invoked; it does not need to be fresh relative to the flattener's
// __x_N counter because it's immediately overwritten on the next call
// site and never read.
const tempName = "__maybe_pause__"

// Module inserts auto-pause call pairs into every flattened call
// assignment in mod, except inside definitions marked ignored.
func Module(mod *ast.Module, ignored ignore.Set) *ast.Module {
	return &ast.Module{Body: stmtList(mod.Body, ignored)}
}

func stmtList(stmts []ast.Stmt, ignored ignore.Set) []ast.Stmt {
	var out []ast.Stmt
	for _, s := range stmts {
		out = append(out, stmt(s, ignored)...)
	}
	return out
}

func stmt(s ast.Stmt, ignored ignore.Set) []ast.Stmt {
	if ignored.Has(s) {
		return []ast.Stmt{s}
	}

	switch n := s.(type) {
	case *ast.Assign:
		if _, ok := n.Value.(*ast.Call); !ok {
			return []ast.Stmt{n}
		}
		return []ast.Stmt{
			ast.AssignTo(tempName, ast.AttrChain("rt", "maybe_pause")),
			ast.AssignTo(tempName, ast.CallOf(ast.LoadName(tempName))),
			n,
		}
	case *ast.If:
		return []ast.Stmt{&ast.If{Test: n.Test, Body: stmtList(n.Body, ignored), Orelse: stmtList(n.Orelse, ignored)}}
	case *ast.While:
		return []ast.Stmt{&ast.While{Test: n.Test, Body: stmtList(n.Body, ignored), Orelse: n.Orelse}}
	case *ast.For:
		return []ast.Stmt{&ast.For{Target: n.Target, Iter: n.Iter, Body: stmtList(n.Body, ignored), Orelse: n.Orelse}}
	case *ast.FunctionDef:
		return []ast.Stmt{&ast.FunctionDef{Name: n.Name, Args: n.Args, Body: stmtList(n.Body, ignored), Decorators: n.Decorators}}
	case *ast.ClassDef:
		return []ast.Stmt{&ast.ClassDef{Name: n.Name, Bases: n.Bases, Keywords: n.Keywords, Body: stmtList(n.Body, ignored), Decorators: n.Decorators}}
	default:
		return []ast.Stmt{n}
	}
}
