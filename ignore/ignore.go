// Package ignore implements the compiler's first pass: finding the
// top-level class and function definitions that opt out of
// transformation via a trailing "kappa:ignore" docstring sentinel.
//
// Grounded in compiler/transform/identify_ignore.py: the set it returns
// is consumed, read-only, by the later passes (flatten, autopause, cps).
package ignore

import (
	"strings"

	"github.com/NetSys/kappa/ast"
)

// Incantation is the sentinel docstring suffix that opts a definition
// out of transformation.
const Incantation = "kappa:ignore"

// Set records which top-level definitions are ignored, keyed by node
// identity (pointer identity, not value) so that later passes can test
// membership for the exact node instances produced by the parser.
type Set map[ast.Node]struct{}

// Has reports whether node is marked ignored.
func (s Set) Has(node ast.Node) bool {
	_, ok := s[node]
	return ok
}

// Find walks the top-level class and function definitions of mod and
// returns the set of those whose first body statement is a string
// literal (docstring) whose right-trimmed form ends with Incantation.
// Nested definitions are never scanned: the source never needs them
// ignored, since an ignored outer definition is already preserved
// byte-identically (see flatten.Flattener and cps.Transformer).
func Find(mod *ast.Module, incantation string) Set {
	if incantation == "" {
		incantation = Incantation
	}
	s := make(Set)
	for _, stmt := range mod.Body {
		switch def := stmt.(type) {
		case *ast.FunctionDef:
			if isIgnored(def.Body, incantation) {
				s[def] = struct{}{}
			}
		case *ast.ClassDef:
			if isIgnored(def.Body, incantation) {
				s[def] = struct{}{}
			}
		}
	}
	return s
}

func isIgnored(body []ast.Stmt, incantation string) bool {
	if len(body) == 0 {
		return false
	}
	exprStmt, ok := body[0].(*ast.ExprStmt)
	if !ok {
		return false
	}
	str, ok := exprStmt.Value.(*ast.Str)
	if !ok {
		return false
	}
	return strings.HasSuffix(strings.TrimRight(str.S, " \t\r\n"), incantation)
}
