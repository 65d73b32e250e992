// Package liveness implements the backward dataflow pass that
// determines, at every program point during a CPS traversal, which
// local names must be preserved across a possible pause. Grounded in
// compiler/transform/liveness.py.
//
// A Tracker is walked backward over statements: prepending a statement
// updates the live-variable set to reflect what must be live *before*
// that statement given what's known to be live *after* it. The CPS
// transformer (package cps) keeps one Tracker in sync with its
// subsequent-statements tail and reads its Live() set whenever it needs
// to decide what a continuation must capture.
//
// The tracker does not iterate to a fixpoint on loops (see
// compiler/transform/liveness.py's visit_While/visit_For, which visit
// the body exactly once): a name used only starting from the second
// iteration, and not mentioned anywhere before the loop, can be
// omitted from the live set at the top of the body. This is a known,
// documented limitation carried over unchanged from the source
// implementation (see spec.md §9, "While-loop liveness fixpoint").
// Likewise, a class body is treated as a no-op for liveness (see
// spec.md §9, "Class-body liveness"): captures inside class statements
// other than methods may under-approximate.
package liveness

import "github.com/NetSys/kappa/ast"

// Tracker holds the set of names live at the current cursor position.
type Tracker struct {
	live ast.NameSet
}

// New returns a Tracker with no live variables, as at the very end of a
// function (just before an implicit or explicit final return).
func New() *Tracker {
	return &Tracker{live: make(ast.NameSet)}
}

// Live returns a copy of the currently live names.
func (t *Tracker) Live() ast.NameSet {
	return t.live.Clone()
}

// Clone returns an independent copy of t, so that alternative branches
// (e.g. an if's body and its else) can be explored without interference.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{live: t.live.Clone()}
}

// PrependStmt prepends stmt to the statements already considered and
// updates the live-variable set accordingly.
func (t *Tracker) PrependStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.ExprStmt:
		t.simple(n)
	case *ast.Assert:
		t.simple(n)
	case *ast.Assign:
		t.simple(n)
	case *ast.AugAssign:
		t.simple(n)
		// The assigned-to variable is also read (`x` in `x += 5`).
		t.live = t.live.Union(ast.VarsByUsage(n.Target)[ast.Store])
	case *ast.Return:
		t.simple(n)
	case *ast.Break, *ast.Continue, *ast.Pass:
		// No change.
	case *ast.ClassDef:
		// No change: class bodies aren't modeled for liveness (see
		// package doc and spec.md §9 "Class-body liveness").
	case *ast.Import:
		t.importNames(n.Names)
	case *ast.ImportFrom:
		t.importNames(n.Names)
	case *ast.If:
		bodyTracker := t.Clone()
		bodyTracker.PrependStmts(n.Body)
		orelseTracker := t.Clone()
		orelseTracker.PrependStmts(n.Orelse)
		testLoads := ast.VarsByUsage(n.Test)[ast.Load]
		t.live = bodyTracker.live.Union(orelseTracker.live).Union(testLoads)
	case *ast.While:
		t.PrependStmts(n.Body)
		t.live = t.live.Union(ast.VarsByUsage(n.Test)[ast.Load])
	case *ast.For:
		t.PrependStmts(n.Body)
		t.live = t.live.Minus(ast.VarsByUsage(n.Target)[ast.Store])
		t.live = t.live.Union(ast.VarsByUsage(n.Iter)[ast.Load])
	case *ast.FunctionDef:
		t.PrependStmts(n.Body)
		t.live = t.live.Minus(ast.ParamNames(n.Args))
		for _, d := range n.Decorators {
			t.live = t.live.Union(ast.VarsByUsage(d)[ast.Load])
		}
	}
}

// PrependStmts visits stmts in reverse order, as if they were each
// prepended one at a time starting from the last.
func (t *Tracker) PrependStmts(stmts []ast.Stmt) {
	for i := len(stmts) - 1; i >= 0; i-- {
		t.PrependStmt(stmts[i])
	}
}

func (t *Tracker) simple(stmt ast.Stmt) {
	vars := ast.VarsByUsage(stmt)
	t.live = t.live.Minus(vars[ast.Store])
	t.live = t.live.Union(vars[ast.Load])
}

func (t *Tracker) importNames(names []ast.Alias) {
	imported := make(ast.NameSet, len(names))
	for _, a := range names {
		imported.Add(a.BoundName())
	}
	t.live = t.live.Minus(imported)
}
