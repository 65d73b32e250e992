// Package cps implements the continuation-passing-style transform: the
// heart of the compiler. For every call assignment inside a function
// body, it wraps the call in a try/except that catches the runtime's
// coordinator-call signal and, on catch, attaches a freshly synthesized
// continuation object (one per call site) describing everything that
// still needs to run, then re-raises so the signal keeps propagating up
// the call stack. Grounded in compiler/transform/cps.py.
//
// A continuation's run method captures exactly the locals the liveness
// pass says are still needed, plus the call's own result, and replays
// the statements that originally followed the call -- with every loop
// the call was nested in reconstituted via Context.MakeContinuationClass's
// dummy-loop idiom so resuming mid-loop resumes the right iteration.
package cps

import (
	"fmt"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/ignore"
	"github.com/NetSys/kappa/kerrors"
)

// Transformer applies the CPS pass to an already-flattened module
// (and, typically, already auto-paused; see package autopause). It must
// run after flatten so every call is already isolated as the sole RHS
// of a simple assignment.
type Transformer struct {
	ignored    ignore.Set
	contCounts map[string]int
}

// TransformModule is the package's entry point: it runs the CPS pass
// over mod and returns the transformed module. mod must already be
// flattened, and should already carry its "import rt" header (see
// compiler.Compile) so that name is accounted for as global scope.
func TransformModule(mod *ast.Module, ignored ignore.Set) (*ast.Module, error) {
	t := &Transformer{ignored: ignored, contCounts: map[string]int{}}
	ctx := NewModuleContext(mod)
	body, extras, err := t.visitList(mod.Body, ctx, true)
	if err != nil {
		return nil, err
	}
	if len(extras) != 0 {
		// visitList folds extras directly into body at module level
		// (atModuleLevel=true); if any escaped, a scope-entry helper
		// failed to do that.
		panic("cps: extra declarations escaped module scope")
	}
	return &ast.Module{Body: body}, nil
}

// visitList transforms stmts in reverse source order, threading ctx's
// subsequent-statements tail and liveness backward one statement at a
// time, exactly mirroring cps.py's CPSTransformer.visit_list. Extra
// declarations a statement produces (continuation classes) are folded
// directly into the result at module level, where they're valid
// top-level statements; inside a function or class body they're
// instead returned separately so the caller can splice them in just
// before the enclosing def.
func (t *Transformer) visitList(stmts []ast.Stmt, ctx *Context, atModuleLevel bool) ([]ast.Stmt, []ast.Stmt, error) {
	var result []ast.Stmt
	var extras []ast.Stmt

	for i := len(stmts) - 1; i >= 0; i-- {
		stmt := stmts[i]
		if t.ignored.Has(stmt) {
			result = append([]ast.Stmt{stmt}, result...)
			ctx.PrependSubsequent([]ast.Stmt{stmt}, stmt)
			continue
		}

		transformed, currExtras, err := t.visitStmt(stmt, ctx)
		if err != nil {
			return nil, nil, err
		}

		result = append([]ast.Stmt{transformed}, result...)
		ctx.PrependSubsequent([]ast.Stmt{transformed}, stmt)

		if atModuleLevel {
			result = append(currExtras, result...)
		} else {
			extras = append(extras, currExtras...)
		}
	}

	return result, extras, nil
}

// visitStmt transforms a single statement, returning its replacement
// plus any continuation classes that must be declared alongside it.
func (t *Transformer) visitStmt(s ast.Stmt, ctx *Context) (ast.Stmt, []ast.Stmt, error) {
	switch n := s.(type) {
	case *ast.Assign:
		if _, ok := n.Value.(*ast.Call); ok && ctx.CurrFunc != nil {
			return t.transformAssignCall(n, ctx)
		}
		return n, nil, nil

	case *ast.If:
		bodyCtx := ctx.Clone()
		body, bodyExtras, err := t.visitList(n.Body, bodyCtx, false)
		if err != nil {
			return nil, nil, err
		}
		orelseCtx := ctx.Clone()
		orelse, orelseExtras, err := t.visitList(n.Orelse, orelseCtx, false)
		if err != nil {
			return nil, nil, err
		}
		return &ast.If{Test: n.Test, Body: body, Orelse: orelse}, append(bodyExtras, orelseExtras...), nil

	case *ast.While:
		if len(n.Orelse) != 0 {
			return nil, nil, kerrors.NotSupported(n, "while-else not supported")
		}
		transformed := &ast.While{Test: ast.CloneExpr(n.Test)}
		bodyCtx := ctx.Clone()
		bodyCtx.EnterLoop(transformed)
		body, extras, err := t.visitList(n.Body, bodyCtx, false)
		if err != nil {
			return nil, nil, err
		}
		transformed.Body = body
		return transformed, extras, nil

	case *ast.For:
		if len(n.Orelse) != 0 {
			return nil, nil, kerrors.NotSupported(n, "for-else not supported")
		}
		transformed := &ast.For{Target: ast.CloneExpr(n.Target), Iter: ast.CloneExpr(n.Iter)}
		bodyCtx := ctx.Clone()
		bodyCtx.EnterLoop(transformed)
		body, extras, err := t.visitList(n.Body, bodyCtx, false)
		if err != nil {
			return nil, nil, err
		}
		transformed.Body = body
		return transformed, extras, nil

	case *ast.FunctionDef:
		funcCtx, err := ctx.EnterFunctionScope(n)
		if err != nil {
			return nil, nil, err
		}
		body, extras, err := t.visitList(n.Body, funcCtx, false)
		if err != nil {
			return nil, nil, err
		}
		transformed := &ast.FunctionDef{Name: n.Name, Args: n.Args, Body: body, Decorators: n.Decorators}
		return transformed, extras, nil

	case *ast.ClassDef:
		for _, kw := range n.Keywords {
			if kw.Arg == "metaclass" {
				return nil, nil, kerrors.NotSupported(n, "class definition with an explicit metaclass is not supported")
			}
		}
		classCtx, err := ctx.EnterClassScope(n)
		if err != nil {
			return nil, nil, err
		}
		body, extras, err := t.visitList(n.Body, classCtx, false)
		if err != nil {
			return nil, nil, err
		}
		keywords := append(append([]ast.Keyword(nil), n.Keywords...), ast.Keyword{
			Arg:   "metaclass",
			Value: ast.AttrChain("rt", "TransformedClassMeta"),
		})
		transformed := &ast.ClassDef{Name: n.Name, Bases: n.Bases, Keywords: keywords, Body: body, Decorators: n.Decorators}
		return transformed, extras, nil

	case *ast.ExprStmt:
		return nil, nil, kerrors.NotSupported(n, "expression statement should have been eliminated by flatten")

	default:
		// AugAssign, Assert, Break, Continue, Pass, Return, Import,
		// ImportFrom carry nothing a pause could interrupt.
		return s, nil, nil
	}
}

// transformAssignCall wraps a call assignment discovered inside a
// function body in the try/except handoff, synthesizing one
// continuation class per call site.
func (t *Transformer) transformAssignCall(assign *ast.Assign, ctx *Context) (ast.Stmt, []ast.Stmt, error) {
	if len(assign.Targets) != 1 {
		return nil, nil, kerrors.NotSupported(assign, "call result must be assigned to a single name")
	}
	target, ok := assign.Targets[0].(*ast.Name)
	if !ok {
		return nil, nil, kerrors.NotSupported(assign, "call result must be assigned to a single name")
	}
	resultID := target.Id

	funcName := ctx.CurrFunc.Name
	count := t.contCounts[funcName]
	t.contCounts[funcName] = count + 1
	contClassName := fmt.Sprintf("Cont_%s_%d", funcName, count)

	contClassDef, captured := ctx.MakeContinuationClass(contClassName, resultID)

	capturedArgs := make([]ast.Expr, len(captured))
	for i, v := range captured {
		capturedArgs[i] = ast.LoadName(v)
	}

	tryStmt := &ast.Try{
		Body: []ast.Stmt{assign},
		Handler: &ast.ExceptHandler{
			ExcType: ast.AttrChain("rt", "CoordinatorCall"),
			Name:    "cc__",
			Body: []ast.Stmt{
				&ast.ExprStmt{Value: ast.CallOf(
					&ast.Attribute{Value: ast.LoadName("cc__"), Attr: "add_continuation", Ctx: ast.Load},
					ast.CallOf(ast.LoadName(contClassName), capturedArgs...),
				)},
				&ast.Raise{},
			},
		},
	}

	return tryStmt, []ast.Stmt{contClassDef}, nil
}
