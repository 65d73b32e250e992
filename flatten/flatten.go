// Package flatten implements the compiler's lowering pass: rewriting
// every statement so each call sits alone on the right-hand side of a
// simple assignment, in three-address form, while preserving
// evaluation order, short-circuit semantics, and loop-condition
// re-evaluation. Grounded in compiler/transform/flatten.py.
package flatten

import (
	"fmt"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/ignore"
	"github.com/NetSys/kappa/kerrors"
)

// Actions is a list of statements produced while flattening an
// expression or statement -- the Go counterpart of the Python
// implementation's ActionsT.
type Actions = []ast.Stmt

// Flattener holds the state threaded through one flattening pass: the
// fresh-symbol counter and the stack of per-loop condition-recompute
// actions used to re-run a while-loop's test before every "continue".
type Flattener struct {
	ignored      ignore.Set
	nextSymbolID int
	loopCondActs [][]ast.Stmt
}

// New returns a Flattener that leaves the definitions in ignored untouched.
func New(ignored ignore.Set) *Flattener {
	return &Flattener{ignored: ignored}
}

// Module flattens an entire module in a fresh Flattener instance.
func Module(mod *ast.Module, ignored ignore.Set) (*ast.Module, error) {
	return New(ignored).Module(mod)
}

func (f *Flattener) nextSymbol() string {
	id := fmt.Sprintf("__x_%d", f.nextSymbolID)
	f.nextSymbolID++
	return id
}

// Module flattens mod's top-level body.
func (f *Flattener) Module(mod *ast.Module) (*ast.Module, error) {
	body, err := f.stmtList(mod.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Module{Body: body}, nil
}

// --- expressions ---

// expr flattens expr and returns its result expression (a Name load, a
// literal, a Store/Del target, or a tuple/list/dict display or starred
// value whose parts are themselves flattened) plus the side-effecting
// statements that must run before it, in order, to compute that result.
func (f *Flattener) expr(e ast.Expr) (ast.Expr, Actions, error) {
	switch n := e.(type) {
	case *ast.Name:
		return n, nil, nil
	case *ast.Num:
		return n, nil, nil
	case *ast.Str:
		return n, nil, nil
	case *ast.Bytes:
		return n, nil, nil
	case *ast.NameConstant:
		return n, nil, nil

	case *ast.Attribute:
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, nil, err
		}
		flattened := &ast.Attribute{Value: value, Attr: n.Attr, Ctx: n.Ctx}
		switch n.Ctx {
		case ast.Load:
			resultID := f.nextSymbol()
			actions = append(actions, ast.AssignTo(resultID, flattened))
			return ast.LoadName(resultID), actions, nil
		case ast.Store, ast.Del:
			return flattened, actions, nil
		default:
			return nil, nil, kerrors.NotSupported(n, "attribute context not supported")
		}

	case *ast.Subscript:
		value, valueActions, err := f.expr(n.Value)
		if err != nil {
			return nil, nil, err
		}
		sl, sliceActions, err := f.slice(n.Slice)
		if err != nil {
			return nil, nil, err
		}
		actions := append(valueActions, sliceActions...)
		flattened := &ast.Subscript{Value: value, Slice: sl, Ctx: n.Ctx}
		switch n.Ctx {
		case ast.Load:
			resultID := f.nextSymbol()
			actions = append(actions, ast.AssignTo(resultID, flattened))
			return ast.LoadName(resultID), actions, nil
		case ast.Store, ast.Del:
			return flattened, actions, nil
		default:
			return nil, nil, kerrors.NotSupported(n, "subscript context not supported")
		}

	case *ast.BinOp:
		left, leftActions, err := f.expr(n.Left)
		if err != nil {
			return nil, nil, err
		}
		right, rightActions, err := f.expr(n.Right)
		if err != nil {
			return nil, nil, err
		}
		resultID := f.nextSymbol()
		actions := append(append(leftActions, rightActions...), ast.AssignTo(resultID, &ast.BinOp{Left: left, Op: n.Op, Right: right}))
		return ast.LoadName(resultID), actions, nil

	case *ast.UnaryOp:
		operand, actions, err := f.expr(n.Operand)
		if err != nil {
			return nil, nil, err
		}
		resultID := f.nextSymbol()
		actions = append(actions, ast.AssignTo(resultID, &ast.UnaryOp{Op: n.Op, Operand: operand}))
		return ast.LoadName(resultID), actions, nil

	case *ast.BoolOp:
		return f.boolOp(n)

	case *ast.Compare:
		left, actions, err := f.expr(n.Left)
		if err != nil {
			return nil, nil, err
		}
		comparators := make([]ast.Expr, len(n.Comparators))
		for i, c := range n.Comparators {
			flattenedC, cActions, err := f.expr(c)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, cActions...)
			comparators[i] = flattenedC
		}
		resultID := f.nextSymbol()
		actions = append(actions, ast.AssignTo(resultID, &ast.Compare{Left: left, Ops: n.Ops, Comparators: comparators}))
		return ast.LoadName(resultID), actions, nil

	case *ast.Call:
		fn, actions, err := f.expr(n.Func)
		if err != nil {
			return nil, nil, err
		}
		// A tuple/list/dict display argument is bound to a fresh temp so
		// that every argument is an atom.
		var atom func(ast.Expr) ast.Expr
		atom = func(x ast.Expr) ast.Expr {
			switch v := x.(type) {
			case *ast.Starred:
				return &ast.Starred{Value: atom(v.Value), Ctx: v.Ctx}
			case *ast.Tuple, *ast.List, *ast.Dict:
				id := f.nextSymbol()
				actions = append(actions, ast.AssignTo(id, x))
				return ast.LoadName(id)
			}
			return x
		}
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			flattenedA, aActions, err := f.expr(a)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, aActions...)
			args[i] = atom(flattenedA)
		}
		keywords := make([]ast.Keyword, len(n.Keywords))
		for i, kw := range n.Keywords {
			flattenedV, kwActions, err := f.expr(kw.Value)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, kwActions...)
			keywords[i] = ast.Keyword{Arg: kw.Arg, Value: atom(flattenedV)}
		}
		resultID := f.nextSymbol()
		actions = append(actions, ast.AssignTo(resultID, &ast.Call{Func: fn, Args: args, Keywords: keywords}))
		return ast.LoadName(resultID), actions, nil

	case *ast.Dict:
		// Evaluation order (matching the host's observable order):
		// value1, key1, value2, key2, ...
		var actions Actions
		keys := make([]ast.Expr, len(n.Keys))
		values := make([]ast.Expr, len(n.Values))
		for i := range n.Values {
			flattenedV, vActions, err := f.expr(n.Values[i])
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, vActions...)
			values[i] = flattenedV

			if n.Keys[i] != nil {
				flattenedK, kActions, err := f.expr(n.Keys[i])
				if err != nil {
					return nil, nil, err
				}
				actions = append(actions, kActions...)
				keys[i] = flattenedK
			}
		}
		return &ast.Dict{Keys: keys, Values: values}, actions, nil

	case *ast.Tuple:
		elts, actions, err := f.exprList(n.Elts)
		if err != nil {
			return nil, nil, err
		}
		return &ast.Tuple{Elts: elts, Ctx: n.Ctx}, actions, nil

	case *ast.List:
		elts, actions, err := f.exprList(n.Elts)
		if err != nil {
			return nil, nil, err
		}
		return &ast.List{Elts: elts, Ctx: n.Ctx}, actions, nil

	case *ast.Starred:
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, nil, err
		}
		return &ast.Starred{Value: value, Ctx: n.Ctx}, actions, nil

	case *ast.ListComp:
		return f.listComp(n)

	default:
		return nil, nil, kerrors.NotSupported(e, "expression not supported")
	}
}

func (f *Flattener) exprList(exprs []ast.Expr) ([]ast.Expr, Actions, error) {
	out := make([]ast.Expr, len(exprs))
	var actions Actions
	for i, e := range exprs {
		flattened, eActions, err := f.expr(e)
		if err != nil {
			return nil, nil, err
		}
		out[i] = flattened
		actions = append(actions, eActions...)
	}
	return out, actions, nil
}

// boolOp desugars "and"/"or" into a chain of nested ifs over a single
// result variable before flattening, preserving short-circuit order:
//
//	x = v1 and v2 and v3
//
// becomes
//
//	x = v1
//	if x:
//	    x = v2
//	    if x:
//	        x = v3
//
// ("or" uses "if not x:" as its test). This block is then flattened as
// ordinary statements.
func (f *Flattener) boolOp(b *ast.BoolOp) (ast.Expr, Actions, error) {
	resultID := f.nextSymbol()
	resultLoad := ast.LoadName(resultID)

	var ifTest ast.Expr
	switch b.Op {
	case ast.And:
		ifTest = resultLoad
	case ast.Or:
		ifTest = &ast.UnaryOp{Op: ast.Not, Operand: resultLoad}
	default:
		return nil, nil, kerrors.NotSupported(b, fmt.Sprintf("boolean operator %q not recognized", b.Op))
	}

	last := len(b.Values) - 1
	body := []ast.Stmt{ast.AssignTo(resultID, b.Values[last])}
	for i := last - 1; i >= 0; i-- {
		body = []ast.Stmt{&ast.If{Test: ifTest, Body: body, Orelse: nil}}
		body = append([]ast.Stmt{ast.AssignTo(resultID, b.Values[i])}, body...)
	}

	actions, err := f.stmtList(body)
	if err != nil {
		return nil, nil, err
	}
	return ast.LoadName(resultID), actions, nil
}

// listComp desugars a list comprehension into an empty-list literal
// followed by nested for/if statements mirroring the generators
// (outermost generator first, each generator's "if" clauses nested
// inside it) with an append call at the innermost body, then flattens
// the resulting statements:
//
//	l = [y for x in it if cond for y in x]
//
// becomes
//
//	l = []
//	for x in it:
//	    if cond:
//	        for y in x:
//	            l.append(y)
func (f *Flattener) listComp(lc *ast.ListComp) (ast.Expr, Actions, error) {
	resultID := f.nextSymbol()

	var body ast.Stmt = &ast.ExprStmt{Value: &ast.Call{
		Func: &ast.Attribute{Value: ast.LoadName(resultID), Attr: "append", Ctx: ast.Load},
		Args: []ast.Expr{lc.Elt},
	}}

	for i := len(lc.Generators) - 1; i >= 0; i-- {
		comp := lc.Generators[i]
		if comp.IsAsync {
			return nil, nil, kerrors.NotSupported(lc, "asynchronous comprehension not supported")
		}
		for j := len(comp.Ifs) - 1; j >= 0; j-- {
			body = &ast.If{Test: comp.Ifs[j], Body: []ast.Stmt{body}, Orelse: nil}
		}
		body = &ast.For{Target: comp.Target, Iter: comp.Iter, Body: []ast.Stmt{body}, Orelse: nil}
	}

	defineList := ast.AssignTo(resultID, &ast.List{})
	bodyActions, err := f.stmt(body)
	if err != nil {
		return nil, nil, err
	}
	actions := append([]ast.Stmt{defineList}, bodyActions...)
	return ast.LoadName(resultID), actions, nil
}

// --- slices ---

func (f *Flattener) slice(s ast.Slice) (ast.Slice, Actions, error) {
	switch n := s.(type) {
	case *ast.Index:
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, nil, err
		}
		return &ast.Index{Value: value}, actions, nil

	case *ast.SliceExpr:
		var actions Actions
		var lower, upper, step ast.Expr
		var err error
		if n.Lower != nil {
			if lower, actions, err = f.expr(n.Lower); err != nil {
				return nil, nil, err
			}
		}
		if n.Upper != nil {
			upperFlat, upperActions, err := f.expr(n.Upper)
			if err != nil {
				return nil, nil, err
			}
			upper = upperFlat
			actions = append(actions, upperActions...)
		}
		if n.Step != nil {
			stepFlat, stepActions, err := f.expr(n.Step)
			if err != nil {
				return nil, nil, err
			}
			step = stepFlat
			actions = append(actions, stepActions...)
		}
		return &ast.SliceExpr{Lower: lower, Upper: upper, Step: step}, actions, nil

	case *ast.ExtSlice:
		dims := make([]ast.Slice, len(n.Dims))
		var actions Actions
		for i, d := range n.Dims {
			flattenedD, dActions, err := f.slice(d)
			if err != nil {
				return nil, nil, err
			}
			dims[i] = flattenedD
			actions = append(actions, dActions...)
		}
		return &ast.ExtSlice{Dims: dims}, actions, nil

	default:
		return nil, nil, kerrors.NotSupported(s, "slice not supported")
	}
}

// --- statements ---

func (f *Flattener) stmtList(stmts []ast.Stmt) (Actions, error) {
	var result Actions
	for _, s := range stmts {
		actions, err := f.stmt(s)
		if err != nil {
			return nil, err
		}
		result = append(result, actions...)
	}
	return result, nil
}

func (f *Flattener) stmt(s ast.Stmt) (Actions, error) {
	if f.ignored.Has(s) {
		return Actions{s}, nil
	}

	switch n := s.(type) {
	case *ast.Assert:
		test, actions, err := f.expr(n.Test)
		if err != nil {
			return nil, err
		}
		var msg ast.Expr
		if n.Msg != nil {
			msgFlat, msgActions, err := f.expr(n.Msg)
			if err != nil {
				return nil, err
			}
			msg = msgFlat
			actions = append(actions, msgActions...)
		}
		return append(actions, &ast.Assert{Test: test, Msg: msg}), nil

	case *ast.Assign:
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, err
		}
		targets, targetsActions, err := f.exprList(n.Targets)
		if err != nil {
			return nil, err
		}
		actions = append(actions, targetsActions...)
		return append(actions, &ast.Assign{Targets: targets, Value: value}), nil

	case *ast.AugAssign:
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, err
		}
		target, targetActions, err := f.expr(n.Target)
		if err != nil {
			return nil, err
		}
		actions = append(actions, targetActions...)
		return append(actions, &ast.AugAssign{Target: target, Op: n.Op, Value: value}), nil

	case *ast.Break:
		return Actions{n}, nil

	case *ast.ClassDef:
		if len(n.Decorators) > 0 {
			return nil, kerrors.NotSupported(n, "ClassDef decorators not supported")
		}
		bases, actions, err := f.exprList(n.Bases)
		if err != nil {
			return nil, err
		}
		keywords := make([]ast.Keyword, len(n.Keywords))
		for i, kw := range n.Keywords {
			flattenedV, kwActions, err := f.expr(kw.Value)
			if err != nil {
				return nil, err
			}
			actions = append(actions, kwActions...)
			keywords[i] = ast.Keyword{Arg: kw.Arg, Value: flattenedV}
		}
		body, err := f.stmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return append(actions, &ast.ClassDef{Name: n.Name, Bases: bases, Keywords: keywords, Body: body}), nil

	case *ast.Continue:
		top := f.loopCondActs[len(f.loopCondActs)-1]
		return append(append(Actions{}, top...), n), nil

	case *ast.ExprStmt:
		_, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return actions, nil

	case *ast.If:
		test, actions, err := f.expr(n.Test)
		if err != nil {
			return nil, err
		}
		body, err := f.stmtList(n.Body)
		if err != nil {
			return nil, err
		}
		orelse, err := f.stmtList(n.Orelse)
		if err != nil {
			return nil, err
		}
		return append(actions, &ast.If{Test: test, Body: body, Orelse: orelse}), nil

	case *ast.Import:
		return Actions{n}, nil

	case *ast.ImportFrom:
		return Actions{n}, nil

	case *ast.Return:
		if n.Value == nil {
			return Actions{n}, nil
		}
		value, actions, err := f.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return append(actions, &ast.Return{Value: value}), nil

	case *ast.While:
		test, testActions, err := f.expr(n.Test)
		if err != nil {
			return nil, err
		}
		if len(n.Orelse) > 0 {
			return nil, kerrors.NotSupported(n, "while statement orelse not supported")
		}

		f.loopCondActs = append(f.loopCondActs, testActions)
		body, err := f.stmtList(n.Body)
		f.loopCondActs = f.loopCondActs[:len(f.loopCondActs)-1]
		if err != nil {
			return nil, err
		}
		body = append(body, testActions...) // Re-compute loop condition at the end of loop body.

		return append(testActions, &ast.While{Test: test, Body: body, Orelse: nil}), nil

	case *ast.For:
		wrappedIter := &ast.Call{Func: ast.LoadName("iter"), Args: []ast.Expr{n.Iter}}
		if len(n.Orelse) > 0 {
			return nil, kerrors.NotSupported(n, "for statement orelse not supported")
		}

		target, targetActions, err := f.expr(n.Target)
		if err != nil {
			return nil, err
		}
		forIter, iterActions, err := f.expr(wrappedIter)
		if err != nil {
			return nil, err
		}

		f.loopCondActs = append(f.loopCondActs, nil) // For-loop has no condition actions.
		body, err := f.stmtList(n.Body)
		f.loopCondActs = f.loopCondActs[:len(f.loopCondActs)-1]
		if err != nil {
			return nil, err
		}

		actions := append(targetActions, iterActions...)
		return append(actions, &ast.For{Target: target, Iter: forIter, Body: body, Orelse: nil}), nil

	case *ast.FunctionDef:
		for _, d := range n.Decorators {
			if !isAllowedFuncDecorator(d) {
				return nil, kerrors.NotSupported(d, "function decorator not supported")
			}
		}
		body, err := f.stmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return Actions{&ast.FunctionDef{Name: n.Name, Args: n.Args, Body: body, Decorators: n.Decorators}}, nil

	case *ast.Pass:
		return Actions{n}, nil

	default:
		return nil, kerrors.NotSupported(s, "statement not supported")
	}
}

// isAllowedFuncDecorator reports whether d is the bare "on_coordinator"
// identifier or the "rt.on_coordinator" attribute access -- the only
// function decorators this compiler passes through unmodified.
func isAllowedFuncDecorator(d ast.Expr) bool {
	if name, ok := d.(*ast.Name); ok && name.Id == "on_coordinator" {
		return true
	}
	if attr, ok := d.(*ast.Attribute); ok && attr.Attr == "on_coordinator" {
		if base, ok := attr.Value.(*ast.Name); ok && base.Id == "rt" {
			return true
		}
	}
	return false
}
