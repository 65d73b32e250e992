package cps

import (
	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/kerrors"
	"github.com/NetSys/kappa/liveness"
	"github.com/NetSys/kappa/scope"
)

// LoopBodyDelimiter marks the point, in a Context's subsequent-statements
// tail, where a loop body ends and its enclosing loop begins again. A
// continuation's run method turns each delimiter into the
// "for _ in range(1): <rest of the current iteration, before the
// delimiter> else: <the loop>"
// idiom, which resumes a paused iteration without re-running anything
// already past the pause point while still falling through to the next
// iteration (or out of the loop, on a break) exactly as the original
// loop would have.
type LoopBodyDelimiter struct {
	Loop ast.Stmt // the *ast.For or *ast.While this delimiter belongs to
}

// Context threads the state the CPS transformer needs to build a
// continuation at the point of any call assignment: what runs after
// this point (Subsequent), what's live at this point (Liveness), which
// enclosing class/function we're in, and which names are already
// reachable through module scope (Globals, so a continuation doesn't
// have to capture them). Grounded in compiler/transform/cps.py's
// CPSTransformerContext.
type Context struct {
	Subsequent []any // each element is an ast.Stmt or *LoopBodyDelimiter
	Liveness   *liveness.Tracker
	CurrClass  *ast.ClassDef
	CurrFunc   *ast.FunctionDef
	Globals    ast.NameSet
}

// NewModuleContext builds the root context for a module: no enclosing
// function or class, and a freshly gathered global-name set.
func NewModuleContext(mod *ast.Module) *Context {
	return &Context{
		Liveness: liveness.New(),
		Globals:  scope.Gather(mod),
	}
}

// Clone returns an independent copy, so that alternative branches (an
// if's body and its else, say) can extend the subsequent-statements
// tail without interfering with each other.
func (c *Context) Clone() *Context {
	return &Context{
		Subsequent: append([]any(nil), c.Subsequent...),
		Liveness:   c.Liveness.Clone(),
		CurrClass:  c.CurrClass,
		CurrFunc:   c.CurrFunc,
		Globals:    c.Globals.Clone(),
	}
}

// PrependSubsequent records that transformed (the already-transformed
// statement(s) standing in for origStmt) runs immediately after
// whatever was already in the tail, and folds origStmt's effect on
// liveness backward. Liveness always tracks the ORIGINAL statement, not
// its CPS-transformed replacement, since the replacement's synthesized
// try/except references the very captured-variable names liveness is
// being asked to compute.
func (c *Context) PrependSubsequent(transformed []ast.Stmt, origStmt ast.Stmt) {
	items := make([]any, len(transformed))
	for i, s := range transformed {
		items[i] = s
	}
	c.Subsequent = append(items, c.Subsequent...)
	c.Liveness.PrependStmt(origStmt)
}

// EnterLoop pushes a LoopBodyDelimiter for loop onto the subsequent-
// statements tail and folds the loop itself into liveness, before the
// loop's (not yet transformed) body is visited. Must be called with a
// context already cloned away from whatever surrounds the loop.
func (c *Context) EnterLoop(loop ast.Stmt) {
	c.Subsequent = append([]any{&LoopBodyDelimiter{Loop: loop}}, c.Subsequent...)
	c.Liveness.PrependStmt(loop)
}

// EnterClassScope returns a fresh context for visiting classDef's body:
// empty subsequent-statements tail (methods don't see what runs after
// the class statement) and a fresh liveness tracker, erroring if
// classDef is itself nested inside a class or function body, which this
// compiler does not support.
func (c *Context) EnterClassScope(classDef *ast.ClassDef) (*Context, error) {
	if c.CurrClass != nil || c.CurrFunc != nil {
		return nil, kerrors.NotSupported(classDef, "class decls within class/function decls not supported")
	}
	return &Context{
		Liveness:  liveness.New(),
		CurrClass: classDef,
		Globals:   c.Globals.Clone(),
	}, nil
}

// EnterFunctionScope returns a fresh context for visiting funcDef's
// body, erroring on a nested function def (also not supported). The
// new context's Globals excludes every name funcDef binds as a
// parameter or local store, since those shadow the module scope inside
// this function and so must still be captured by any continuation
// built within it.
func (c *Context) EnterFunctionScope(funcDef *ast.FunctionDef) (*Context, error) {
	if c.CurrFunc != nil {
		return nil, kerrors.NotSupported(funcDef, "nested functions not supported")
	}
	vars := ast.VarsByUsage(funcDef)
	newGlobals := c.Globals.Clone().Minus(vars[ast.Param]).Minus(vars[ast.Store])
	return &Context{
		Liveness:  liveness.New(),
		CurrClass: c.CurrClass,
		CurrFunc:  funcDef,
		Globals:   newGlobals,
	}, nil
}

// MakeContinuationClass builds the ClassDef for a continuation named
// name whose run method accepts resultID (the value the paused call
// eventually produces) plus whatever other local names are live at
// this point in the tail, and then runs everything in c.Subsequent.
// It returns the class and the (sorted, for determinism) list of
// captured variable names the caller must pass when instantiating it.
func (c *Context) MakeContinuationClass(name, resultID string) (*ast.ClassDef, []string) {
	live := c.Liveness.Live()
	captured := live.Minus(ast.NewNameSet(resultID)).Minus(c.Globals).Sorted()

	params := make([]ast.Param, 0, len(captured)+1)
	params = append(params, ast.Param{Name: resultID})
	for _, v := range captured {
		params = append(params, ast.Param{Name: v})
	}

	body := c.buildRunBody()

	run := &ast.FunctionDef{
		Name:       "run",
		Args:       params,
		Body:       body,
		Decorators: []ast.Expr{ast.LoadName("staticmethod")},
	}

	classDef := &ast.ClassDef{
		Name:  name,
		Bases: []ast.Expr{ast.AttrChain("rt", "Continuation")},
		Body:  []ast.Stmt{run},
	}
	return classDef, captured
}

// buildRunBody turns the subsequent-statements tail into a single
// statement list, rewriting every LoopBodyDelimiter into the dummy-loop
// idiom described on LoopBodyDelimiter.
func (c *Context) buildRunBody() []ast.Stmt {
	var body []ast.Stmt
	for _, item := range c.Subsequent {
		switch v := item.(type) {
		case *LoopBodyDelimiter:
			inner := body
			if len(inner) == 0 {
				inner = []ast.Stmt{&ast.Pass{}}
			}
			dummy := &ast.For{
				Target: ast.StoreName("_"),
				Iter:   ast.CallOf(ast.LoadName("range"), &ast.Num{N: "1"}),
				Body:   inner,
				Orelse: []ast.Stmt{v.Loop},
			}
			body = []ast.Stmt{dummy}
		case ast.Stmt:
			body = append(body, v)
		}
	}
	if len(body) == 0 {
		body = []ast.Stmt{&ast.Pass{}}
	}
	return body
}
