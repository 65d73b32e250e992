package cps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/cps"
	"github.com/NetSys/kappa/ignore"
)

// findClassDef returns the top-level ClassDef named name, or nil.
func findClassDef(body []ast.Stmt, name string) *ast.ClassDef {
	for _, s := range body {
		if cd, ok := s.(*ast.ClassDef); ok && cd.Name == name {
			return cd
		}
	}
	return nil
}

func findFunctionDef(body []ast.Stmt, name string) *ast.FunctionDef {
	for _, s := range body {
		if fd, ok := s.(*ast.FunctionDef); ok && fd.Name == name {
			return fd
		}
	}
	return nil
}

// asTry requires stmt to be a *ast.Try and returns it.
func asTry(t *testing.T, stmt ast.Stmt) *ast.Try {
	t.Helper()
	try, ok := stmt.(*ast.Try)
	require.True(t, ok, "expected *ast.Try, got %T", stmt)
	return try
}

func TestTransformModuleWrapsCallAssignInTryExcept(t *testing.T) {
	// def factorial(n):
	//     __x_0 = factorial(n)
	//     return n * __x_0
	call := ast.AssignTo("__x_0", ast.CallOf(ast.LoadName("factorial"), ast.LoadName("n")))
	ret := &ast.Return{Value: &ast.BinOp{Left: ast.LoadName("n"), Op: "*", Right: ast.LoadName("__x_0")}}
	fn := &ast.FunctionDef{
		Name: "factorial",
		Args: []ast.Param{{Name: "n"}},
		Body: []ast.Stmt{call, ret},
	}
	mod := &ast.Module{Body: []ast.Stmt{fn}}

	out, err := cps.TransformModule(mod, ignore.Set{})
	require.NoError(t, err)

	outFn := findFunctionDef(out.Body, "factorial")
	require.NotNil(t, outFn)

	try := asTry(t, outFn.Body[0])
	assert.Same(t, call, try.Body[0], "the original call assignment must be preserved verbatim inside the try body")

	excType, ok := try.Handler.ExcType.(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "CoordinatorCall", excType.Attr)
	rtName, ok := excType.Value.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "rt", rtName.Id)

	require.Len(t, try.Handler.Body, 2)
	addCont, ok := try.Handler.Body[0].(*ast.ExprStmt)
	require.True(t, ok)
	addCall, ok := addCont.Value.(*ast.Call)
	require.True(t, ok)
	addAttr, ok := addCall.Func.(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "add_continuation", addAttr.Attr)
	_, isRaise := try.Handler.Body[1].(*ast.Raise)
	assert.True(t, isRaise, "the handler must re-raise after attaching the continuation")

	contClass := findClassDef(out.Body, "Cont_factorial_0")
	require.NotNil(t, contClass, "expected a synthesized continuation class at module scope")

	bases, ok := contClass.Bases[0].(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "Continuation", bases.Attr)

	run := findFunctionDef(contClass.Body, "run")
	require.NotNil(t, run)
	require.Len(t, run.Args, 2, "run(result, n): result plus the one live capture")
	assert.Equal(t, "__x_0", run.Args[0].Name)
	assert.Equal(t, "n", run.Args[1].Name)

	// run's body replays what followed the call: return n * __x_0.
	assert.Same(t, ret, run.Body[0])
}

func TestTransformModuleCapturesOnlyLiveNonGlobalNames(t *testing.T) {
	// def f(n, unused):
	//     __x_0 = g()
	//     return n * __x_0
	call := ast.AssignTo("__x_0", ast.CallOf(ast.LoadName("g")))
	fn := &ast.FunctionDef{
		Name: "f",
		Args: []ast.Param{{Name: "n"}, {Name: "unused"}},
		Body: []ast.Stmt{
			call,
			&ast.Return{Value: &ast.BinOp{Left: ast.LoadName("n"), Op: "*", Right: ast.LoadName("__x_0")}},
		},
	}
	mod := &ast.Module{Body: []ast.Stmt{fn}}

	out, err := cps.TransformModule(mod, ignore.Set{})
	require.NoError(t, err)

	contClass := findClassDef(out.Body, "Cont_f_0")
	require.NotNil(t, contClass)
	run := findFunctionDef(contClass.Body, "run")
	require.NotNil(t, run)

	names := make([]string, len(run.Args))
	for i, p := range run.Args {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"__x_0", "n"}, names, "unused must not be captured since it's never read again")
}

func TestTransformModuleLeavesModuleLevelCallsUnwrapped(t *testing.T) {
	call := ast.AssignTo("x", ast.CallOf(ast.LoadName("f")))
	mod := &ast.Module{Body: []ast.Stmt{call}}

	out, err := cps.TransformModule(mod, ignore.Set{})
	require.NoError(t, err)

	assert.Same(t, call, out.Body[0], "module-level pauses are not supported; the assignment passes through untouched")
}

func TestTransformModulePreservesIgnoredDefinitions(t *testing.T) {
	call := ast.AssignTo("x", ast.CallOf(ast.LoadName("f")))
	fn := &ast.FunctionDef{Name: "skip_me", Body: []ast.Stmt{call}}
	mod := &ast.Module{Body: []ast.Stmt{fn}}

	out, err := cps.TransformModule(mod, ignore.Set{fn: struct{}{}})
	require.NoError(t, err)
	assert.Same(t, fn, out.Body[0])
}

func TestTransformModuleAddsTransformedClassMetaclass(t *testing.T) {
	class := &ast.ClassDef{
		Name: "Text",
		Body: []ast.Stmt{
			&ast.FunctionDef{
				Name: "__init__",
				Args: []ast.Param{{Name: "self"}},
				Body: []ast.Stmt{&ast.Pass{}},
			},
		},
	}
	mod := &ast.Module{Body: []ast.Stmt{class}}

	out, err := cps.TransformModule(mod, ignore.Set{})
	require.NoError(t, err)

	outClass := findClassDef(out.Body, "Text")
	require.NotNil(t, outClass)

	var found bool
	for _, kw := range outClass.Keywords {
		if kw.Arg == "metaclass" {
			found = true
			attr, ok := kw.Value.(*ast.Attribute)
			require.True(t, ok)
			assert.Equal(t, "TransformedClassMeta", attr.Attr)
		}
	}
	assert.True(t, found, "every user class must get the pausable-construction metaclass")
}

func TestTransformModuleRejectsNestedClassInClass(t *testing.T) {
	inner := &ast.ClassDef{Name: "Inner", Body: []ast.Stmt{&ast.Pass{}}}
	outer := &ast.ClassDef{Name: "Outer", Body: []ast.Stmt{inner}}
	mod := &ast.Module{Body: []ast.Stmt{outer}}

	_, err := cps.TransformModule(mod, ignore.Set{})
	assert.Error(t, err)
}

func TestTransformModuleRejectsExplicitMetaclass(t *testing.T) {
	class := &ast.ClassDef{
		Name:     "C",
		Keywords: []ast.Keyword{{Arg: "metaclass", Value: ast.LoadName("SomeMeta")}},
		Body:     []ast.Stmt{&ast.Pass{}},
	}
	mod := &ast.Module{Body: []ast.Stmt{class}}

	_, err := cps.TransformModule(mod, ignore.Set{})
	assert.Error(t, err)
}

func TestTransformModuleBuildsDummyLoopForCallInsideFor(t *testing.T) {
	// def main():
	//     for x in xs:
	//         __x_0 = pause()
	//         print(x)
	call := ast.AssignTo("__x_0", ast.CallOf(ast.LoadName("pause")))
	printCall := &ast.Assign{
		Targets: []ast.Expr{ast.StoreName("__x_1")},
		Value:   ast.CallOf(ast.LoadName("print"), ast.LoadName("x")),
	}
	forStmt := &ast.For{
		Target: ast.StoreName("x"),
		Iter:   ast.LoadName("xs"),
		Body:   []ast.Stmt{call, printCall},
	}
	fn := &ast.FunctionDef{Name: "main", Body: []ast.Stmt{forStmt}}
	mod := &ast.Module{Body: []ast.Stmt{fn}}

	out, err := cps.TransformModule(mod, ignore.Set{})
	require.NoError(t, err)

	// Statements inside a block are visited in reverse; printCall (the
	// later statement) is synthesized as Cont_main_0 and the pause call
	// (the earlier one, whose tail still holds printCall's try-wrapped
	// form) as Cont_main_1.
	contClass := findClassDef(out.Body, "Cont_main_1")
	require.NotNil(t, contClass, "the pause call site needs a continuation since it's followed by more loop body")
	run := findFunctionDef(contClass.Body, "run")
	require.NotNil(t, run)

	dummyFor, ok := run.Body[len(run.Body)-1].(*ast.For)
	require.True(t, ok, "a call site inside a loop must wrap its tail in the dummy-loop idiom")
	target, ok := dummyFor.Target.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "_", target.Id)

	iterCall, ok := dummyFor.Iter.(*ast.Call)
	require.True(t, ok)
	iterFn, ok := iterCall.Func.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "range", iterFn.Id)

	require.Len(t, dummyFor.Orelse, 1, "else-branch restarts the outer loop")
	outerFor, ok := dummyFor.Orelse[0].(*ast.For)
	require.True(t, ok)
	outerIter, ok := outerFor.Iter.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "xs", outerIter.Id)
}
