package liveness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/liveness"
)

func TestNewTrackerIsEmpty(t *testing.T) {
	tr := liveness.New()
	assert.Empty(t, tr.Live())
}

func TestSimpleAssignRemovesStoreAddsLoad(t *testing.T) {
	tr := liveness.New()
	// y is live after this point.
	tr.PrependStmts([]ast.Stmt{&ast.ExprStmt{Value: ast.LoadName("y")}})
	assert.True(t, tr.Live().Has("y"))

	// x = y + 1 -- x is defined here (no longer live before), y is read.
	tr.PrependStmt(ast.AssignTo("x", &ast.BinOp{Left: ast.LoadName("y"), Op: "+", Right: &ast.Num{N: "1"}}))
	live := tr.Live()
	assert.False(t, live.Has("x"), "x is stored here, so it isn't live immediately before this statement")
	assert.True(t, live.Has("y"))
}

func TestAugAssignReReadsTarget(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.AugAssign{Target: ast.LoadName("n"), Op: "+", Value: &ast.Num{N: "1"}})
	assert.True(t, tr.Live().Has("n"), "n += 1 both reads and writes n, so it must stay live before the statement")
}

func TestImportRemovesBoundNames(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("reduce")})
	tr.PrependStmt(&ast.ImportFrom{Module: "functools", Names: []ast.Alias{{Name: "reduce"}}})
	assert.False(t, tr.Live().Has("reduce"))
}

func TestIfJoinsBodyAndOrelsePlusTestLoads(t *testing.T) {
	tr := liveness.New()
	ifStmt := &ast.If{
		Test: ast.LoadName("cond"),
		Body: []ast.Stmt{&ast.ExprStmt{Value: ast.LoadName("a")}},
		Orelse: []ast.Stmt{
			&ast.ExprStmt{Value: ast.LoadName("b")},
		},
	}
	tr.PrependStmt(ifStmt)
	live := tr.Live()
	assert.True(t, live.Has("cond"))
	assert.True(t, live.Has("a"))
	assert.True(t, live.Has("b"))
}

func TestWhileAddsTestLoads(t *testing.T) {
	// while n > 0: pass -- the test's load (n) must be live, the body
	// contributes nothing here since it doesn't read or write anything.
	tr := liveness.New()
	tr.PrependStmt(&ast.While{
		Test: &ast.Compare{Left: ast.LoadName("n"), Ops: []ast.CmpOp{">"}, Comparators: []ast.Expr{&ast.Num{N: "0"}}},
		Body: []ast.Stmt{&ast.Pass{}},
	})
	assert.True(t, tr.Live().Has("n"))
}

func TestForRemovesTargetAddsIterLoads(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("x")})
	tr.PrependStmt(&ast.For{
		Target: ast.StoreName("x"),
		Iter:   ast.LoadName("xs"),
		Body:   []ast.Stmt{&ast.Pass{}},
	})
	live := tr.Live()
	assert.False(t, live.Has("x"), "the loop target is bound by the for statement, not live before it")
	assert.True(t, live.Has("xs"))
}

func TestBreakContinuePassAreNoOps(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("a")})
	before := tr.Live().Clone()
	tr.PrependStmt(&ast.Break{})
	tr.PrependStmt(&ast.Continue{})
	tr.PrependStmt(&ast.Pass{})
	assert.Equal(t, before, tr.Live())
}

func TestClassDefIsNoOpForLiveness(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("a")})
	before := tr.Live().Clone()
	tr.PrependStmt(&ast.ClassDef{
		Name: "C",
		Body: []ast.Stmt{ast.AssignTo("attr", ast.LoadName("some_external"))},
	})
	assert.Equal(t, before, tr.Live(), "class bodies are a documented no-op for liveness")
}

func TestCloneIsIndependent(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("a")})

	clone := tr.Clone()
	clone.PrependStmt(&ast.ExprStmt{Value: ast.LoadName("b")})

	assert.False(t, tr.Live().Has("b"), "mutating the clone must not affect the original tracker")
	assert.True(t, clone.Live().Has("b"))
}

func TestFunctionDefMinusParamsPlusDecoratorLoads(t *testing.T) {
	tr := liveness.New()
	tr.PrependStmt(&ast.FunctionDef{
		Name:       "f",
		Args:       []ast.Param{{Name: "n"}},
		Body:       []ast.Stmt{&ast.ExprStmt{Value: ast.LoadName("n")}, &ast.ExprStmt{Value: ast.LoadName("helper")}},
		Decorators: []ast.Expr{ast.LoadName("some_decorator")},
	})
	live := tr.Live()
	assert.False(t, live.Has("n"), "n is a parameter, bound fresh on each call")
	assert.True(t, live.Has("helper"))
	assert.True(t, live.Has("some_decorator"))
}
