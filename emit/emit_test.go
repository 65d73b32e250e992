package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/emit"
)

func TestEmitFunctionDefWithParamsAndBody(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.FunctionDef{
			Name: "factorial",
			Args: []ast.Param{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.BinOp{Left: ast.LoadName("n"), Op: "*", Right: &ast.Num{N: "1"}}},
			},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "def factorial(n):\n    return (n * 1)\n", string(out))
}

func TestEmitEmptyBodyRendersPass(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.FunctionDef{Name: "noop", Body: nil},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "def noop():\n    pass\n", string(out))
}

func TestEmitIfElse(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.If{
			Test:   ast.LoadName("cond"),
			Body:   []ast.Stmt{&ast.Pass{}},
			Orelse: []ast.Stmt{&ast.Pass{}},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "if cond:\n    pass\nelse:\n    pass\n", string(out))
}

func TestEmitForWithElseSkippedWhenEmpty(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.For{
			Target: ast.StoreName("x"),
			Iter:   ast.CallOf(ast.LoadName("iter"), ast.LoadName("xs")),
			Body:   []ast.Stmt{&ast.Pass{}},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "for x in iter(xs):\n    pass\n", string(out))
}

func TestEmitTryExcept(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.Try{
			Body: []ast.Stmt{ast.AssignTo("x", ast.CallOf(ast.LoadName("f")))},
			Handler: &ast.ExceptHandler{
				ExcType: ast.AttrChain("rt", "CoordinatorCall"),
				Name:    "cc__",
				Body:    []ast.Stmt{&ast.Raise{}},
			},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "try:\n    x = f()\nexcept rt.CoordinatorCall as cc__:\n    raise\n", string(out))
}

func TestEmitClassDefWithMetaclassKeyword(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ClassDef{
			Name:     "Text",
			Keywords: []ast.Keyword{{Arg: "metaclass", Value: ast.AttrChain("rt", "TransformedClassMeta")}},
			Body:     []ast.Stmt{&ast.Pass{}},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "class Text(metaclass=rt.TransformedClassMeta):\n    pass\n", string(out))
}

func TestEmitStaticmethodDecorator(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ClassDef{
			Name: "Cont_f_0",
			Body: []ast.Stmt{
				&ast.FunctionDef{
					Name:       "run",
					Args:       []ast.Param{{Name: "result"}},
					Body:       []ast.Stmt{&ast.Return{Value: ast.LoadName("result")}},
					Decorators: []ast.Expr{ast.LoadName("staticmethod")},
				},
			},
		},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "class Cont_f_0:\n    @staticmethod\n    def run(result):\n        return result\n", string(out))
}

func TestEmitStrPrefersRawOverQuoted(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Str{S: "n = %d", Raw: `"n = %d"`}},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "\"n = %d\"\n", string(out))
}

func TestEmitStrFallsBackToQuotingWithoutRaw(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Str{S: "hi"}},
	}}

	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "\"hi\"\n", string(out))
}

func TestEmitBinOpParenthesized(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.BinOp{Left: ast.LoadName("n"), Op: "*", Right: ast.LoadName("m")}},
	}}
	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "(n * m)\n", string(out))
}

func TestEmitCallWithArgsAndKeywords(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Call{
			Func: ast.LoadName("f"),
			Args: []ast.Expr{ast.LoadName("a")},
			Keywords: []ast.Keyword{
				{Arg: "b", Value: &ast.Num{N: "2"}},
			},
		}},
	}}
	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "f(a, b=2)\n", string(out))
}

func TestEmitListComp(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.ListComp{
			Elt: ast.LoadName("y"),
			Generators: []ast.Comprehension{
				{Target: ast.StoreName("x"), Iter: ast.LoadName("it"), Ifs: []ast.Expr{ast.LoadName("cond")}},
			},
		}},
	}}
	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "[y for x in it if cond]\n", string(out))
}

func TestEmitSubscriptSlice(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Subscript{
			Value: ast.LoadName("xs"),
			Slice: &ast.SliceExpr{Lower: &ast.Num{N: "1"}, Upper: &ast.Num{N: "3"}},
		}},
	}}
	out, err := emit.New().Emit(mod)
	require.NoError(t, err)
	assert.Equal(t, "xs[1:3]\n", string(out))
}
