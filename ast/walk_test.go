package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NetSys/kappa/ast"
)

func TestVarsByUsage(t *testing.T) {
	tests := []struct {
		name          string
		node          ast.Node
		expectedLoad  []string
		expectedStore []string
	}{
		{
			name: "simple assignment",
			node: ast.AssignTo("x", ast.LoadName("y")),
			expectedLoad: []string{"y"},
			expectedStore: []string{"x"},
		},
		{
			name: "function def attributes params",
			node: &ast.FunctionDef{
				Name: "f",
				Args: []ast.Param{{Name: "a"}, {Name: "b", Default: ast.LoadName("c")}},
				Body: []ast.Stmt{ast.AssignTo("d", ast.LoadName("a"))},
			},
			expectedLoad:  []string{"a", "c"},
			expectedStore: []string{"d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := ast.VarsByUsage(tt.node)
			assert.ElementsMatch(t, tt.expectedLoad, vars[ast.Load].Sorted())
			assert.ElementsMatch(t, tt.expectedStore, vars[ast.Store].Sorted())
		})
	}
}

func TestNameSetOps(t *testing.T) {
	a := ast.NewNameSet("x", "y")
	b := ast.NewNameSet("y", "z")

	assert.ElementsMatch(t, []string{"x", "y", "z"}, a.Union(b).Sorted())
	assert.ElementsMatch(t, []string{"x"}, a.Minus(b).Sorted())
	assert.True(t, a.Has("x"))
	assert.False(t, a.Has("z"))

	clone := a.Clone()
	clone.Add("q")
	assert.False(t, a.Has("q"), "Clone must not alias the original set")
}

func TestParamNames(t *testing.T) {
	params := []ast.Param{{Name: "n"}, {Name: "opt", Default: &ast.Num{N: "1"}}}
	assert.ElementsMatch(t, []string{"n", "opt"}, ast.ParamNames(params).Sorted())
}
