package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/scope"
)

func TestGather(t *testing.T) {
	mod := &ast.Module{
		Body: []ast.Stmt{
			&ast.Import{Names: []ast.Alias{{Name: "rt"}}},
			&ast.ImportFrom{Module: "functools", Names: []ast.Alias{{Name: "reduce"}}},
			&ast.FunctionDef{Name: "factorial"},
			&ast.ClassDef{Name: "Text"},
			ast.AssignTo("CONFIG", &ast.Dict{}),
		},
	}

	names := scope.Gather(mod)

	for _, want := range []string{"rt", "reduce", "factorial", "Text", "CONFIG", "print", "len", "True"} {
		assert.True(t, names.Has(want), "expected %q in gathered globals", want)
	}
	assert.False(t, names.Has("not_declared_anywhere"))
}

func TestGatherExtraBuiltins(t *testing.T) {
	mod := &ast.Module{}
	names := scope.Gather(mod, "custom_builtin")
	assert.True(t, names.Has("custom_builtin"))
}

func TestGatherIgnoresNestedAssignments(t *testing.T) {
	mod := &ast.Module{
		Body: []ast.Stmt{
			&ast.FunctionDef{
				Name: "f",
				Body: []ast.Stmt{ast.AssignTo("local_only", &ast.Num{N: "1"})},
			},
		},
	}
	names := scope.Gather(mod)
	assert.False(t, names.Has("local_only"))
}
