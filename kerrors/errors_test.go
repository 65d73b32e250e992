package kerrors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/kerrors"
)

func TestNotSupportedCarriesNodeAndMessage(t *testing.T) {
	node := &ast.Name{Id: "x", Ctx: ast.Load}
	err := kerrors.NotSupported(node, "attribute context not supported")

	var nodeErr *kerrors.NodeError
	assert.ErrorAs(t, err, &nodeErr)
	assert.Same(t, node, nodeErr.Node)
	assert.Contains(t, err.Error(), "attribute context not supported")
	assert.Contains(t, err.Error(), `Name(id="x", ctx=Load)`)
}

func TestNotSupportedDefaultMessage(t *testing.T) {
	err := &kerrors.NodeError{Node: &ast.Pass{}}
	assert.Contains(t, err.Error(), "unsupported AST node")
}

func TestNotSupportedWraps(t *testing.T) {
	err := fmt.Errorf("flatten: %w", kerrors.NotSupported(&ast.Pass{}, "boom"))

	var nodeErr *kerrors.NodeError
	assert.ErrorAs(t, err, &nodeErr)
	assert.ErrorContains(t, err, "boom")
}
