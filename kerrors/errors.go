// Package kerrors defines the single error kind the Kappa compiler's
// passes can raise: NodeError, the Go counterpart of
// compiler/transform/node_visitor.py's NodeNotSupportedError.
package kerrors

import (
	"fmt"

	"github.com/NetSys/kappa/ast"
)

// NodeError reports that a pass encountered an AST construct it does
// not transform (an async comprehension, a loop "else" clause, a class
// decorator, a nested function definition, a class nested in a class or
// function, a class definition with an explicit metaclass, a disallowed
// function decorator, an unsupported attribute/subscript context, or an
// unrecognized node kind). It carries the offending node so a caller
// can report exactly where the input program went outside what this
// compiler supports.
type NodeError struct {
	Node    ast.Node
	Message string
}

func (e *NodeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unsupported AST node"
	}
	return fmt.Sprintf("%s: %s", msg, ast.Dump(e.Node))
}

// NotSupported constructs a NodeError for node, carrying message as
// context for why the node was rejected.
func NotSupported(node ast.Node, message string) error {
	return &NodeError{Node: node, Message: message}
}
