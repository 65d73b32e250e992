package ast

import "fmt"

// Dump renders a compact, human-readable description of a node for use
// in diagnostics -- the Go counterpart of Python's ast.dump(), used by
// NodeNotSupportedError in the original compiler to describe the
// offending node.
func Dump(n Node) string {
	if n == nil {
		return "<nil>"
	}
	switch v := n.(type) {
	case *FunctionDef:
		return fmt.Sprintf("FunctionDef(name=%q)", v.Name)
	case *ClassDef:
		return fmt.Sprintf("ClassDef(name=%q)", v.Name)
	case *Name:
		return fmt.Sprintf("Name(id=%q, ctx=%s)", v.Id, v.Ctx)
	case *Attribute:
		return fmt.Sprintf("Attribute(attr=%q, ctx=%s)", v.Attr, v.Ctx)
	case *Subscript:
		return fmt.Sprintf("Subscript(ctx=%s)", v.Ctx)
	default:
		return fmt.Sprintf("%T", n)
	}
}
