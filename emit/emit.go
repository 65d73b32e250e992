// Package emit renders a *ast.Module back to source text. It plays the
// same role here that inspector/golang's and inspector/jsx's Emitter
// types play for their respective languages: a small struct with one
// Emit method that walks a graph/tree and accumulates output into a
// strings.Builder, rather than a full pretty-printer with layout
// algebra. Kappa's output doesn't need to round-trip comments or
// preserve the source's original formatting -- only to produce valid,
// readable source for whatever consumes the compiler's output next.
package emit

import (
	"fmt"
	"strings"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/kerrors"
)

const indentUnit = "    "

// Emitter serializes a transformed module to source text.
type Emitter struct{}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Emit renders mod as source text.
func (e *Emitter) Emit(mod *ast.Module) ([]byte, error) {
	b := &strings.Builder{}
	if err := e.writeStmts(b, mod.Body, 0); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func (e *Emitter) writeStmts(b *strings.Builder, stmts []ast.Stmt, depth int) error {
	if len(stmts) == 0 {
		e.writeLine(b, depth, "pass")
		return nil
	}
	for _, s := range stmts {
		if err := e.writeStmt(b, s, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) writeLine(b *strings.Builder, depth int, line string) {
	b.WriteString(strings.Repeat(indentUnit, depth))
	b.WriteString(line)
	b.WriteString("\n")
}

func (e *Emitter) writeStmt(b *strings.Builder, s ast.Stmt, depth int) error {
	switch n := s.(type) {
	case *ast.FunctionDef:
		for _, d := range n.Decorators {
			expr, err := e.expr(d)
			if err != nil {
				return err
			}
			e.writeLine(b, depth, "@"+expr)
		}
		params, err := e.params(n.Args)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("def %s(%s):", n.Name, params))
		return e.writeStmts(b, n.Body, depth+1)

	case *ast.ClassDef:
		for _, d := range n.Decorators {
			expr, err := e.expr(d)
			if err != nil {
				return err
			}
			e.writeLine(b, depth, "@"+expr)
		}
		bases, err := e.exprListForBases(n.Bases, n.Keywords)
		if err != nil {
			return err
		}
		header := n.Name
		if bases != "" {
			header = fmt.Sprintf("%s(%s)", n.Name, bases)
		}
		e.writeLine(b, depth, fmt.Sprintf("class %s:", header))
		return e.writeStmts(b, n.Body, depth+1)

	case *ast.If:
		test, err := e.expr(n.Test)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("if %s:", test))
		if err := e.writeStmts(b, n.Body, depth+1); err != nil {
			return err
		}
		if len(n.Orelse) > 0 {
			e.writeLine(b, depth, "else:")
			if err := e.writeStmts(b, n.Orelse, depth+1); err != nil {
				return err
			}
		}
		return nil

	case *ast.While:
		test, err := e.expr(n.Test)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("while %s:", test))
		if err := e.writeStmts(b, n.Body, depth+1); err != nil {
			return err
		}
		if len(n.Orelse) > 0 {
			e.writeLine(b, depth, "else:")
			return e.writeStmts(b, n.Orelse, depth+1)
		}
		return nil

	case *ast.For:
		target, err := e.expr(n.Target)
		if err != nil {
			return err
		}
		iter, err := e.expr(n.Iter)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("for %s in %s:", target, iter))
		if err := e.writeStmts(b, n.Body, depth+1); err != nil {
			return err
		}
		if len(n.Orelse) > 0 {
			e.writeLine(b, depth, "else:")
			return e.writeStmts(b, n.Orelse, depth+1)
		}
		return nil

	case *ast.Return:
		if n.Value == nil {
			e.writeLine(b, depth, "return")
			return nil
		}
		v, err := e.expr(n.Value)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, "return "+v)
		return nil

	case *ast.Break:
		e.writeLine(b, depth, "break")
		return nil

	case *ast.Continue:
		e.writeLine(b, depth, "continue")
		return nil

	case *ast.Pass:
		e.writeLine(b, depth, "pass")
		return nil

	case *ast.Raise:
		e.writeLine(b, depth, "raise")
		return nil

	case *ast.Import:
		names, err := e.aliasList(n.Names)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, "import "+names)
		return nil

	case *ast.ImportFrom:
		names, err := e.aliasList(n.Names)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("from %s%s import %s", strings.Repeat(".", n.Level), n.Module, names))
		return nil

	case *ast.Assign:
		targets := make([]string, len(n.Targets))
		for i, t := range n.Targets {
			s, err := e.expr(t)
			if err != nil {
				return err
			}
			targets[i] = s
		}
		v, err := e.expr(n.Value)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("%s = %s", strings.Join(targets, " = "), v))
		return nil

	case *ast.AugAssign:
		target, err := e.expr(n.Target)
		if err != nil {
			return err
		}
		v, err := e.expr(n.Value)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("%s %s= %s", target, string(n.Op), v))
		return nil

	case *ast.Assert:
		test, err := e.expr(n.Test)
		if err != nil {
			return err
		}
		if n.Msg == nil {
			e.writeLine(b, depth, "assert "+test)
			return nil
		}
		msg, err := e.expr(n.Msg)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, fmt.Sprintf("assert %s, %s", test, msg))
		return nil

	case *ast.ExprStmt:
		v, err := e.expr(n.Value)
		if err != nil {
			return err
		}
		e.writeLine(b, depth, v)
		return nil

	case *ast.Try:
		e.writeLine(b, depth, "try:")
		if err := e.writeStmts(b, n.Body, depth+1); err != nil {
			return err
		}
		h := n.Handler
		excType, err := e.expr(h.ExcType)
		if err != nil {
			return err
		}
		if h.Name != "" {
			e.writeLine(b, depth, fmt.Sprintf("except %s as %s:", excType, h.Name))
		} else {
			e.writeLine(b, depth, fmt.Sprintf("except %s:", excType))
		}
		return e.writeStmts(b, h.Body, depth+1)

	default:
		return kerrors.NotSupported(s, "emit: statement not supported")
	}
}

func (e *Emitter) params(params []ast.Param) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Default == nil {
			parts[i] = p.Name
			continue
		}
		d, err := e.expr(p.Default)
		if err != nil {
			return "", err
		}
		parts[i] = fmt.Sprintf("%s=%s", p.Name, d)
	}
	return strings.Join(parts, ", "), nil
}

func (e *Emitter) exprListForBases(bases []ast.Expr, keywords []ast.Keyword) (string, error) {
	parts := make([]string, 0, len(bases)+len(keywords))
	for _, b := range bases {
		s, err := e.expr(b)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	for _, kw := range keywords {
		s, err := e.keyword(kw)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

func (e *Emitter) keyword(kw ast.Keyword) (string, error) {
	v, err := e.expr(kw.Value)
	if err != nil {
		return "", err
	}
	if kw.Arg == "" {
		return "**" + v, nil
	}
	return fmt.Sprintf("%s=%s", kw.Arg, v), nil
}

func (e *Emitter) aliasList(names []ast.Alias) (string, error) {
	parts := make([]string, len(names))
	for i, a := range names {
		if a.AsName != "" {
			parts[i] = fmt.Sprintf("%s as %s", a.Name, a.AsName)
		} else {
			parts[i] = a.Name
		}
	}
	return strings.Join(parts, ", "), nil
}

func (e *Emitter) exprList(exprs []ast.Expr) (string, error) {
	parts := make([]string, len(exprs))
	for i, x := range exprs {
		s, err := e.expr(x)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (e *Emitter) expr(x ast.Expr) (string, error) {
	switch n := x.(type) {
	case *ast.Name:
		return n.Id, nil

	case *ast.Num:
		return n.N, nil

	case *ast.Str:
		if n.Raw != "" {
			return n.Raw, nil
		}
		return fmt.Sprintf("%q", n.S), nil

	case *ast.Bytes:
		if n.Raw != "" {
			return n.Raw, nil
		}
		return fmt.Sprintf("b%q", n.B), nil

	case *ast.NameConstant:
		return n.Value, nil

	case *ast.Tuple:
		elts, err := e.exprList(n.Elts)
		if err != nil {
			return "", err
		}
		if len(n.Elts) == 1 {
			return "(" + elts + ",)", nil
		}
		return "(" + elts + ")", nil

	case *ast.List:
		elts, err := e.exprList(n.Elts)
		if err != nil {
			return "", err
		}
		return "[" + elts + "]", nil

	case *ast.Dict:
		parts := make([]string, len(n.Keys))
		for i := range n.Keys {
			v, err := e.expr(n.Values[i])
			if err != nil {
				return "", err
			}
			if n.Keys[i] == nil {
				parts[i] = "**" + v
				continue
			}
			k, err := e.expr(n.Keys[i])
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%s: %s", k, v)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil

	case *ast.Call:
		fn, err := e.expr(n.Func)
		if err != nil {
			return "", err
		}
		args, err := e.exprList(n.Args)
		if err != nil {
			return "", err
		}
		parts := []string{}
		if args != "" {
			parts = append(parts, args)
		}
		for _, kw := range n.Keywords {
			s, err := e.keyword(kw)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return fmt.Sprintf("%s(%s)", fn, strings.Join(parts, ", ")), nil

	case *ast.Attribute:
		v, err := e.expr(n.Value)
		if err != nil {
			return "", err
		}
		return v + "." + n.Attr, nil

	case *ast.Subscript:
		v, err := e.expr(n.Value)
		if err != nil {
			return "", err
		}
		s, err := e.slice(n.Slice)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", v, s), nil

	case *ast.UnaryOp:
		operand, err := e.expr(n.Operand)
		if err != nil {
			return "", err
		}
		if n.Op == ast.Not {
			return "not " + operand, nil
		}
		return string(n.Op) + operand, nil

	case *ast.BinOp:
		left, err := e.expr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := e.expr(n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, string(n.Op), right), nil

	case *ast.BoolOp:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			s, err := e.expr(v)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, fmt.Sprintf(" %s ", string(n.Op))) + ")", nil

	case *ast.Compare:
		left, err := e.expr(n.Left)
		if err != nil {
			return "", err
		}
		b := &strings.Builder{}
		b.WriteString(left)
		for i, op := range n.Ops {
			c, err := e.expr(n.Comparators[i])
			if err != nil {
				return "", err
			}
			fmt.Fprintf(b, " %s %s", string(op), c)
		}
		return b.String(), nil

	case *ast.Starred:
		v, err := e.expr(n.Value)
		if err != nil {
			return "", err
		}
		return "*" + v, nil

	case *ast.ListComp:
		elt, err := e.expr(n.Elt)
		if err != nil {
			return "", err
		}
		b := &strings.Builder{}
		b.WriteString("[")
		b.WriteString(elt)
		for _, g := range n.Generators {
			target, err := e.expr(g.Target)
			if err != nil {
				return "", err
			}
			iter, err := e.expr(g.Iter)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(b, " for %s in %s", target, iter)
			for _, cond := range g.Ifs {
				c, err := e.expr(cond)
				if err != nil {
					return "", err
				}
				fmt.Fprintf(b, " if %s", c)
			}
		}
		b.WriteString("]")
		return b.String(), nil

	default:
		return "", kerrors.NotSupported(x, "emit: expression not supported")
	}
}

func (e *Emitter) slice(s ast.Slice) (string, error) {
	switch n := s.(type) {
	case *ast.Index:
		return e.expr(n.Value)

	case *ast.SliceExpr:
		var lower, upper, step string
		var err error
		if n.Lower != nil {
			if lower, err = e.expr(n.Lower); err != nil {
				return "", err
			}
		}
		if n.Upper != nil {
			if upper, err = e.expr(n.Upper); err != nil {
				return "", err
			}
		}
		if n.Step != nil {
			if step, err = e.expr(n.Step); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s:%s:%s", lower, upper, step), nil
		}
		return fmt.Sprintf("%s:%s", lower, upper), nil

	case *ast.ExtSlice:
		parts := make([]string, len(n.Dims))
		for i, d := range n.Dims {
			s, err := e.slice(d)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil

	default:
		return "", kerrors.NotSupported(nil, "emit: slice not supported")
	}
}
