// Package parsing lowers source text into a *ast.Module using
// github.com/smacker/go-tree-sitter and its python grammar binding,
// the same parser family the retrieved corpus's own
// inspector/golang.TreeSitterInspector uses for Go: a sitter.Parser
// configured with a language, producing a concrete syntax tree that
// gets walked field-by-field (node.ChildByFieldName) rather than
// matched token-by-token.
//
// Unlike TreeSitterInspector, which keeps the tree-sitter node alongside
// extracted metadata for later raw-text extraction, this package fully
// lowers the tree into the ast package's own node types up front: every
// later pass (ignore, scope, flatten, autopause, liveness, cps, emit)
// only ever sees ast.Node, never a *sitter.Node.
package parsing

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/kerrors"
)

// Parser parses Kappa source text into the compiler's AST.
type Parser struct{}

// New returns a ready-to-use Parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses src into a *ast.Module.
func (p *Parser) Parse(src []byte) (*ast.Module, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	l := &lowerer{src: src}
	root := tree.RootNode()

	var body []ast.Stmt
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmts, err := l.stmt(root.NamedChild(i))
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return &ast.Module{Body: body}, nil
}

// lowerer carries the source buffer every sitter.Node.Content call needs.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

// stmt lowers one top-level CST node into zero or more ast.Stmt. It
// returns a slice (rather than a single Stmt) because a
// decorated_definition's decorator list is most naturally folded into
// the wrapped def itself, and because an expression_statement can
// contain a bare docstring that, after lowering, is just a single
// ExprStmt (still one element, but kept as a slice for uniformity).
func (l *lowerer) stmt(n *sitter.Node) ([]ast.Stmt, error) {
	switch n.Type() {
	case "function_definition":
		s, err := l.functionDef(n, nil)
		return []ast.Stmt{s}, err

	case "class_definition":
		s, err := l.classDef(n, nil)
		return []ast.Stmt{s}, err

	case "decorated_definition":
		var decorators []ast.Expr
		var def *sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "decorator":
				expr, err := l.expr(child.NamedChild(0))
				if err != nil {
					return nil, err
				}
				decorators = append(decorators, expr)
			case "function_definition":
				def = child
			case "class_definition":
				def = child
			}
		}
		if def == nil {
			return nil, kerrors.NotSupported(nil, "parsing: decorated_definition without a def")
		}
		var s ast.Stmt
		var err error
		if def.Type() == "function_definition" {
			s, err = l.functionDef(def, decorators)
		} else {
			s, err = l.classDef(def, decorators)
		}
		return []ast.Stmt{s}, err

	case "if_statement":
		s, err := l.ifStmt(n)
		return []ast.Stmt{s}, err

	case "while_statement":
		s, err := l.whileStmt(n)
		return []ast.Stmt{s}, err

	case "for_statement":
		s, err := l.forStmt(n)
		return []ast.Stmt{s}, err

	case "return_statement":
		var value ast.Expr
		if n.NamedChildCount() > 0 {
			v, err := l.expr(n.NamedChild(0))
			if err != nil {
				return nil, err
			}
			value = v
		}
		return []ast.Stmt{&ast.Return{Value: value}}, nil

	case "break_statement":
		return []ast.Stmt{&ast.Break{}}, nil

	case "continue_statement":
		return []ast.Stmt{&ast.Continue{}}, nil

	case "pass_statement":
		return []ast.Stmt{&ast.Pass{}}, nil

	case "import_statement":
		names, err := l.aliasList(n)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Import{Names: names}}, nil

	case "import_from_statement":
		s, err := l.importFrom(n)
		return []ast.Stmt{s}, err

	case "assert_statement":
		test, err := l.expr(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		var msg ast.Expr
		if n.NamedChildCount() > 1 {
			m, err := l.expr(n.NamedChild(1))
			if err != nil {
				return nil, err
			}
			msg = m
		}
		return []ast.Stmt{&ast.Assert{Test: test, Msg: msg}}, nil

	case "expression_statement":
		return l.expressionStatement(n)

	case "comment":
		// Comments carry no semantics and are dropped.
		return nil, nil

	default:
		return nil, kerrors.NotSupported(nil, fmt.Sprintf("parsing: unsupported statement kind %q", n.Type()))
	}
}

func (l *lowerer) stmtList(n *sitter.Node) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		stmts, err := l.stmt(n.NamedChild(i))
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (l *lowerer) expressionStatement(n *sitter.Node) ([]ast.Stmt, error) {
	inner := n.NamedChild(0)
	switch inner.Type() {
	case "assignment":
		s, err := l.assignment(inner)
		return []ast.Stmt{s}, err
	case "augmented_assignment":
		s, err := l.augAssignment(inner)
		return []ast.Stmt{s}, err
	default:
		v, err := l.expr(inner)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.ExprStmt{Value: v}}, nil
	}
}

func (l *lowerer) assignment(n *sitter.Node) (ast.Stmt, error) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil, kerrors.NotSupported(nil, "parsing: malformed assignment")
	}
	target, err := l.exprCtx(left, ast.Store)
	if err != nil {
		return nil, err
	}
	value, err := l.expr(right)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Targets: []ast.Expr{target}, Value: value}, nil
}

func (l *lowerer) augAssignment(n *sitter.Node) (ast.Stmt, error) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil, kerrors.NotSupported(nil, "parsing: malformed augmented assignment")
	}
	target, err := l.exprCtx(left, ast.Store)
	if err != nil {
		return nil, err
	}
	value, err := l.expr(right)
	if err != nil {
		return nil, err
	}
	op := l.augOperator(n)
	return &ast.AugAssign{Target: target, Op: op, Value: value}, nil
}

// augOperator recovers the operator spelling ("+=", "-=", ...) of an
// augmented_assignment node by scanning its anonymous token children,
// since the grammar doesn't surface it as a named field.
func (l *lowerer) augOperator(n *sitter.Node) ast.Operator {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		text := l.text(c)
		if strings.HasSuffix(text, "=") && text != "=" {
			return ast.Operator(strings.TrimSuffix(text, "="))
		}
	}
	return ast.Operator("+")
}

func (l *lowerer) aliasList(n *sitter.Node) ([]ast.Alias, error) {
	var out []ast.Alias
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name", "identifier":
			out = append(out, ast.Alias{Name: l.text(child)})
		case "aliased_import":
			name := l.text(child.NamedChild(0))
			as := l.text(child.NamedChild(1))
			out = append(out, ast.Alias{Name: name, AsName: as})
		case "wildcard_import":
			out = append(out, ast.Alias{Name: "*"})
		}
	}
	return out, nil
}

func (l *lowerer) importFrom(n *sitter.Node) (ast.Stmt, error) {
	moduleNode := n.ChildByFieldName("module_name")
	module := ""
	if moduleNode != nil {
		module = l.text(moduleNode)
	}
	trimmed := strings.TrimLeft(module, ".")
	level := len(module) - len(trimmed)
	module = trimmed
	names, err := l.aliasList(n)
	if err != nil {
		return nil, err
	}
	// A dotted module name is itself a named child, so aliasList
	// collects it first, ahead of the imported names.
	if moduleNode != nil && moduleNode.Type() == "dotted_name" && len(names) > 0 {
		names = names[1:]
	}
	return &ast.ImportFrom{Module: module, Names: names, Level: level}, nil
}

func (l *lowerer) functionDef(n *sitter.Node, decorators []ast.Expr) (ast.Stmt, error) {
	name := l.text(n.ChildByFieldName("name"))
	paramsNode := n.ChildByFieldName("parameters")
	params, err := l.params(paramsNode)
	if err != nil {
		return nil, err
	}
	body, err := l.stmtList(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Name: name, Args: params, Body: body, Decorators: decorators}, nil
}

func (l *lowerer) params(n *sitter.Node) ([]ast.Param, error) {
	if n == nil {
		return nil, nil
	}
	var out []ast.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "identifier":
			out = append(out, ast.Param{Name: l.text(child)})
		case "default_parameter", "typed_default_parameter":
			nameNode := child.ChildByFieldName("name")
			valueNode := child.ChildByFieldName("value")
			def, err := l.expr(valueNode)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.Param{Name: l.text(nameNode), Default: def})
		case "typed_parameter":
			out = append(out, ast.Param{Name: l.text(child.NamedChild(0))})
		default:
			// *args, **kwargs, and bare "/" or "*" separators aren't
			// part of this compiler's parameter model; skip them.
		}
	}
	return out, nil
}

func (l *lowerer) classDef(n *sitter.Node, decorators []ast.Expr) (ast.Stmt, error) {
	name := l.text(n.ChildByFieldName("name"))
	var bases []ast.Expr
	var keywords []ast.Keyword
	if argList := n.ChildByFieldName("superclasses"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			arg := argList.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				kw, err := l.keywordArg(arg)
				if err != nil {
					return nil, err
				}
				keywords = append(keywords, kw)
				continue
			}
			e, err := l.expr(arg)
			if err != nil {
				return nil, err
			}
			bases = append(bases, e)
		}
	}
	body, err := l.stmtList(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &ast.ClassDef{Name: name, Bases: bases, Keywords: keywords, Body: body, Decorators: decorators}, nil
}

func (l *lowerer) ifStmt(n *sitter.Node) (ast.Stmt, error) {
	test, err := l.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	body, err := l.stmtList(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	var orelse []ast.Stmt
	alt := n.ChildByFieldName("alternative")
	if alt != nil {
		orelse, err = l.alternative(alt)
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Test: test, Body: body, Orelse: orelse}, nil
}

// alternative lowers an elif_clause or else_clause into a statement
// list, desugaring "elif" into a single nested If (see ast.If's doc).
func (l *lowerer) alternative(n *sitter.Node) ([]ast.Stmt, error) {
	switch n.Type() {
	case "elif_clause":
		s, err := l.ifStmt(n)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{s}, nil
	case "else_clause":
		return l.stmtList(n.ChildByFieldName("body"))
	default:
		return l.stmtList(n)
	}
}

func (l *lowerer) whileStmt(n *sitter.Node) (ast.Stmt, error) {
	test, err := l.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	body, err := l.stmtList(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	var orelse []ast.Stmt
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		orelse, err = l.stmtList(alt.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
	}
	return &ast.While{Test: test, Body: body, Orelse: orelse}, nil
}

func (l *lowerer) forStmt(n *sitter.Node) (ast.Stmt, error) {
	target, err := l.exprCtx(n.ChildByFieldName("left"), ast.Store)
	if err != nil {
		return nil, err
	}
	iter, err := l.expr(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	body, err := l.stmtList(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	var orelse []ast.Stmt
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		orelse, err = l.stmtList(alt.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
	}
	return &ast.For{Target: target, Iter: iter, Body: body, Orelse: orelse}, nil
}

func (l *lowerer) keywordArg(n *sitter.Node) (ast.Keyword, error) {
	name := l.text(n.ChildByFieldName("name"))
	value, err := l.expr(n.ChildByFieldName("value"))
	if err != nil {
		return ast.Keyword{}, err
	}
	return ast.Keyword{Arg: name, Value: value}, nil
}

// expr lowers an expression node in Load context.
func (l *lowerer) expr(n *sitter.Node) (ast.Expr, error) {
	return l.exprCtx(n, ast.Load)
}

// exprCtx lowers an expression node, tagging any Name/Attribute/
// Subscript/Tuple/List it produces with ctx -- Store for assignment and
// loop targets, Load everywhere else.
func (l *lowerer) exprCtx(n *sitter.Node, ctx ast.ExprContext) (ast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type() {
	case "identifier":
		return &ast.Name{Id: l.text(n), Ctx: ctx}, nil

	case "integer", "float":
		return &ast.Num{N: l.text(n)}, nil

	case "true":
		return &ast.NameConstant{Value: "True"}, nil
	case "false":
		return &ast.NameConstant{Value: "False"}, nil
	case "none":
		return &ast.NameConstant{Value: "None"}, nil

	case "string":
		raw := l.text(n)
		return &ast.Str{S: stripPyStringQuotes(raw), Raw: raw}, nil

	case "parenthesized_expression":
		return l.exprCtx(n.NamedChild(0), ctx)

	case "tuple":
		elts, err := l.exprListCtx(n, ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Tuple{Elts: elts, Ctx: ctx}, nil

	case "list":
		elts, err := l.exprListCtx(n, ctx)
		if err != nil {
			return nil, err
		}
		return &ast.List{Elts: elts, Ctx: ctx}, nil

	case "dictionary":
		return l.dict(n)

	case "call":
		return l.call(n)

	case "attribute":
		value, err := l.expr(n.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		attr := l.text(n.ChildByFieldName("attribute"))
		return &ast.Attribute{Value: value, Attr: attr, Ctx: ctx}, nil

	case "subscript":
		value, err := l.expr(n.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		sl, err := l.slice(n)
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{Value: value, Slice: sl, Ctx: ctx}, nil

	case "unary_operator":
		operand, err := l.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		op := l.text(n.Child(0))
		return &ast.UnaryOp{Op: ast.UnaryOperator(op), Operand: operand}, nil

	case "not_operator":
		operand, err := l.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.Not, Operand: operand}, nil

	case "binary_operator":
		left, err := l.expr(n.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		right, err := l.expr(n.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		op := l.text(n.ChildByFieldName("operator"))
		if op == "" {
			op = l.binOperatorFallback(n)
		}
		return &ast.BinOp{Left: left, Op: ast.Operator(op), Right: right}, nil

	case "boolean_operator":
		left, err := l.expr(n.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		right, err := l.expr(n.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		op := ast.And
		if strings.Contains(l.text(n), " or ") {
			op = ast.Or
		}
		return &ast.BoolOp{Op: op, Values: []ast.Expr{left, right}}, nil

	case "comparison_operator":
		left, err := l.expr(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		var ops []ast.CmpOp
		var comparators []ast.Expr
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.IsNamed() || i == 0 {
				continue
			}
			ops = append(ops, ast.CmpOp(l.text(c)))
		}
		for i := 1; i < int(n.NamedChildCount()); i++ {
			e, err := l.expr(n.NamedChild(i))
			if err != nil {
				return nil, err
			}
			comparators = append(comparators, e)
		}
		return &ast.Compare{Left: left, Ops: ops, Comparators: comparators}, nil

	case "list_splat":
		value, err := l.expr(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return &ast.Starred{Value: value, Ctx: ctx}, nil

	case "list_comprehension":
		return l.listComp(n)

	default:
		return nil, kerrors.NotSupported(nil, fmt.Sprintf("parsing: unsupported expression kind %q", n.Type()))
	}
}

// binOperatorFallback recovers a binary operator's spelling by scanning
// anonymous children when the grammar doesn't expose an "operator" field.
func (l *lowerer) binOperatorFallback(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			return l.text(c)
		}
	}
	return "+"
}

func (l *lowerer) exprListCtx(n *sitter.Node, ctx ast.ExprContext) ([]ast.Expr, error) {
	var out []ast.Expr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		e, err := l.exprCtx(n.NamedChild(i), ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *lowerer) dict(n *sitter.Node) (ast.Expr, error) {
	var keys, values []ast.Expr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "pair":
			k, err := l.expr(child.ChildByFieldName("key"))
			if err != nil {
				return nil, err
			}
			v, err := l.expr(child.ChildByFieldName("value"))
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			values = append(values, v)
		case "dictionary_splat":
			v, err := l.expr(child.NamedChild(0))
			if err != nil {
				return nil, err
			}
			keys = append(keys, nil)
			values = append(values, v)
		}
	}
	return &ast.Dict{Keys: keys, Values: values}, nil
}

func (l *lowerer) call(n *sitter.Node) (ast.Expr, error) {
	fn, err := l.expr(n.ChildByFieldName("function"))
	if err != nil {
		return nil, err
	}
	argsNode := n.ChildByFieldName("arguments")
	var args []ast.Expr
	var keywords []ast.Keyword
	if argsNode != nil {
		for i := 0; i < int(argsNode.NamedChildCount()); i++ {
			arg := argsNode.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				kw, err := l.keywordArg(arg)
				if err != nil {
					return nil, err
				}
				keywords = append(keywords, kw)
				continue
			}
			e, err := l.expr(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
	}
	return &ast.Call{Func: fn, Args: args, Keywords: keywords}, nil
}

func (l *lowerer) slice(n *sitter.Node) (ast.Slice, error) {
	sub := n.ChildByFieldName("subscript")
	if sub == nil && n.NamedChildCount() > 1 {
		sub = n.NamedChild(1)
	}
	if sub == nil {
		return nil, kerrors.NotSupported(nil, "parsing: malformed subscript")
	}
	if sub.Type() != "slice" {
		v, err := l.expr(sub)
		if err != nil {
			return nil, err
		}
		return &ast.Index{Value: v}, nil
	}

	var lower, upper, step ast.Expr
	fields := []string{"start", "stop", "step"}
	exprs := make([]ast.Expr, 3)
	for i, f := range fields {
		if fn := sub.ChildByFieldName(f); fn != nil {
			e, err := l.expr(fn)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
	}
	lower, upper, step = exprs[0], exprs[1], exprs[2]
	return &ast.SliceExpr{Lower: lower, Upper: upper, Step: step}, nil
}

func (l *lowerer) listComp(n *sitter.Node) (ast.Expr, error) {
	elt, err := l.expr(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	var gens []ast.Comprehension
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		switch clause.Type() {
		case "for_in_clause":
			target, err := l.exprCtx(clause.ChildByFieldName("left"), ast.Store)
			if err != nil {
				return nil, err
			}
			iter, err := l.expr(clause.ChildByFieldName("right"))
			if err != nil {
				return nil, err
			}
			gens = append(gens, ast.Comprehension{Target: target, Iter: iter})
		case "if_clause":
			if len(gens) == 0 {
				continue
			}
			cond, err := l.expr(clause.NamedChild(0))
			if err != nil {
				return nil, err
			}
			gens[len(gens)-1].Ifs = append(gens[len(gens)-1].Ifs, cond)
		}
	}
	return &ast.ListComp{Elt: elt, Generators: gens}, nil
}

// stripPyStringQuotes removes a Python string literal's surrounding
// quotes (and any prefix like "f" or "r") so ast.Str.S holds a plain
// value; this is a best-effort unescape, not a full string-literal
// grammar -- it doesn't interpret backslash escapes, since the emitter
// always prefers Str.Raw when re-serializing.
func stripPyStringQuotes(raw string) string {
	s := raw
	for len(s) > 0 && (s[0] == 'r' || s[0] == 'b' || s[0] == 'f' || s[0] == 'R' || s[0] == 'B' || s[0] == 'F') {
		s = s[1:]
	}
	if strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, "'''") {
		return strings.TrimSuffix(strings.TrimPrefix(s, s[:3]), s[:3])
	}
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
