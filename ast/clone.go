package ast

// CloneStmt returns a deep, structural copy of a statement. Passes use
// this (rather than mutating in place) wherever the spec's lifecycle
// rule requires a pass to "return a structurally cloned tree with the
// requested edits". The CPS transformer does the same for a loop's
// header with CloneExpr, building a new loop node around its transformed
// body (see cps.Transformer).
func CloneStmt(s Stmt) Stmt {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *FunctionDef:
		return &FunctionDef{Name: n.Name, Args: cloneParams(n.Args), Body: CloneStmts(n.Body), Decorators: CloneExprs(n.Decorators)}
	case *ClassDef:
		return &ClassDef{Name: n.Name, Bases: CloneExprs(n.Bases), Keywords: cloneKeywords(n.Keywords), Body: CloneStmts(n.Body), Decorators: CloneExprs(n.Decorators)}
	case *If:
		return &If{Test: CloneExpr(n.Test), Body: CloneStmts(n.Body), Orelse: CloneStmts(n.Orelse)}
	case *While:
		return &While{Test: CloneExpr(n.Test), Body: CloneStmts(n.Body), Orelse: CloneStmts(n.Orelse)}
	case *For:
		return &For{Target: CloneExpr(n.Target), Iter: CloneExpr(n.Iter), Body: CloneStmts(n.Body), Orelse: CloneStmts(n.Orelse)}
	case *Return:
		return &Return{Value: CloneExpr(n.Value)}
	case *Break:
		return &Break{}
	case *Continue:
		return &Continue{}
	case *Pass:
		return &Pass{}
	case *Import:
		return &Import{Names: append([]Alias(nil), n.Names...)}
	case *ImportFrom:
		return &ImportFrom{Module: n.Module, Names: append([]Alias(nil), n.Names...), Level: n.Level}
	case *Assign:
		return &Assign{Targets: CloneExprs(n.Targets), Value: CloneExpr(n.Value)}
	case *AugAssign:
		return &AugAssign{Target: CloneExpr(n.Target), Op: n.Op, Value: CloneExpr(n.Value)}
	case *Assert:
		return &Assert{Test: CloneExpr(n.Test), Msg: CloneExpr(n.Msg)}
	case *ExprStmt:
		return &ExprStmt{Value: CloneExpr(n.Value)}
	default:
		panic("ast: CloneStmt: unhandled statement type")
	}
}

// CloneStmts clones each element of a statement list.
func CloneStmts(stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}
	out := make([]Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneExpr returns a deep copy of an expression, or nil if e is nil
// (callers rely on this to clone optional fields like Return.Value).
func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Name:
		return &Name{Id: n.Id, Ctx: n.Ctx}
	case *Num:
		return &Num{N: n.N}
	case *Str:
		return &Str{S: n.S, Raw: n.Raw}
	case *Bytes:
		return &Bytes{B: n.B, Raw: n.Raw}
	case *NameConstant:
		return &NameConstant{Value: n.Value}
	case *Tuple:
		return &Tuple{Elts: CloneExprs(n.Elts), Ctx: n.Ctx}
	case *List:
		return &List{Elts: CloneExprs(n.Elts), Ctx: n.Ctx}
	case *Dict:
		return &Dict{Keys: CloneExprs(n.Keys), Values: CloneExprs(n.Values)}
	case *Call:
		return &Call{Func: CloneExpr(n.Func), Args: CloneExprs(n.Args), Keywords: cloneKeywords(n.Keywords)}
	case *Attribute:
		return &Attribute{Value: CloneExpr(n.Value), Attr: n.Attr, Ctx: n.Ctx}
	case *Subscript:
		return &Subscript{Value: CloneExpr(n.Value), Slice: CloneSlice(n.Slice), Ctx: n.Ctx}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, Operand: CloneExpr(n.Operand)}
	case *BinOp:
		return &BinOp{Left: CloneExpr(n.Left), Op: n.Op, Right: CloneExpr(n.Right)}
	case *BoolOp:
		return &BoolOp{Op: n.Op, Values: CloneExprs(n.Values)}
	case *Compare:
		return &Compare{Left: CloneExpr(n.Left), Ops: append([]CmpOp(nil), n.Ops...), Comparators: CloneExprs(n.Comparators)}
	case *Starred:
		return &Starred{Value: CloneExpr(n.Value), Ctx: n.Ctx}
	case *ListComp:
		gens := make([]Comprehension, len(n.Generators))
		for i, g := range n.Generators {
			gens[i] = Comprehension{Target: CloneExpr(g.Target), Iter: CloneExpr(g.Iter), Ifs: CloneExprs(g.Ifs), IsAsync: g.IsAsync}
		}
		return &ListComp{Elt: CloneExpr(n.Elt), Generators: gens}
	default:
		panic("ast: CloneExpr: unhandled expression type")
	}
}

// CloneExprs clones each element of an expression list, preserving nils
// (used for Dict.Keys, where a nil key marks a **-splat entry).
func CloneExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = CloneExpr(e)
	}
	return out
}

// CloneSlice returns a deep copy of a subscript slice.
func CloneSlice(s Slice) Slice {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *Index:
		return &Index{Value: CloneExpr(n.Value)}
	case *SliceExpr:
		return &SliceExpr{Lower: CloneExpr(n.Lower), Upper: CloneExpr(n.Upper), Step: CloneExpr(n.Step)}
	case *ExtSlice:
		dims := make([]Slice, len(n.Dims))
		for i, d := range n.Dims {
			dims[i] = CloneSlice(d)
		}
		return &ExtSlice{Dims: dims}
	default:
		panic("ast: CloneSlice: unhandled slice type")
	}
}

func cloneKeywords(kws []Keyword) []Keyword {
	if kws == nil {
		return nil
	}
	out := make([]Keyword, len(kws))
	for i, kw := range kws {
		out[i] = Keyword{Arg: kw.Arg, Value: CloneExpr(kw.Value)}
	}
	return out
}

func cloneParams(params []Param) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = Param{Name: p.Name, Default: CloneExpr(p.Default)}
	}
	return out
}
