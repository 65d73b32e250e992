package ast

// NameSet is a set of variable names.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from the given names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s NameSet) Add(name string) { s[name] = struct{}{} }

// Has reports whether name is a member.
func (s NameSet) Has(name string) bool { _, ok := s[name]; return ok }

// Clone returns an independent copy of the set.
func (s NameSet) Clone() NameSet {
	out := make(NameSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Union returns a new set containing every name in s or other.
func (s NameSet) Union(other NameSet) NameSet {
	out := s.Clone()
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// Minus returns a new set containing the names in s that are not in other.
func (s NameSet) Minus(other NameSet) NameSet {
	out := make(NameSet, len(s))
	for n := range s {
		if _, ok := other[n]; !ok {
			out[n] = struct{}{}
		}
	}
	return out
}

// Sorted returns the set's members in ascending order, for output that
// must be deterministic (e.g. a continuation's captured-variable list).
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	// Insertion sort is fine: capture lists are small (a handful of locals).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// VarsByUsage groups every Name occurrence reachable from a node by its
// ExprContext. It is the Go counterpart of the Python implementation's
// find_variables_by_usage (compiler/transform/util.py): the global-name
// gatherer, the liveness tracker, and the CPS transformer all use it to
// answer "what names does this node read/write/bind".
//
// Unlike a plain AST walk, passing a *FunctionDef also attributes its
// parameter names to the Param bucket (parameters aren't Name nodes in
// this model, so they need this explicit accounting) -- this mirrors
// find_variables_by_usage(func_def)[ast.Param] in gather_globals.py and cps.py.
func VarsByUsage(n Node) map[ExprContext]NameSet {
	buckets := map[ExprContext]NameSet{
		Load:  make(NameSet),
		Store: make(NameSet),
		Del:   make(NameSet),
		Param: make(NameSet),
	}
	collect(n, buckets)
	return buckets
}

// VarsByUsageStmts is VarsByUsage over a statement list.
func VarsByUsageStmts(stmts []Stmt) map[ExprContext]NameSet {
	buckets := map[ExprContext]NameSet{
		Load:  make(NameSet),
		Store: make(NameSet),
		Del:   make(NameSet),
		Param: make(NameSet),
	}
	for _, s := range stmts {
		collect(s, buckets)
	}
	return buckets
}

// ParamNames returns the names bound by a parameter list.
func ParamNames(params []Param) NameSet {
	out := make(NameSet, len(params))
	for _, p := range params {
		out.Add(p.Name)
	}
	return out
}

func collect(n Node, b map[ExprContext]NameSet) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *Module:
		for _, s := range v.Body {
			collect(s, b)
		}
	case *FunctionDef:
		for _, p := range v.Args {
			b[Param].Add(p.Name)
			collect(p.Default, b)
		}
		for _, s := range v.Body {
			collect(s, b)
		}
		for _, d := range v.Decorators {
			collect(d, b)
		}
	case *ClassDef:
		for _, e := range v.Bases {
			collect(e, b)
		}
		for _, kw := range v.Keywords {
			collect(kw.Value, b)
		}
		for _, s := range v.Body {
			collect(s, b)
		}
		for _, d := range v.Decorators {
			collect(d, b)
		}
	case *If:
		collect(v.Test, b)
		for _, s := range v.Body {
			collect(s, b)
		}
		for _, s := range v.Orelse {
			collect(s, b)
		}
	case *While:
		collect(v.Test, b)
		for _, s := range v.Body {
			collect(s, b)
		}
		for _, s := range v.Orelse {
			collect(s, b)
		}
	case *For:
		collect(v.Target, b)
		collect(v.Iter, b)
		for _, s := range v.Body {
			collect(s, b)
		}
		for _, s := range v.Orelse {
			collect(s, b)
		}
	case *Return:
		collect(v.Value, b)
	case *Break, *Continue, *Pass:
		// no names
	case *Import:
		for _, a := range v.Names {
			b[Store].Add(a.BoundName())
		}
	case *ImportFrom:
		for _, a := range v.Names {
			b[Store].Add(a.BoundName())
		}
	case *Assign:
		for _, t := range v.Targets {
			collect(t, b)
		}
		collect(v.Value, b)
	case *AugAssign:
		collect(v.Target, b)
		collect(v.Value, b)
	case *Assert:
		collect(v.Test, b)
		collect(v.Msg, b)
	case *ExprStmt:
		collect(v.Value, b)
	case *Name:
		b[v.Ctx].Add(v.Id)
	case *Num, *Str, *Bytes, *NameConstant:
		// no names
	case *Tuple:
		for _, e := range v.Elts {
			collect(e, b)
		}
	case *List:
		for _, e := range v.Elts {
			collect(e, b)
		}
	case *Dict:
		for _, k := range v.Keys {
			collect(k, b)
		}
		for _, val := range v.Values {
			collect(val, b)
		}
	case *Call:
		collect(v.Func, b)
		for _, a := range v.Args {
			collect(a, b)
		}
		for _, kw := range v.Keywords {
			collect(kw.Value, b)
		}
	case *Attribute:
		collect(v.Value, b)
	case *Subscript:
		collect(v.Value, b)
		collectSlice(v.Slice, b)
	case *UnaryOp:
		collect(v.Operand, b)
	case *BinOp:
		collect(v.Left, b)
		collect(v.Right, b)
	case *BoolOp:
		for _, e := range v.Values {
			collect(e, b)
		}
	case *Compare:
		collect(v.Left, b)
		for _, e := range v.Comparators {
			collect(e, b)
		}
	case *Starred:
		collect(v.Value, b)
	case *ListComp:
		collect(v.Elt, b)
		for _, g := range v.Generators {
			collect(g.Target, b)
			collect(g.Iter, b)
			for _, c := range g.Ifs {
				collect(c, b)
			}
		}
	default:
		panic("ast: collect: unhandled node type")
	}
}

func collectSlice(s Slice, b map[ExprContext]NameSet) {
	switch v := s.(type) {
	case nil:
	case *Index:
		collect(v.Value, b)
	case *SliceExpr:
		collect(v.Lower, b)
		collect(v.Upper, b)
		collect(v.Step, b)
	case *ExtSlice:
		for _, d := range v.Dims {
			collectSlice(d, b)
		}
	default:
		panic("ast: collectSlice: unhandled slice type")
	}
}
