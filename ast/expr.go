package ast

// Name references a variable. Ctx says whether this occurrence reads,
// writes, deletes, or binds (as a parameter) the name.
type Name struct {
	Id  string
	Ctx ExprContext
}

// Num is a numeric literal, stored as its source text so integer/float
// formatting is preserved byte-for-byte through serialization.
type Num struct {
	N string
}

// Str is a string literal; S is the literal's Go value (already
// unescaped) and Raw preserves the original quoting style for re-emission.
type Str struct {
	S   string
	Raw string
}

// Bytes is a bytes literal (b"...").
type Bytes struct {
	B   string
	Raw string
}

// NameConstant is one of True, False, or None.
type NameConstant struct {
	Value string // "True", "False", or "None"
}

// Tuple is a tuple literal or a tuple-shaped assignment target.
type Tuple struct {
	Elts []Expr
	Ctx  ExprContext
}

// List is a list literal or a list-shaped assignment target.
type List struct {
	Elts []Expr
	Ctx  ExprContext
}

// Dict is a dict literal. A nil entry in Keys at index i marks a
// "**value" dict-splat at that position (Values[i] is the splatted expr).
type Dict struct {
	Keys   []Expr
	Values []Expr
}

// Call invokes Func with positional Args and keyword Keywords. After
// flattening, Func and every element of Args/Keywords is an atom (Name
// or literal, optionally wrapped in Starred).
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Attribute accesses Value.Attr. Ctx follows the same Load/Store/Del
// convention as Name.
type Attribute struct {
	Value Expr
	Attr  string
	Ctx   ExprContext
}

// Subscript accesses Value[Slice]. Ctx follows Name's convention.
type Subscript struct {
	Value Expr
	Slice Slice
	Ctx   ExprContext
}

// UnaryOp applies a unary operator (including "not") to Operand.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
}

// Not is the logical-negation unary operator spelling used in UnaryOp.Op
// when the source operator is "not" rather than a numeric/bitwise unary op.
const Not UnaryOperator = "not"

// BinOp applies a binary arithmetic/bitwise operator.
type BinOp struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// BoolOp is a short-circuiting "and"/"or" chain over two or more values.
// It never survives flattening: the flattener desugars it into nested
// If statements before any BoolOp node can reach the CPS pass.
type BoolOp struct {
	Op     BoolOperator
	Values []Expr
}

// Compare is a (possibly chained) comparison: left Ops[0] Comparators[0]
// Ops[1] Comparators[1] ...
type Compare struct {
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

// Starred is a "*expr" used in a call's argument list or an assignment target.
type Starred struct {
	Value Expr
	Ctx   ExprContext
}

// ListComp is a list comprehension. It never survives flattening: the
// flattener desugars it into an empty-list literal assignment plus
// nested For/If statements before reaching the CPS pass.
type ListComp struct {
	Elt        Expr
	Generators []Comprehension
}

func (*Name) node()         {}
func (*Num) node()          {}
func (*Str) node()          {}
func (*Bytes) node()        {}
func (*NameConstant) node() {}
func (*Tuple) node()        {}
func (*List) node()         {}
func (*Dict) node()         {}
func (*Call) node()         {}
func (*Attribute) node()    {}
func (*Subscript) node()    {}
func (*UnaryOp) node()      {}
func (*BinOp) node()        {}
func (*BoolOp) node()       {}
func (*Compare) node()      {}
func (*Starred) node()      {}
func (*ListComp) node()     {}

func (*Name) exprNode()         {}
func (*Num) exprNode()          {}
func (*Str) exprNode()          {}
func (*Bytes) exprNode()        {}
func (*NameConstant) exprNode() {}
func (*Tuple) exprNode()        {}
func (*List) exprNode()         {}
func (*Dict) exprNode()         {}
func (*Call) exprNode()         {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*UnaryOp) exprNode()      {}
func (*BinOp) exprNode()        {}
func (*BoolOp) exprNode()       {}
func (*Compare) exprNode()      {}
func (*Starred) exprNode()      {}
func (*ListComp) exprNode()     {}
