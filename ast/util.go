package ast

// LoadName returns a Name node that reads the variable id.
func LoadName(id string) *Name {
	return &Name{Id: id, Ctx: Load}
}

// StoreName returns a Name node that binds the variable id.
func StoreName(id string) *Name {
	return &Name{Id: id, Ctx: Store}
}

// AssignTo returns an Assign node that stores value into the single
// target id, mirroring the Python implementation's util.assign helper.
func AssignTo(id string, value Expr) *Assign {
	return &Assign{Targets: []Expr{StoreName(id)}, Value: value}
}

// CallOf builds a simple Call with only positional atoms as arguments.
func CallOf(fn Expr, args ...Expr) *Call {
	return &Call{Func: fn, Args: args}
}

// AttrChain builds a dotted attribute-access chain, e.g. AttrChain("rt",
// "maybe_pause") yields the expression "rt.maybe_pause".
func AttrChain(base string, attrs ...string) Expr {
	var e Expr = LoadName(base)
	for _, a := range attrs {
		e = &Attribute{Value: e, Attr: a, Ctx: Load}
	}
	return e
}

// IsDunderInit reports whether name is the Python constructor method name.
func IsDunderInit(name string) bool {
	return name == "__init__"
}
