package cxx

// ExprKind classifies an expression node.
type ExprKind int

const (
	ExprOther ExprKind = iota
	ExprDeclRef
	ExprMember
	ExprParen
	ExprImplicitCast
	ExprExplicitCast
	ExprUnary
	ExprBinary
	ExprSubscript
	ExprConditional
	ExprMaterialize
	ExprCall
	ExprMemberCall
	ExprOperatorCall
	ExprConstruct
	ExprNew
	ExprThis
	ExprLiteral
)

// Expr is a typed expression node. Only the slots meaningful for the Kind are
// populated; the rest stay nil.
type Expr struct {
	Kind ExprKind
	Op   string // operator spelling for unary, binary, and operator calls

	Ref    *Decl // DeclRef: referenced decl; Member: the member decl
	Callee *Decl // resolved callee for call forms; nil when unknown

	Type   *Type
	RValue bool

	LHS, RHS         *Expr   // binary
	Sub              *Expr   // paren, cast, unary, materialize operand
	Base             *Expr   // member and subscript base
	Index            *Expr   // subscript index
	Cond, Then, Else *Expr   // conditional
	Fn               *Expr   // callee expression of call forms; member calls use a member expr whose Base is the receiver
	Args             []*Expr // call arguments; operator calls carry the receiver as Args[0]
	Placement        []*Expr // new expression placement arguments

	Loc SourceRange
}

// assignment and increment/decrement opcode sets.
var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// IsAssignOp reports whether a binary expression is a simple or compound assignment.
func (e *Expr) IsAssignOp() bool {
	return e.Kind == ExprBinary && assignOps[e.Op]
}

// IsIncDec reports whether a unary expression is an increment or decrement.
func (e *Expr) IsIncDec() bool {
	return e.Kind == ExprUnary && (e.Op == "++" || e.Op == "--")
}

// IsAddrOf reports whether a unary expression takes an address.
func (e *Expr) IsAddrOf() bool {
	return e.Kind == ExprUnary && e.Op == "&"
}

// IsDeref reports whether a unary expression dereferences a pointer.
func (e *Expr) IsDeref() bool {
	return e.Kind == ExprUnary && e.Op == "*"
}

// Receiver returns the implicit object argument of a member call: the base of
// the callee member expression. Nil for every other kind.
func (e *Expr) Receiver() *Expr {
	if e.Kind == ExprMemberCall && e.Fn != nil {
		return e.Fn.Base
	}
	return nil
}

// Children returns the sub-expressions in deterministic order.
func (e *Expr) Children() []*Expr {
	if e == nil {
		return nil
	}
	var out []*Expr
	add := func(c *Expr) {
		if c != nil {
			out = append(out, c)
		}
	}
	add(e.LHS)
	add(e.RHS)
	add(e.Sub)
	add(e.Base)
	add(e.Index)
	add(e.Cond)
	add(e.Then)
	add(e.Else)
	add(e.Fn)
	for _, a := range e.Args {
		add(a)
	}
	for _, p := range e.Placement {
		add(p)
	}
	return out
}

// WalkExpr visits e and every sub-expression pre-order. The visitor returning
// false prunes the subtree.
func WalkExpr(e *Expr, visit func(*Expr) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	for _, c := range e.Children() {
		WalkExpr(c, visit)
	}
}
