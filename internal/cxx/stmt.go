package cxx

// StmtKind classifies a statement node.
type StmtKind int

const (
	StmtOther StmtKind = iota
	StmtCompound
	StmtExpr
	StmtDecl
	StmtReturn
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
)

// Stmt is a statement node. Expressions hang off the slots below; declaration
// statements own their decls, whose initializers are expressions too.
type Stmt struct {
	Kind StmtKind

	Expr  *Expr   // expression statement value or return operand
	Cond  *Expr   // if/while/do/for condition
	Inc   *Expr   // for increment
	Decls []*Decl // declaration statement

	Init     *Stmt   // for init statement
	Body     []*Stmt // compound children, or the single loop/then body
	ElseBody *Stmt

	Loc SourceRange
}

// Exprs returns the expressions directly owned by this statement, including
// initializers of declared variables.
func (s *Stmt) Exprs() []*Expr {
	if s == nil {
		return nil
	}
	var out []*Expr
	add := func(e *Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	add(s.Expr)
	add(s.Cond)
	add(s.Inc)
	for _, d := range s.Decls {
		add(d.Init)
	}
	return out
}

// Children returns the nested statements.
func (s *Stmt) Children() []*Stmt {
	if s == nil {
		return nil
	}
	var out []*Stmt
	if s.Init != nil {
		out = append(out, s.Init)
	}
	for _, c := range s.Body {
		if c != nil {
			out = append(out, c)
		}
	}
	if s.ElseBody != nil {
		out = append(out, s.ElseBody)
	}
	return out
}

// WalkStmt visits every statement in the subtree pre-order.
func WalkStmt(s *Stmt, visit func(*Stmt) bool) {
	if s == nil {
		return
	}
	if !visit(s) {
		return
	}
	for _, c := range s.Children() {
		WalkStmt(c, visit)
	}
}

// WalkExprs visits every expression reachable from the statement subtree,
// descending into sub-expressions.
func WalkExprs(s *Stmt, visit func(*Expr) bool) {
	WalkStmt(s, func(st *Stmt) bool {
		for _, e := range st.Exprs() {
			WalkExpr(e, visit)
		}
		return true
	})
}
