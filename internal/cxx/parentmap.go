package cxx

// ParentMap resolves the immediate syntactic parent of every expression in a
// function body. A top-level expression, owned directly by a statement, has no
// parent.
type ParentMap struct {
	exprParents map[*Expr]*Expr
}

// BuildParentMap indexes the body once; lookups are O(1).
func BuildParentMap(body *Stmt) *ParentMap {
	m := &ParentMap{exprParents: make(map[*Expr]*Expr)}
	WalkStmt(body, func(s *Stmt) bool {
		for _, e := range s.Exprs() {
			m.index(e)
		}
		return true
	})
	return m
}

func (m *ParentMap) index(e *Expr) {
	for _, c := range e.Children() {
		m.exprParents[c] = e
		m.index(c)
	}
}

// ParentExpr returns the parent expression of e, or nil when the parent is a
// statement (or e is unknown to the map).
func (m *ParentMap) ParentExpr(e *Expr) *Expr {
	return m.exprParents[e]
}
