package analysis

import (
	"github.com/kvarga/constify/internal/cxx"
)

// Usage is one observation of a declaration inside a scope: where it happened
// and the type the use site saw.
type Usage struct {
	Decl *cxx.Decl
	Type *cxx.Type
	Loc  cxx.SourceRange
}

// ScopeResult holds the two usage maps produced by analyzing one statement
// subtree. A declaration may appear in one, both, or neither; the result
// depends only on the subtree, never on enclosing context.
type ScopeResult struct {
	changed map[cxx.DeclKey][]Usage
	used    map[cxx.DeclKey][]Usage
}

// AnalyzeScope runs the mutation pass and the reference pass over one
// statement subtree and returns the combined result.
func AnalyzeScope(body *cxx.Stmt) *ScopeResult {
	r := &ScopeResult{
		changed: make(map[cxx.DeclKey][]Usage),
		used:    make(map[cxx.DeclKey][]Usage),
	}
	cxx.WalkExprs(body, func(e *cxx.Expr) bool {
		r.collectMutations(e)
		return true
	})
	cxx.WalkExprs(body, func(e *cxx.Expr) bool {
		r.collectReferences(e)
		return true
	})
	return r
}

// WasChanged reports whether the mutation pass recorded the declaration.
func (r *ScopeResult) WasChanged(d *cxx.Decl) bool {
	_, ok := r.changed[d.Key()]
	return ok
}

// WasReferenced reports whether the reference pass recorded the declaration.
func (r *ScopeResult) WasReferenced(d *cxx.Decl) bool {
	_, ok := r.used[d.Key()]
	return ok
}

// Changed returns every mutation usage in recording order.
func (r *ScopeResult) Changed() []Usage {
	return flatten(r.changed)
}

// Referenced returns every reference usage in recording order.
func (r *ScopeResult) Referenced() []Usage {
	return flatten(r.used)
}

func flatten(m map[cxx.DeclKey][]Usage) []Usage {
	var out []Usage
	for _, us := range m {
		out = append(out, us...)
	}
	sortUsages(out)
	return out
}

func sortUsages(us []Usage) {
	// Recording order is walk order; the maps lose it, so restore by location.
	for i := 1; i < len(us); i++ {
		for j := i; j > 0 && usageLess(us[j], us[j-1]); j-- {
			us[j], us[j-1] = us[j-1], us[j]
		}
	}
}

func usageLess(a, b Usage) bool {
	if a.Loc.StartLine != b.Loc.StartLine {
		return a.Loc.StartLine < b.Loc.StartLine
	}
	if a.Loc.StartCol != b.Loc.StartCol {
		return a.Loc.StartCol < b.Loc.StartCol
	}
	return a.Decl.Name < b.Decl.Name
}

// collectMutations records a mutation usage for every syntactic form through
// which the expression writes a named storage location. Targets it cannot
// resolve to a declaration are dropped: a missed mutation costs a false
// negative, a guessed one would cost a false positive.
func (r *ScopeResult) collectMutations(e *cxx.Expr) {
	switch e.Kind {
	case cxx.ExprBinary:
		if e.IsAssignOp() {
			r.registerChange(e.LHS, nil)
		}

	case cxx.ExprUnary:
		if e.IsIncDec() {
			r.registerChange(e.Sub, nil)
		}

	case cxx.ExprCall:
		if e.Callee != nil {
			r.registerCallArgs(e.Callee, e.Args, 0)
		}

	case cxx.ExprConstruct:
		if e.Callee != nil {
			r.registerCallArgs(e.Callee, e.Args, 0)
		}

	case cxx.ExprMemberCall:
		if m := e.Callee; m != nil {
			if !m.Quals.Const && !m.Quals.Static {
				r.registerChange(e.Receiver(), nil)
			}
			r.registerCallArgs(m, e.Args, 0)
		}

	case cxx.ExprOperatorCall:
		// The receiver rides as the first argument; parameter indices shift.
		if m := e.Callee; m != nil && m.IsMethod() {
			if !m.Quals.Const && !m.Quals.Static && len(e.Args) > 0 {
				r.registerChange(e.Args[0], nil)
			}
			r.registerCallArgs(m, e.Args, 1)
		}

	case cxx.ExprNew:
		for _, p := range e.Placement {
			r.registerChange(p, nil)
		}
	}
}

// registerCallArgs records a mutation for every argument bound to a non-const
// reference or non-const pointer parameter. offset shifts argument indices for
// operator calls whose Args[0] is the receiver.
func (r *ScopeResult) registerCallArgs(callee *cxx.Decl, args []*cxx.Expr, offset int) {
	for i, p := range callee.Params {
		ai := i + offset
		if ai >= len(args) || p.Type == nil {
			continue
		}
		t := p.Type
		switch {
		case t.IsReference() && !t.PointeeConst():
			r.registerChange(args[ai], t.PointeeType())
		case t.IsPointer() && !t.PointeeConst():
			r.registerChange(args[ai], t.PointeeType())
		}
	}
}

// registerChange resolves a mutation target to its declarations and records a
// usage for each. recordedType overrides the expression type when the
// mutation happens through a parameter.
func (r *ScopeResult) registerChange(target *cxx.Expr, recordedType *cxx.Type) {
	for _, ref := range refereeExprs(target) {
		d := declOf(ref)
		if d == nil {
			continue
		}
		t := recordedType
		if t == nil {
			t = ref.Type
		}
		r.changed[d.Key()] = append(r.changed[d.Key()], Usage{Decl: d, Type: t, Loc: ref.Loc})
	}
}

// collectReferences records a usage for every declaration reference and for
// every member access rooted at the current object. Unlike the mutation pass
// it keeps method references too; the aggregator counts those when it
// classifies methods.
func (r *ScopeResult) collectReferences(e *cxx.Expr) {
	switch e.Kind {
	case cxx.ExprDeclRef:
		if d := e.Ref; d != nil {
			r.used[d.Key()] = append(r.used[d.Key()], Usage{Decl: d, Type: e.Type, Loc: e.Loc})
		}
	case cxx.ExprMember:
		if d := e.Ref; d != nil && isThisBased(e.Base) {
			r.used[d.Key()] = append(r.used[d.Key()], Usage{Decl: d, Type: e.Type, Loc: e.Loc})
		}
	}
}

// isThisBased reports whether an expression bottoms out at the this
// expression, looking through wrappers and chained member accesses.
func isThisBased(e *cxx.Expr) bool {
	for e != nil {
		switch e.Kind {
		case cxx.ExprThis:
			return true
		case cxx.ExprParen, cxx.ExprImplicitCast, cxx.ExprExplicitCast, cxx.ExprMaterialize, cxx.ExprUnary:
			e = e.Sub
		case cxx.ExprMember:
			e = e.Base
		case cxx.ExprSubscript:
			e = e.Base
		default:
			return false
		}
	}
	return false
}
