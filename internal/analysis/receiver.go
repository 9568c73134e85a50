package analysis

import (
	"github.com/kvarga/constify/internal/cxx"
)

// ReceiverCompatibleWithConst decides whether a method body uses its object in
// a way a const receiver could satisfy. Every this expression is walked up
// through the parent map; the first use that needs a mutable object flips the
// result. A body with no this expressions is compatible.
func ReceiverCompatibleWithConst(body *cxx.Stmt, parents *cxx.ParentMap) bool {
	compatible := true
	cxx.WalkExprs(body, func(e *cxx.Expr) bool {
		if !compatible {
			return false
		}
		if e.Kind == cxx.ExprThis {
			if !thisUseIsConstCompatible(e, parents) {
				compatible = false
			}
		}
		return true
	})
	return compatible
}

// thisUseIsConstCompatible walks the ancestors of one this expression. Each
// step either commits to a verdict, stays transparent and checks the
// ancestor's own type, or breaks as a mutation path.
func thisUseIsConstCompatible(this *cxx.Expr, parents *cxx.ParentMap) bool {
	cur := this
	for {
		p := parents.ParentExpr(cur)
		if p == nil {
			// The statement consumes the value directly, e.g. returning a
			// non-const reference to a member. No evidence of constness.
			return false
		}

		switch p.Kind {
		case cxx.ExprImplicitCast:
			// transparent
		case cxx.ExprUnary:
			if !p.IsAddrOf() && !p.IsDeref() {
				return false
			}
		case cxx.ExprMember:
			m := p.Ref
			if m == nil {
				return false
			}
			if m.IsMethod() {
				return m.Quals.Const
			}
			if m.Kind != cxx.DeclField {
				return false
			}
			// field access is transparent
		default:
			return false
		}

		t := p.Type
		if t == nil {
			return false
		}
		switch {
		case t.IsReference():
			if t.PointeeConst() {
				return true
			}
			// A non-const reference may still be consumed read-only upward.
		case t.IsPointer():
			if t.PointeeConst() && p.RValue {
				return true
			}
		case t.IsBuiltin():
			if p.RValue || t.IsConstQualified() {
				return true
			}
			// An lvalue builtin is not a verdict yet; the consuming parent
			// decides (a read inserts the value conversion, a write breaks).
		case t.IsRecord():
			return false
		default:
			return false
		}

		cur = p
	}
}
