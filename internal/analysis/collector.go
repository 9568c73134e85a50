// Package analysis implements the constness inference passes: per-scope
// mutation and reference collection, alias expansion, receiver analysis, and
// the translation-unit aggregator that turns the evidence into diagnostics.
package analysis

import (
	"github.com/kvarga/constify/internal/cxx"
)

// Locals returns every variable declared in a function body. Parameters are
// included only when requested: plain functions analyze their parameters for
// constness, while ordinary methods do not.
func Locals(fn *cxx.Decl, includeParams bool) []*cxx.Decl {
	var out []*cxx.Decl
	seen := make(map[cxx.DeclKey]bool)
	add := func(d *cxx.Decl) {
		if d != nil && !seen[d.Key()] {
			seen[d.Key()] = true
			out = append(out, d)
		}
	}
	if includeParams {
		for _, p := range fn.Params {
			add(p)
		}
	}
	for _, v := range fn.Locals {
		add(v)
	}
	return out
}

// Fields returns the fields of a record and all of its transitive bases. The
// worklist tracks visited records, so diamond inheritance terminates.
func Fields(rec *cxx.Record) []*cxx.Decl {
	var out []*cxx.Decl
	forEachBase(rec, func(r *cxx.Record) {
		out = append(out, r.Fields...)
	})
	return out
}

// Methods returns the methods of a record and all of its transitive bases.
func Methods(rec *cxx.Record) []*cxx.Decl {
	var out []*cxx.Decl
	forEachBase(rec, func(r *cxx.Record) {
		out = append(out, r.Methods...)
	})
	return out
}

func forEachBase(rec *cxx.Record, visit func(*cxx.Record)) {
	if rec == nil {
		return
	}
	seen := map[cxx.DeclKey]bool{rec.Key(): true}
	work := []*cxx.Record{rec}
	for len(work) > 0 {
		r := work[0]
		work = work[1:]
		visit(r)
		for _, b := range r.Bases {
			if b != nil && !seen[b.Key()] {
				seen[b.Key()] = true
				work = append(work, b)
			}
		}
	}
}

// TransitiveReferents expands a declaration through its alias chain: starting
// from the seed, any reference- or pointer-typed declaration contributes the
// declarations its initializer refers to, to a fixed point. Mutating an alias
// then disqualifies everything in the set.
func TransitiveReferents(seed *cxx.Decl) []*cxx.Decl {
	seen := map[cxx.DeclKey]bool{seed.Key(): true}
	out := []*cxx.Decl{seed}
	work := []*cxx.Decl{seed}
	for len(work) > 0 {
		d := work[0]
		work = work[1:]
		t := d.Type
		if t == nil || (!t.IsReference() && !t.IsPointer()) || d.Init == nil {
			continue
		}
		for _, ref := range refereeExprs(d.Init) {
			target := declOf(ref)
			if target == nil || seen[target.Key()] {
				continue
			}
			seen[target.Key()] = true
			out = append(out, target)
			work = append(work, target)
		}
	}
	return out
}

// stripExpr peels the wrappers that never change which storage an expression
// names: parens, casts, unary operators, materialized temporaries, and array
// subscripts (descending into the base).
func stripExpr(e *cxx.Expr) *cxx.Expr {
	for e != nil {
		switch e.Kind {
		case cxx.ExprParen, cxx.ExprImplicitCast, cxx.ExprExplicitCast, cxx.ExprMaterialize:
			e = e.Sub
		case cxx.ExprUnary:
			e = e.Sub
		case cxx.ExprSubscript:
			e = e.Base
		default:
			return e
		}
	}
	return nil
}

// refereeExprs collects the expressions an initializer or mutation target can
// refer to: a declaration reference yields itself, a chained member access
// yields the outermost member, a conditional yields both arms.
func refereeExprs(e *cxx.Expr) []*cxx.Expr {
	var out []*cxx.Expr
	collectReferees(e, &out)
	return out
}

func collectReferees(e *cxx.Expr, out *[]*cxx.Expr) {
	e = stripExpr(e)
	if e == nil {
		return
	}
	switch e.Kind {
	case cxx.ExprDeclRef:
		*out = append(*out, e)
	case cxx.ExprMember:
		// Drill through m.a.b to the outermost member expression.
		outer := e
		for {
			base := stripExpr(outer.Base)
			if base == nil || base.Kind != cxx.ExprMember {
				break
			}
			outer = base
		}
		*out = append(*out, outer)
	case cxx.ExprConditional:
		collectReferees(e.Then, out)
		collectReferees(e.Else, out)
	}
}

// declOf maps a referee expression to its declaration: decl refs yield the
// referenced decl, member expressions the member decl. Only declarator kinds
// qualify; anything else resolves to nothing.
func declOf(e *cxx.Expr) *cxx.Decl {
	if e == nil {
		return nil
	}
	var d *cxx.Decl
	switch e.Kind {
	case cxx.ExprDeclRef, cxx.ExprMember:
		d = e.Ref
	default:
		return nil
	}
	if d == nil {
		return nil
	}
	switch d.Kind {
	case cxx.DeclVariable, cxx.DeclParam, cxx.DeclField:
		return d
	default:
		return nil
	}
}
