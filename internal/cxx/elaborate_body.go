package cxx

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kvarga/constify/pkg/parser"
)

// elaborateBody lowers one function body. All declarations in the unit are
// already collected, so out-of-line references resolve.
func (e *elaborator) elaborateBody(p pendingBody) {
	e.curFn = p.fn
	e.curRec = p.rec
	e.curNS = p.ns
	e.scopes = nil
	e.pushScope()
	for _, prm := range p.fn.Params {
		if prm.Name != "" {
			e.declare(prm.Name, prm)
		}
	}
	p.fn.Body = e.buildStmt(p.body)
	e.popScope()
	e.curFn, e.curRec, e.curNS = nil, nil, ""
}

func (e *elaborator) pushScope() {
	e.scopes = append(e.scopes, make(map[string]*Decl))
}

func (e *elaborator) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *elaborator) declare(name string, d *Decl) {
	e.scopes[len(e.scopes)-1][name] = d
}

func (e *elaborator) lookupLocal(name string) *Decl {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if d, ok := e.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}

// buildStmt lowers one statement node. Unknown statement shapes become
// StmtOther with their expressions preserved, so the passes still see every
// reference beneath them.
func (e *elaborator) buildStmt(n *sitter.Node) *Stmt {
	if n == nil {
		return nil
	}
	loc := e.rangeOf(n)
	switch n.Type() {
	case "compound_statement":
		s := &Stmt{Kind: StmtCompound, Loc: loc}
		e.pushScope()
		for _, c := range parser.NamedChildren(n) {
			if c.Type() == "comment" {
				continue
			}
			if child := e.buildStmt(c); child != nil {
				s.Body = append(s.Body, child)
			}
		}
		e.popScope()
		return s

	case "expression_statement":
		s := &Stmt{Kind: StmtExpr, Loc: loc}
		if len(parser.NamedChildren(n)) > 0 {
			s.Expr = e.buildExpr(n.NamedChild(0))
		}
		return s

	case "declaration":
		return e.buildLocalDecl(n)

	case "return_statement":
		s := &Stmt{Kind: StmtReturn, Loc: loc}
		if len(parser.NamedChildren(n)) > 0 {
			val := e.buildExpr(n.NamedChild(0))
			s.Expr = e.bindValue(val, e.curFn.Type)
		}
		return s

	case "if_statement":
		s := &Stmt{Kind: StmtIf, Loc: loc}
		s.Cond = e.buildCondition(n.ChildByFieldName("condition"))
		if cons := n.ChildByFieldName("consequence"); cons != nil {
			s.Body = append(s.Body, e.buildStmt(cons))
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// else_clause wraps the actual statement.
			if alt.Type() == "else_clause" && alt.NamedChildCount() > 0 {
				s.ElseBody = e.buildStmt(alt.NamedChild(0))
			} else {
				s.ElseBody = e.buildStmt(alt)
			}
		}
		return s

	case "while_statement":
		s := &Stmt{Kind: StmtWhile, Loc: loc}
		s.Cond = e.buildCondition(n.ChildByFieldName("condition"))
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = append(s.Body, e.buildStmt(body))
		}
		return s

	case "do_statement":
		s := &Stmt{Kind: StmtDo, Loc: loc}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = append(s.Body, e.buildStmt(body))
		}
		s.Cond = e.buildCondition(n.ChildByFieldName("condition"))
		return s

	case "for_statement":
		s := &Stmt{Kind: StmtFor, Loc: loc}
		e.pushScope()
		if init := n.ChildByFieldName("initializer"); init != nil {
			if init.Type() == "declaration" {
				s.Init = e.buildLocalDecl(init)
			} else {
				s.Init = &Stmt{Kind: StmtExpr, Expr: e.buildExpr(init), Loc: e.rangeOf(init)}
			}
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			s.Cond = e.rvalue(e.buildExpr(cond))
		}
		if upd := n.ChildByFieldName("update"); upd != nil {
			s.Inc = e.buildExpr(upd)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = append(s.Body, e.buildStmt(body))
		}
		e.popScope()
		return s

	case "comment", "break_statement", "continue_statement":
		return &Stmt{Kind: StmtOther, Loc: loc}

	default:
		s := &Stmt{Kind: StmtOther, Loc: loc}
		for _, c := range parser.NamedChildren(n) {
			if isStatementNode(c.Type()) {
				if child := e.buildStmt(c); child != nil {
					s.Body = append(s.Body, child)
				}
			} else if isExpressionNode(c.Type()) {
				s.Body = append(s.Body, &Stmt{Kind: StmtExpr, Expr: e.buildExpr(c), Loc: e.rangeOf(c)})
			}
		}
		return s
	}
}

func isStatementNode(t string) bool {
	switch t {
	case "compound_statement", "expression_statement", "declaration",
		"return_statement", "if_statement", "while_statement", "for_statement",
		"do_statement", "switch_statement", "case_statement", "labeled_statement":
		return true
	}
	return false
}

func isExpressionNode(t string) bool {
	switch t {
	case "identifier", "field_expression", "call_expression", "assignment_expression",
		"binary_expression", "unary_expression", "update_expression", "pointer_expression",
		"parenthesized_expression", "conditional_expression", "subscript_expression",
		"cast_expression", "new_expression", "comma_expression", "this",
		"number_literal", "char_literal", "string_literal", "true", "false", "nullptr":
		return true
	}
	return false
}

// buildCondition unwraps a condition_clause down to its value expression.
func (e *elaborator) buildCondition(n *sitter.Node) *Expr {
	if n == nil {
		return nil
	}
	if n.Type() == "condition_clause" {
		if v := n.ChildByFieldName("value"); v != nil {
			return e.rvalue(e.buildExpr(v))
		}
		if n.NamedChildCount() > 0 {
			return e.rvalue(e.buildExpr(n.NamedChild(0)))
		}
		return nil
	}
	return e.rvalue(e.buildExpr(n))
}

// buildLocalDecl lowers a block-scope declaration: every declarator becomes a
// VarDecl registered in the current scope and in the function's local list.
func (e *elaborator) buildLocalDecl(n *sitter.Node) *Stmt {
	s := &Stmt{Kind: StmtDecl, Loc: e.rangeOf(n)}
	base := e.baseType(n, e.curNS)
	for _, d := range declaratorsOf(n) {
		name, typ, fd := e.applyDeclarator(base, d)
		if name == "" || fd != nil {
			continue
		}
		v := &Decl{
			Kind:      DeclVariable,
			Name:      name,
			Qualified: name,
			Type:      typ,
			Loc:       e.rangeOf(d),
		}
		v.Init = e.buildInitializer(d, typ)
		e.declare(name, v)
		e.curFn.Locals = append(e.curFn.Locals, v)
		s.Decls = append(s.Decls, v)
	}
	return s
}

// buildInitializer lowers the value of an init_declarator, binding it to the
// declared type: references retype the bound expression, value initialization
// inserts the lvalue-to-rvalue conversion, record types become constructions.
func (e *elaborator) buildInitializer(d *sitter.Node, typ *Type) *Expr {
	if d.Type() != "init_declarator" {
		return nil
	}
	val := d.ChildByFieldName("value")
	if val == nil {
		// Direct initialization: T t(args).
		if args := findChildOfType(d, "argument_list"); args != nil {
			return e.buildConstruct(typ, args, e.rangeOf(d))
		}
		return nil
	}
	switch val.Type() {
	case "argument_list":
		return e.buildConstruct(typ, val, e.rangeOf(val))
	case "initializer_list":
		ctor := &Expr{Kind: ExprConstruct, Type: typ, RValue: true, Loc: e.rangeOf(val)}
		for _, a := range parser.NamedChildren(val) {
			ctor.Args = append(ctor.Args, e.buildExpr(a))
		}
		return ctor
	default:
		x := e.buildExpr(val)
		if typ.IsRecord() {
			return e.constructFromValue(typ, x, e.rangeOf(val))
		}
		return e.bindValue(x, typ)
	}
}

// buildConstruct resolves T t(args) to a constructor call when T is a record.
func (e *elaborator) buildConstruct(typ *Type, args *sitter.Node, loc SourceRange) *Expr {
	ctor := &Expr{Kind: ExprConstruct, Type: typ, RValue: true, Loc: loc}
	for _, a := range parser.NamedChildren(args) {
		ctor.Args = append(ctor.Args, e.buildExpr(a))
	}
	if rec := recordOf(typ); rec != nil {
		if c := pickOverload(rec.FindMethods(rec.Name), false, len(ctor.Args)); c != nil {
			ctor.Callee = c
			ctor.Args = e.bindArgs(c, ctor.Args)
		}
	}
	return ctor
}

// constructFromValue models copy-initialization of a record from a value.
func (e *elaborator) constructFromValue(typ *Type, x *Expr, loc SourceRange) *Expr {
	ctor := &Expr{Kind: ExprConstruct, Type: typ, RValue: true, Loc: loc, Args: []*Expr{x}}
	if rec := recordOf(typ); rec != nil {
		if c := pickOverload(rec.FindMethods(rec.Name), false, 1); c != nil {
			ctor.Callee = c
			ctor.Args = e.bindArgs(c, ctor.Args)
		}
	}
	return ctor
}

// buildExpr lowers one expression node. Anything unclassifiable becomes Other
// with its sub-expressions preserved: the mutation pass proves nothing from it
// while the reference pass still sees the uses inside.
func (e *elaborator) buildExpr(n *sitter.Node) *Expr {
	if n == nil {
		return nil
	}
	loc := e.rangeOf(n)
	switch n.Type() {
	case "identifier":
		return e.resolveName(e.text(n), loc)

	case "this":
		return e.makeThis(loc)

	case "field_expression":
		return e.buildMember(n)

	case "call_expression":
		return e.buildCall(n)

	case "assignment_expression":
		return e.buildAssignment(n)

	case "binary_expression":
		return e.buildBinary(n)

	case "unary_expression":
		op := e.fieldText(n, "operator")
		sub := e.rvalue(e.buildExpr(n.ChildByFieldName("argument")))
		return &Expr{Kind: ExprUnary, Op: op, Sub: sub, Type: typeOf(sub), RValue: true, Loc: loc}

	case "update_expression":
		op := e.fieldText(n, "operator")
		sub := e.buildExpr(n.ChildByFieldName("argument"))
		return &Expr{Kind: ExprUnary, Op: op, Sub: sub, Type: typeOf(sub), Loc: loc}

	case "pointer_expression":
		op := e.fieldText(n, "operator")
		sub := e.buildExpr(n.ChildByFieldName("argument"))
		if op == "*" {
			pointee := typeOf(sub).NonReference().PointeeType()
			if pointee == nil {
				pointee = &Type{Kind: TypeUnknown}
			}
			return &Expr{Kind: ExprUnary, Op: op, Sub: e.rvalue(sub), Type: pointee, Loc: loc}
		}
		ptr := PointerTo(typeOf(sub).NonReference())
		return &Expr{Kind: ExprUnary, Op: op, Sub: sub, Type: ptr, RValue: true, Loc: loc}

	case "parenthesized_expression":
		sub := e.buildExpr(n.NamedChild(0))
		return &Expr{Kind: ExprParen, Sub: sub, Type: typeOf(sub), RValue: sub != nil && sub.RValue, Loc: loc}

	case "conditional_expression":
		cond := e.rvalue(e.buildExpr(n.ChildByFieldName("condition")))
		then := e.buildExpr(n.ChildByFieldName("consequence"))
		els := e.buildExpr(n.ChildByFieldName("alternative"))
		return &Expr{Kind: ExprConditional, Cond: cond, Then: then, Else: els, Type: typeOf(then), Loc: loc}

	case "subscript_expression":
		base := e.buildExpr(n.ChildByFieldName("argument"))
		idx := e.buildIndex(n)
		elem := typeOf(base).NonReference().PointeeType()
		if elem == nil {
			elem = &Type{Kind: TypeUnknown}
		}
		return &Expr{Kind: ExprSubscript, Base: base, Index: idx, Type: elem, Loc: loc}

	case "cast_expression":
		sub := e.buildExpr(n.ChildByFieldName("value"))
		typ := e.parseTypeDescriptor(n.ChildByFieldName("type"))
		return &Expr{Kind: ExprExplicitCast, Sub: sub, Type: typ, RValue: true, Loc: loc}

	case "new_expression":
		return e.buildNew(n)

	case "comma_expression":
		lhs := e.buildExpr(n.ChildByFieldName("left"))
		rhs := e.buildExpr(n.ChildByFieldName("right"))
		return &Expr{Kind: ExprBinary, Op: ",", LHS: lhs, RHS: rhs, Type: typeOf(rhs), Loc: loc}

	case "number_literal":
		return &Expr{Kind: ExprLiteral, Type: Builtin("int"), RValue: true, Loc: loc}
	case "char_literal":
		return &Expr{Kind: ExprLiteral, Type: Builtin("char"), RValue: true, Loc: loc}
	case "true", "false":
		return &Expr{Kind: ExprLiteral, Type: Builtin("bool"), RValue: true, Loc: loc}
	case "string_literal", "concatenated_string":
		return &Expr{Kind: ExprLiteral, Type: PointerTo(Builtin("char").WithConst()), RValue: true, Loc: loc}
	case "null", "nullptr":
		return &Expr{Kind: ExprLiteral, Type: PointerTo(Void()), RValue: true, Loc: loc}

	default:
		other := &Expr{Kind: ExprOther, Type: &Type{Kind: TypeUnknown}, Loc: loc}
		for _, c := range parser.NamedChildren(n) {
			if isExpressionNode(c.Type()) {
				other.Args = append(other.Args, e.buildExpr(c))
			}
		}
		return other
	}
}

func (e *elaborator) fieldText(n *sitter.Node, field string) string {
	if f := n.ChildByFieldName(field); f != nil {
		return e.text(f)
	}
	return ""
}

// buildIndex handles both grammar revisions of subscript_expression.
func (e *elaborator) buildIndex(n *sitter.Node) *Expr {
	if idx := n.ChildByFieldName("index"); idx != nil {
		return e.rvalue(e.buildExpr(idx))
	}
	if idx := n.ChildByFieldName("indices"); idx != nil && idx.NamedChildCount() > 0 {
		return e.rvalue(e.buildExpr(idx.NamedChild(0)))
	}
	return nil
}

func typeOf(x *Expr) *Type {
	if x == nil || x.Type == nil {
		return &Type{Kind: TypeUnknown}
	}
	return x.Type
}

// makeThis synthesizes the this-expression for the current method.
func (e *elaborator) makeThis(loc SourceRange) *Expr {
	if e.curRec == nil || e.curFn == nil || e.curFn.Quals.Static {
		return &Expr{Kind: ExprOther, Type: &Type{Kind: TypeUnknown}, Loc: loc}
	}
	pointee := RecordType(e.curRec)
	if e.curFn.Quals.Const {
		pointee = pointee.WithConst()
	}
	return &Expr{Kind: ExprThis, Type: PointerTo(pointee), RValue: true, Loc: loc}
}

// resolveName resolves an identifier against locals, parameters, the enclosing
// class (through an implicit this), globals, and free functions, in that
// order. Unresolved names stay Other: the analysis proves nothing from them.
func (e *elaborator) resolveName(name string, loc SourceRange) *Expr {
	if d := e.lookupLocal(name); d != nil {
		return &Expr{Kind: ExprDeclRef, Ref: d, Type: d.Type, Loc: loc}
	}
	if e.curRec != nil && !e.curFn.Quals.Static {
		if f := e.curRec.FindField(name); f != nil {
			return &Expr{Kind: ExprMember, Base: e.makeThis(loc), Ref: f, Type: f.Type, Loc: loc}
		}
		if ms := e.curRec.LookupMethods(name); len(ms) > 0 {
			return &Expr{Kind: ExprMember, Base: e.makeThis(loc), Ref: ms[0], Type: ms[0].Type, Loc: loc}
		}
	}
	if g, ok := e.globals[qualify(e.curNS, name)]; ok {
		return &Expr{Kind: ExprDeclRef, Ref: g, Type: g.Type, Loc: loc}
	}
	if g, ok := e.globals[name]; ok {
		return &Expr{Kind: ExprDeclRef, Ref: g, Type: g.Type, Loc: loc}
	}
	if fns := e.lookupFunctions(name); len(fns) > 0 {
		return &Expr{Kind: ExprDeclRef, Ref: fns[0], Type: fns[0].Type, RValue: true, Loc: loc}
	}
	return &Expr{Kind: ExprOther, Type: &Type{Kind: TypeUnknown}, Loc: loc}
}

func (e *elaborator) lookupFunctions(name string) []*Decl {
	if fns, ok := e.funcs[qualify(e.curNS, name)]; ok {
		return fns
	}
	return e.funcs[name]
}

// buildMember lowers obj.field / ptr->field. Method members resolve lazily at
// the call site; a bare method mention takes the first overload.
func (e *elaborator) buildMember(n *sitter.Node) *Expr {
	loc := e.rangeOf(n)
	base := e.buildExpr(n.ChildByFieldName("argument"))
	name := e.fieldText(n, "field")
	rec := recordOf(typeOf(base))
	if rec == nil {
		return &Expr{Kind: ExprOther, Base: base, Type: &Type{Kind: TypeUnknown}, Loc: loc}
	}
	if f := rec.FindField(name); f != nil {
		return &Expr{Kind: ExprMember, Base: base, Ref: f, Type: f.Type, Loc: loc}
	}
	if ms := rec.LookupMethods(name); len(ms) > 0 {
		return &Expr{Kind: ExprMember, Base: base, Ref: ms[0], Type: ms[0].Type, Loc: loc}
	}
	return &Expr{Kind: ExprOther, Base: base, Type: &Type{Kind: TypeUnknown}, Loc: loc}
}

// recordOf returns the record behind a type, looking through one reference
// and one pointer level.
func recordOf(t *Type) *Record {
	t = t.NonReference()
	if t.IsPointer() {
		t = t.PointeeType()
	}
	if t != nil && t.IsRecord() {
		return t.Record
	}
	return nil
}

// receiverIsConst reports the constness a member call sees on its object.
func receiverIsConst(t *Type) bool {
	t = t.NonReference()
	if t.IsPointer() {
		return t.PointeeConst()
	}
	return t.IsConstQualified()
}

// pickOverload selects from an overload set by arity and receiver constness:
// a const object binds only const overloads, a non-const object prefers the
// non-const one when both exist.
func pickOverload(cands []*Decl, recvConst bool, nargs int) *Decl {
	var arity []*Decl
	for _, m := range cands {
		if len(m.Params) == nargs {
			arity = append(arity, m)
		}
	}
	if len(arity) == 0 {
		arity = cands
	}
	for _, m := range arity {
		if m.Quals.Const == recvConst {
			return m
		}
	}
	if !recvConst {
		// A non-const object still binds a const-only overload set.
		for _, m := range arity {
			if m.Quals.Const {
				return m
			}
		}
	}
	if len(arity) > 0 {
		return arity[0]
	}
	return nil
}

// buildCall lowers a call expression into a member call, an operator call, a
// resolved free call, or an opaque call with an unknown callee.
func (e *elaborator) buildCall(n *sitter.Node) *Expr {
	loc := e.rangeOf(n)
	fnNode := n.ChildByFieldName("function")
	var rawArgs []*Expr
	if argsNode := n.ChildByFieldName("arguments"); argsNode != nil {
		for _, a := range parser.NamedChildren(argsNode) {
			rawArgs = append(rawArgs, e.buildExpr(a))
		}
	}
	if fnNode == nil {
		return &Expr{Kind: ExprCall, Args: rawArgs, Type: &Type{Kind: TypeUnknown}, Loc: loc}
	}

	switch fnNode.Type() {
	case "field_expression":
		base := e.buildExpr(fnNode.ChildByFieldName("argument"))
		name := e.fieldText(fnNode, "field")
		if rec := recordOf(typeOf(base)); rec != nil {
			if m := pickOverload(rec.LookupMethods(name), receiverIsConst(typeOf(base)), len(rawArgs)); m != nil {
				return e.makeMemberCall(m, base, rawArgs, loc)
			}
		}
		fn := &Expr{Kind: ExprOther, Base: base, Type: &Type{Kind: TypeUnknown}, Loc: e.rangeOf(fnNode)}
		return &Expr{Kind: ExprCall, Fn: fn, Args: rawArgs, Type: &Type{Kind: TypeUnknown}, Loc: loc}

	case "identifier":
		name := e.text(fnNode)
		if d := e.lookupLocal(name); d != nil {
			// Call through a function pointer: callee unknown by design.
			fn := &Expr{Kind: ExprDeclRef, Ref: d, Type: d.Type, Loc: e.rangeOf(fnNode)}
			return &Expr{Kind: ExprCall, Fn: fn, Args: rawArgs, Type: &Type{Kind: TypeUnknown}, Loc: loc}
		}
		if e.curRec != nil && !e.curFn.Quals.Static {
			wantConst := e.curFn.Quals.Const
			if m := pickOverload(e.curRec.LookupMethods(name), wantConst, len(rawArgs)); m != nil {
				return e.makeMemberCall(m, e.makeThis(loc), rawArgs, loc)
			}
		}
		if fns := e.lookupFunctions(name); len(fns) > 0 {
			callee := pickOverload(fns, false, len(rawArgs))
			if callee == nil {
				callee = fns[0]
			}
			fn := &Expr{Kind: ExprDeclRef, Ref: callee, Type: callee.Type, RValue: true, Loc: e.rangeOf(fnNode)}
			ret := callee.Type
			return &Expr{
				Kind: ExprCall, Fn: fn, Callee: callee,
				Args: e.bindArgs(callee, rawArgs),
				Type: ret.NonReference(), RValue: !ret.IsReference(),
				Loc: loc,
			}
		}
		fn := &Expr{Kind: ExprOther, Type: &Type{Kind: TypeUnknown}, Loc: e.rangeOf(fnNode)}
		return &Expr{Kind: ExprCall, Fn: fn, Args: rawArgs, Type: &Type{Kind: TypeUnknown}, Loc: loc}

	default:
		fn := e.buildExpr(fnNode)
		return &Expr{Kind: ExprCall, Fn: fn, Args: rawArgs, Type: &Type{Kind: TypeUnknown}, Loc: loc}
	}
}

func (e *elaborator) makeMemberCall(m *Decl, recv *Expr, rawArgs []*Expr, loc SourceRange) *Expr {
	member := &Expr{Kind: ExprMember, Base: recv, Ref: m, Type: m.Type, Loc: loc}
	ret := m.Type
	if ret == nil {
		ret = &Type{Kind: TypeUnknown}
	}
	return &Expr{
		Kind: ExprMemberCall, Fn: member, Callee: m,
		Args: e.bindArgs(m, rawArgs),
		Type: ret.NonReference(), RValue: !ret.IsReference(),
		Loc: loc,
	}
}

// buildAssignment lowers simple and compound assignment, dispatching to an
// operator= member when the left side is of record type.
func (e *elaborator) buildAssignment(n *sitter.Node) *Expr {
	loc := e.rangeOf(n)
	op := e.fieldText(n, "operator")
	lhs := e.buildExpr(n.ChildByFieldName("left"))
	rhs := e.buildExpr(n.ChildByFieldName("right"))

	if rec := recordOf(typeOf(lhs)); rec != nil {
		if m := pickOverload(rec.LookupMethods("operator"+op), receiverIsConst(typeOf(lhs)), 1); m != nil {
			return e.makeOperatorCall(m, op, lhs, rhs, loc)
		}
	}
	return &Expr{Kind: ExprBinary, Op: op, LHS: lhs, RHS: e.bindValue(rhs, typeOf(lhs)), Type: typeOf(lhs), Loc: loc}
}

// buildBinary lowers arithmetic and comparison operators, dispatching to an
// overloaded member operator when the left operand is of record type.
func (e *elaborator) buildBinary(n *sitter.Node) *Expr {
	loc := e.rangeOf(n)
	op := e.fieldText(n, "operator")
	lhs := e.buildExpr(n.ChildByFieldName("left"))
	rhs := e.buildExpr(n.ChildByFieldName("right"))

	if rec := recordOf(typeOf(lhs)); rec != nil {
		if m := pickOverload(rec.LookupMethods("operator"+op), receiverIsConst(typeOf(lhs)), 1); m != nil {
			return e.makeOperatorCall(m, op, lhs, rhs, loc)
		}
	}
	result := typeOf(lhs).NonReference()
	if result.IsConstQualified() {
		result = &Type{Kind: result.Kind, Pointee: result.Pointee, Record: result.Record, Spelling: result.Spelling}
	}
	return &Expr{Kind: ExprBinary, Op: op, LHS: e.rvalue(lhs), RHS: e.rvalue(rhs), Type: result, RValue: true, Loc: loc}
}

// makeOperatorCall mirrors the overloaded-operator call shape: the receiver is
// the first argument and the callee is referenced through a decl ref.
func (e *elaborator) makeOperatorCall(m *Decl, op string, recv, operand *Expr, loc SourceRange) *Expr {
	fn := &Expr{Kind: ExprDeclRef, Ref: m, Type: m.Type, RValue: true, Loc: loc}
	args := []*Expr{recv}
	if operand != nil {
		args = append(args, e.bindArgs(m, []*Expr{operand})...)
	}
	ret := m.Type
	if ret == nil {
		ret = &Type{Kind: TypeUnknown}
	}
	return &Expr{
		Kind: ExprOperatorCall, Op: op, Fn: fn, Callee: m,
		Args: args,
		Type: ret.NonReference(), RValue: !ret.IsReference(),
		Loc: loc,
	}
}

// buildNew lowers a new-expression, keeping placement arguments separate from
// constructor arguments.
func (e *elaborator) buildNew(n *sitter.Node) *Expr {
	loc := e.rangeOf(n)
	typ := &Type{Kind: TypeUnknown}
	if tn := n.ChildByFieldName("type"); tn != nil {
		typ = e.namedType(qualify(e.curNS, e.text(tn)), e.text(tn))
		if tn.Type() == "primitive_type" {
			typ = Builtin(e.text(tn))
		}
	}
	out := &Expr{Kind: ExprNew, Type: PointerTo(typ), RValue: true, Loc: loc}
	if placement := n.ChildByFieldName("placement"); placement != nil {
		for _, a := range parser.NamedChildren(placement) {
			out.Placement = append(out.Placement, e.buildExpr(a))
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		for _, a := range parser.NamedChildren(args) {
			out.Args = append(out.Args, e.buildExpr(a))
		}
		if rec := recordOf(typ); rec != nil {
			if c := pickOverload(rec.FindMethods(rec.Name), false, len(out.Args)); c != nil {
				out.Callee = c
				out.Args = e.bindArgs(c, out.Args)
			}
		}
	}
	return out
}

// bindArgs adapts call arguments to their parameter types: reference
// parameters retype the argument as seen at the use site, value parameters
// get the lvalue-to-rvalue conversion.
func (e *elaborator) bindArgs(fn *Decl, args []*Expr) []*Expr {
	out := make([]*Expr, len(args))
	for i, a := range args {
		if i < len(fn.Params) {
			out[i] = e.bindValue(a, fn.Params[i].Type)
		} else {
			out[i] = a
		}
	}
	return out
}

// bindValue adapts an expression to the type that consumes it. Binding to a
// reference retypes the expression in place, so usages carry the type as seen
// at the use site; everything else inserts the lvalue-to-rvalue conversion.
func (e *elaborator) bindValue(x *Expr, target *Type) *Expr {
	if x == nil {
		return nil
	}
	if target != nil && target.IsReference() {
		x.Type = target
		return x
	}
	return e.rvalueAs(x, target)
}

// rvalue inserts the lvalue-to-rvalue conversion when needed.
func (e *elaborator) rvalue(x *Expr) *Expr {
	return e.rvalueAs(x, nil)
}

func (e *elaborator) rvalueAs(x *Expr, target *Type) *Expr {
	if x == nil {
		return nil
	}
	t := target
	if t == nil || t.Kind == TypeUnknown {
		t = typeOf(x).NonReference()
	}
	if t.IsConstQualified() && !t.IsPointer() {
		// The value read drops the top-level qualifier.
		stripped := *t
		stripped.Const = false
		t = &stripped
	}
	if x.RValue && (target == nil || t.String() == typeOf(x).String()) {
		return x
	}
	return &Expr{Kind: ExprImplicitCast, Sub: x, Type: t, RValue: true, Loc: x.Loc}
}

// parseTypeDescriptor parses the type of a cast expression.
func (e *elaborator) parseTypeDescriptor(n *sitter.Node) *Type {
	if n == nil {
		return &Type{Kind: TypeUnknown}
	}
	base := e.baseType(n, e.curNS)
	if d := n.ChildByFieldName("declarator"); d != nil {
		_, typ, _ := e.applyDeclarator(base, d)
		return typ
	}
	return base
}
