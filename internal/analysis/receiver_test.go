package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvarga/constify/internal/cxx"
)

func valueRecord() (*cxx.Record, *cxx.Decl) {
	rec := &cxx.Record{Name: "Value", Qualified: "Value", Defined: true}
	field := &cxx.Decl{Kind: cxx.DeclField, Name: "m", Qualified: "Value::m",
		Type: cxx.Builtin("int"), Owner: rec}
	rec.Fields = []*cxx.Decl{field}
	return rec, field
}

func thisExpr(rec *cxx.Record) *cxx.Expr {
	return &cxx.Expr{Kind: cxx.ExprThis, Type: cxx.PointerTo(cxx.RecordType(rec)), RValue: true}
}

func receiverVerdict(t *testing.T, b *cxx.Stmt) bool {
	t.Helper()
	return ReceiverCompatibleWithConst(b, cxx.BuildParentMap(b))
}

func TestReceiverFieldReadByValueIsCompatible(t *testing.T) {
	rec, field := valueRecord()

	// return m; lowered as the value read of this->m.
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field, Type: field.Type}
	read := &cxx.Expr{Kind: cxx.ExprImplicitCast, Sub: member, Type: cxx.Builtin("int"), RValue: true}
	b := body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: read})

	assert.True(t, receiverVerdict(t, b))
}

func TestReceiverFieldWriteIsIncompatible(t *testing.T) {
	rec, field := valueRecord()

	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field, Type: field.Type}
	assign := &cxx.Expr{
		Kind: cxx.ExprBinary, Op: "=",
		LHS:  member,
		RHS:  &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true},
		Type: cxx.Builtin("int"),
	}
	b := body(exprStmt(assign))

	assert.False(t, receiverVerdict(t, b))
}

func TestReceiverReturnedReferenceToFieldIsIncompatible(t *testing.T) {
	rec, field := valueRecord()

	// int &getValueAsReference() { return m; }
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field,
		Type: cxx.ReferenceTo(cxx.Builtin("int"))}
	b := body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: member})

	assert.False(t, receiverVerdict(t, b))
}

func TestReceiverConstReferenceBindingIsCompatible(t *testing.T) {
	rec, field := valueRecord()

	// const int &get() { return m; }
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field,
		Type: cxx.ReferenceTo(cxx.Builtin("int").WithConst())}
	b := body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: member})

	assert.True(t, receiverVerdict(t, b))
}

func TestReceiverAddressOfFieldConstPointerIsCompatible(t *testing.T) {
	rec, field := valueRecord()

	// const int *get() { return &m; }
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field, Type: field.Type}
	addr := &cxx.Expr{Kind: cxx.ExprUnary, Op: "&", Sub: member,
		Type: cxx.PointerTo(cxx.Builtin("int")), RValue: true}
	conv := &cxx.Expr{Kind: cxx.ExprImplicitCast, Sub: addr,
		Type: cxx.PointerTo(cxx.Builtin("int").WithConst()), RValue: true}
	b := body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: conv})

	assert.True(t, receiverVerdict(t, b))
}

func TestReceiverReturnedMutablePointerIsIncompatible(t *testing.T) {
	rec, field := valueRecord()

	// int *get() { return &m; }
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: field, Type: field.Type}
	addr := &cxx.Expr{Kind: cxx.ExprUnary, Op: "&", Sub: member,
		Type: cxx.PointerTo(cxx.Builtin("int")), RValue: true}
	b := body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: addr})

	assert.False(t, receiverVerdict(t, b))
}

func TestReceiverSiblingCallCommitsToItsConstness(t *testing.T) {
	rec, _ := valueRecord()
	constSibling := &cxx.Decl{Kind: cxx.DeclMethod, Name: "peek", Type: cxx.Builtin("int"), Owner: rec,
		Quals: cxx.MethodQuals{UserProvided: true, Const: true}}
	mutSibling := &cxx.Decl{Kind: cxx.DeclMethod, Name: "touch", Type: cxx.Void(), Owner: rec,
		Quals: cxx.MethodQuals{UserProvided: true}}
	rec.Methods = []*cxx.Decl{constSibling, mutSibling}

	call := func(m *cxx.Decl) *cxx.Stmt {
		fn := &cxx.Expr{Kind: cxx.ExprMember, Base: thisExpr(rec), Ref: m, Type: m.Type}
		return exprStmt(&cxx.Expr{Kind: cxx.ExprMemberCall, Fn: fn, Callee: m,
			Type: m.Type.NonReference(), RValue: true})
	}

	assert.True(t, receiverVerdict(t, body(call(constSibling))))
	assert.False(t, receiverVerdict(t, body(call(mutSibling))))
}

func TestReceiverNoThisExpressionsIsCompatible(t *testing.T) {
	k := intVar("k", 1)
	assign := &cxx.Expr{
		Kind: cxx.ExprBinary, Op: "=",
		LHS:  declRef(k, 2),
		RHS:  &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true},
		Type: cxx.Builtin("int"),
	}
	assert.True(t, receiverVerdict(t, body(exprStmt(assign))))
}
