package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvarga/constify/internal/cxx"
	"github.com/kvarga/constify/internal/report"
)

func runUnit(unit *cxx.TranslationUnit, mode Mode, cl Classifier) []report.Diagnostic {
	diags := report.NewSet(unit.Path)
	New(mode, cl).Run(unit, diags)
	return diags.Diagnostics()
}

func messages(diags []report.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}

// void f() { int k = 0; k = 1; }
func TestAggregatorMutatedLocalGetsNoWarning(t *testing.T) {
	k := intVar("k", 1)
	k.Init = &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true}
	assign := &cxx.Expr{
		Kind: cxx.ExprBinary, Op: "=",
		LHS:  declRef(k, 1),
		RHS:  &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true},
		Type: cxx.Builtin("int"),
	}
	fn := &cxx.Decl{Kind: cxx.DeclFunction, Name: "f", Qualified: "f", Type: cxx.Void(),
		Locals: []*cxx.Decl{k},
		Body:   body(&cxx.Stmt{Kind: cxx.StmtDecl, Decls: []*cxx.Decl{k}}, exprStmt(assign)),
		Loc:    cxx.SourceRange{File: "test.cpp", StartLine: 1, StartCol: 1},
	}
	unit := &cxx.TranslationUnit{Path: "test.cpp", Functions: []*cxx.Decl{fn}}

	diags := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	assert.Empty(t, diags)
}

// void f(int k) { int j = k; }
func TestAggregatorUntouchedParameterGetsWarning(t *testing.T) {
	k := &cxx.Decl{Kind: cxx.DeclParam, Name: "k", Qualified: "k", Type: cxx.Builtin("int"),
		Loc: cxx.SourceRange{File: "test.cpp", StartLine: 1, StartCol: 8}}
	j := intVar("j", 2)
	j.Init = &cxx.Expr{Kind: cxx.ExprImplicitCast, Sub: declRef(k, 2), Type: cxx.Builtin("int"), RValue: true}
	fn := &cxx.Decl{Kind: cxx.DeclFunction, Name: "f", Qualified: "f", Type: cxx.Void(),
		Params: []*cxx.Decl{k},
		Locals: []*cxx.Decl{j},
		Body:   body(&cxx.Stmt{Kind: cxx.StmtDecl, Decls: []*cxx.Decl{j}}),
		Loc:    cxx.SourceRange{File: "test.cpp", StartLine: 1, StartCol: 1},
	}
	unit := &cxx.TranslationUnit{Path: "test.cpp", Functions: []*cxx.Decl{fn}}

	diags := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	assert.Contains(t, messages(diags), "variable 'k' could be declared as const")
	assert.Contains(t, messages(diags), "variable 'j' could be declared as const")
}

// class Value { int m; int getValue(); }; int Value::getValue() { return m; }
func makeGetValueUnit() (*cxx.TranslationUnit, *cxx.Decl) {
	rec := &cxx.Record{Name: "Value", Qualified: "Value", Defined: true,
		Loc: cxx.SourceRange{File: "test.cpp", StartLine: 1, StartCol: 1}}
	field := &cxx.Decl{Kind: cxx.DeclField, Name: "m", Qualified: "Value::m",
		Type: cxx.Builtin("int"), Owner: rec,
		Loc: cxx.SourceRange{File: "test.cpp", StartLine: 2, StartCol: 3}}
	rec.Fields = []*cxx.Decl{field}

	getValue := &cxx.Decl{Kind: cxx.DeclMethod, Name: "getValue", Qualified: "Value::getValue",
		Type: cxx.Builtin("int"), Owner: rec,
		Quals: cxx.MethodQuals{UserProvided: true},
		Loc:   cxx.SourceRange{File: "test.cpp", StartLine: 3, StartCol: 3}}
	rec.Methods = []*cxx.Decl{getValue}

	this := &cxx.Expr{Kind: cxx.ExprThis, Type: cxx.PointerTo(cxx.RecordType(rec)), RValue: true}
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: this, Ref: field, Type: field.Type,
		Loc: cxx.SourceRange{File: "test.cpp", StartLine: 3, StartCol: 27}}
	read := &cxx.Expr{Kind: cxx.ExprImplicitCast, Sub: member, Type: cxx.Builtin("int"), RValue: true}
	getValue.Body = body(&cxx.Stmt{Kind: cxx.StmtReturn, Expr: read})

	return &cxx.TranslationUnit{
		Path:      "test.cpp",
		Records:   []*cxx.Record{rec},
		Functions: []*cxx.Decl{getValue},
	}, getValue
}

func TestAggregatorReadOnlyMethodCouldBeConst(t *testing.T) {
	for _, cl := range []Classifier{ClassifierReceiver, ClassifierCounting} {
		unit, _ := makeGetValueUnit()
		diags := runUnit(unit, ModePseudoConstness, cl)
		assert.Contains(t, messages(diags), "function 'getValue' could be declared as const")
		assert.NotContains(t, messages(diags), "function 'getValue' could be declared as static")
	}
}

func TestAggregatorFieldWritingMethodIsNotConst(t *testing.T) {
	for _, cl := range []Classifier{ClassifierReceiver, ClassifierCounting} {
		unit, getValue := makeGetValueUnit()
		rec := unit.Records[0]
		field := rec.Fields[0]

		this := &cxx.Expr{Kind: cxx.ExprThis, Type: cxx.PointerTo(cxx.RecordType(rec)), RValue: true}
		member := &cxx.Expr{Kind: cxx.ExprMember, Base: this, Ref: field, Type: field.Type}
		getValue.Body = body(exprStmt(&cxx.Expr{
			Kind: cxx.ExprBinary, Op: "=",
			LHS:  member,
			RHS:  &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true},
			Type: cxx.Builtin("int"),
		}))

		diags := runUnit(unit, ModePseudoConstness, cl)
		for _, m := range messages(diags) {
			assert.NotContains(t, m, "function 'getValue'")
		}
	}
}

func TestAggregatorThisFreeMethodCouldBeStatic(t *testing.T) {
	for _, cl := range []Classifier{ClassifierReceiver, ClassifierCounting} {
		unit, getValue := makeGetValueUnit()
		k := intVar("k", 4)
		getValue.Locals = []*cxx.Decl{k}
		getValue.Body = body(
			&cxx.Stmt{Kind: cxx.StmtDecl, Decls: []*cxx.Decl{k}},
			&cxx.Stmt{Kind: cxx.StmtReturn, Expr: &cxx.Expr{
				Kind: cxx.ExprImplicitCast, Sub: declRef(k, 4), Type: cxx.Builtin("int"), RValue: true,
			}},
		)

		diags := runUnit(unit, ModePseudoConstness, cl)
		assert.Contains(t, messages(diags), "function 'getValue' could be declared as static")
	}
}

func TestAggregatorConstMethodWithoutThisCouldBeStatic(t *testing.T) {
	for _, cl := range []Classifier{ClassifierReceiver, ClassifierCounting} {
		unit, getValue := makeGetValueUnit()
		getValue.Quals.Const = true
		k := intVar("k", 4)
		getValue.Locals = []*cxx.Decl{k}
		getValue.Body = body(
			&cxx.Stmt{Kind: cxx.StmtDecl, Decls: []*cxx.Decl{k}},
			&cxx.Stmt{Kind: cxx.StmtReturn, Expr: &cxx.Expr{
				Kind: cxx.ExprImplicitCast, Sub: declRef(k, 4), Type: cxx.Builtin("int"), RValue: true,
			}},
		)

		diags := runUnit(unit, ModePseudoConstness, cl)
		assert.Contains(t, messages(diags), "function 'getValue' could be declared as static")
	}
}

func TestAggregatorConstMethodGetsNoConstSuggestion(t *testing.T) {
	for _, cl := range []Classifier{ClassifierReceiver, ClassifierCounting} {
		unit, getValue := makeGetValueUnit()
		getValue.Quals.Const = true

		diags := runUnit(unit, ModePseudoConstness, cl)
		for _, m := range messages(diags) {
			assert.NotContains(t, m, "function 'getValue'")
		}
	}
}

func TestAggregatorSkipsSpecialMembers(t *testing.T) {
	unit, getValue := makeGetValueUnit()
	getValue.Quals.Virtual = true

	diags := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	for _, m := range messages(diags) {
		assert.NotContains(t, m, "function 'getValue'")
	}
}

func TestAggregatorFiltersToPrimaryFile(t *testing.T) {
	unit, getValue := makeGetValueUnit()
	getValue.Loc.File = "value.h"

	diags := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	for _, d := range diags {
		assert.Equal(t, "test.cpp", d.File)
	}
	assert.NotContains(t, messages(diags), "function 'getValue' could be declared as const")
}

func TestAggregatorIsIdempotent(t *testing.T) {
	unit, _ := makeGetValueUnit()
	first := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	second := runUnit(unit, ModePseudoConstness, ClassifierReceiver)
	assert.Equal(t, first, second)
}

func TestModeFunctionDeclaration(t *testing.T) {
	unit, _ := makeGetValueUnit()
	diags := runUnit(unit, ModeFunctionDeclaration, ClassifierReceiver)
	require.Len(t, diags, 1)
	assert.Equal(t, "function 'getValue' declared here", diags[0].Message)
	assert.Equal(t, report.SeverityNote, diags[0].Severity)
}

func TestModeVariableDeclaration(t *testing.T) {
	unit, _ := makeGetValueUnit()
	diags := runUnit(unit, ModeVariableDeclaration, ClassifierReceiver)
	assert.Contains(t, messages(diags), "variable 'm' declared here")
}

func TestModeVariableUsages(t *testing.T) {
	unit, _ := makeGetValueUnit()
	diags := runUnit(unit, ModeVariableUsages, ClassifierReceiver)
	assert.Contains(t, messages(diags), "symbol 'm' was used with type 'int'")
}

func TestModeVariableChanges(t *testing.T) {
	unit, getValue := makeGetValueUnit()
	rec := unit.Records[0]
	field := rec.Fields[0]
	this := &cxx.Expr{Kind: cxx.ExprThis, Type: cxx.PointerTo(cxx.RecordType(rec)), RValue: true}
	member := &cxx.Expr{Kind: cxx.ExprMember, Base: this, Ref: field, Type: field.Type,
		Loc: cxx.SourceRange{File: "test.cpp", StartLine: 3, StartCol: 20}}
	getValue.Body = body(exprStmt(&cxx.Expr{
		Kind: cxx.ExprBinary, Op: "=",
		LHS:  member,
		RHS:  &cxx.Expr{Kind: cxx.ExprLiteral, Type: cxx.Builtin("int"), RValue: true},
		Type: cxx.Builtin("int"),
	}))

	diags := runUnit(unit, ModeVariableChanges, ClassifierReceiver)
	assert.Contains(t, messages(diags), "variable 'm' with type 'int' was changed")
}
