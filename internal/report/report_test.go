package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvarga/constify/internal/cxx"
)

func loc(file string, line, col uint32) cxx.SourceRange {
	return cxx.SourceRange{File: file, StartLine: line, StartCol: col}
}

func TestSetMessageCatalogue(t *testing.T) {
	s := NewSet("main.cpp")

	v := &cxx.Decl{Kind: cxx.DeclVariable, Name: "k", Type: cxx.Builtin("int"), Loc: loc("main.cpp", 3, 7)}
	m := &cxx.Decl{Kind: cxx.DeclMethod, Name: "getValue", Type: cxx.Builtin("int"), Loc: loc("main.cpp", 8, 5)}

	s.VariableCouldBeConst(v)
	s.FunctionCouldBeConst(m)
	s.FunctionCouldBeStatic(m)
	s.VariableDeclared(v)
	s.FunctionDeclared(m)
	s.VariableChanged("k", cxx.Builtin("int"), loc("main.cpp", 4, 3))
	s.SymbolUsed("k", cxx.ReferenceTo(cxx.Builtin("int")), loc("main.cpp", 5, 3))

	diags := s.Diagnostics()
	require.Len(t, diags, 7)

	assert.Equal(t, "variable 'k' could be declared as const", diags[0].Message)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, "function 'getValue' could be declared as const", diags[1].Message)
	assert.Equal(t, "function 'getValue' could be declared as static", diags[2].Message)
	assert.Equal(t, "variable 'k' declared here", diags[3].Message)
	assert.Equal(t, SeverityNote, diags[3].Severity)
	assert.Equal(t, "function 'getValue' declared here", diags[4].Message)
	assert.Equal(t, "variable 'k' with type 'int' was changed", diags[5].Message)
	assert.Equal(t, "symbol 'k' was used with type 'int &'", diags[6].Message)

	warnings, notes := s.Counts()
	assert.Equal(t, 3, warnings)
	assert.Equal(t, 4, notes)
}

func TestSetDropsOtherFilesAndInvalidLocations(t *testing.T) {
	s := NewSet("main.cpp")

	header := &cxx.Decl{Kind: cxx.DeclVariable, Name: "h", Type: cxx.Builtin("int"), Loc: loc("util.h", 2, 1)}
	nowhere := &cxx.Decl{Kind: cxx.DeclVariable, Name: "n", Type: cxx.Builtin("int")}

	s.VariableCouldBeConst(header)
	s.VariableCouldBeConst(nowhere)

	assert.Empty(t, s.Diagnostics())
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  "variable 'k' could be declared as const",
		File:     "main.cpp",
		Line:     3,
		Column:   7,
	}
	assert.Equal(t, "main.cpp:3:7: warning: variable 'k' could be declared as const", d.String())
}
