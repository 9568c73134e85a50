// Package report defines the diagnostic records the analysis emits and the
// message catalogue they render with.
package report

import (
	"fmt"

	"github.com/kvarga/constify/internal/cxx"
)

// Severity of a diagnostic record.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityNote
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "note"
}

// Diagnostic is one emitted record, anchored at a source location.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     uint32   `json:"line"`
	Column   uint32   `json:"column"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// Set accumulates diagnostics for one translation unit, dropping records
// anchored outside the primary input file.
type Set struct {
	primary string
	diags   []Diagnostic
}

// NewSet creates a sink filtered to the given primary file.
func NewSet(primaryFile string) *Set {
	return &Set{primary: primaryFile}
}

func (s *Set) add(sev Severity, loc cxx.SourceRange, format string, args ...any) {
	if !loc.Valid() || loc.File != s.primary {
		return
	}
	s.diags = append(s.diags, Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		File:     loc.File,
		Line:     loc.StartLine,
		Column:   loc.StartCol,
	})
}

// VariableCouldBeConst reports a pseudo-const variable at its declaration.
func (s *Set) VariableCouldBeConst(v *cxx.Decl) {
	s.add(SeverityWarning, v.Loc, "variable '%s' could be declared as const", v.Name)
}

// FunctionCouldBeConst reports a pseudo-const method at its declaration.
func (s *Set) FunctionCouldBeConst(m *cxx.Decl) {
	s.add(SeverityWarning, m.Loc, "function '%s' could be declared as const", m.Name)
}

// FunctionCouldBeStatic reports a pseudo-static method at its declaration.
func (s *Set) FunctionCouldBeStatic(m *cxx.Decl) {
	s.add(SeverityWarning, m.Loc, "function '%s' could be declared as static", m.Name)
}

// VariableDeclared notes a variable declaration.
func (s *Set) VariableDeclared(v *cxx.Decl) {
	s.add(SeverityNote, v.Loc, "variable '%s' declared here", v.Name)
}

// FunctionDeclared notes a function or method declaration.
func (s *Set) FunctionDeclared(fn *cxx.Decl) {
	s.add(SeverityNote, fn.Loc, "function '%s' declared here", fn.Name)
}

// VariableChanged notes one recorded mutation with the type it went through.
func (s *Set) VariableChanged(name string, typ *cxx.Type, loc cxx.SourceRange) {
	s.add(SeverityNote, loc, "variable '%s' with type '%s' was changed", name, typeSpelling(typ))
}

// SymbolUsed notes one recorded reference with the type seen at the use site.
func (s *Set) SymbolUsed(name string, typ *cxx.Type, loc cxx.SourceRange) {
	s.add(SeverityNote, loc, "symbol '%s' was used with type '%s'", name, typeSpelling(typ))
}

func typeSpelling(t *cxx.Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}

// Diagnostics returns the accumulated records in emission order.
func (s *Set) Diagnostics() []Diagnostic {
	return s.diags
}

// Counts returns the number of warnings and notes.
func (s *Set) Counts() (warnings, notes int) {
	for _, d := range s.diags {
		if d.Severity == SeverityWarning {
			warnings++
		} else {
			notes++
		}
	}
	return warnings, notes
}
