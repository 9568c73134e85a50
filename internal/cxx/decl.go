package cxx

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SourceRange is a half-open span in a source file. Lines and columns are
// one-based to match compiler diagnostics.
type SourceRange struct {
	File      string
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// Valid reports whether the range points anywhere.
func (r SourceRange) Valid() bool {
	return r.StartLine > 0
}

func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.StartLine, r.StartCol)
}

// DeclKey is the canonical identity of a declaration. Redeclarations of the
// same logical entity share one key.
type DeclKey uint64

// DeclKind classifies a declaration.
type DeclKind int

const (
	DeclVariable DeclKind = iota
	DeclParam
	DeclField
	DeclFunction
	DeclMethod
)

func (k DeclKind) String() string {
	switch k {
	case DeclVariable:
		return "variable"
	case DeclParam:
		return "parameter"
	case DeclField:
		return "field"
	case DeclFunction:
		return "function"
	case DeclMethod:
		return "method"
	default:
		return "unknown"
	}
}

// MethodQuals carries the qualifiers of a member function.
type MethodQuals struct {
	Const        bool
	Static       bool
	Virtual      bool
	UserProvided bool
	Constructor  bool
	Destructor   bool
	Conversion   bool
	CopyAssign   bool
}

// Decl is a named declaration: a variable, parameter, field, function, or
// method. The elaborator guarantees one Decl per logical entity, so pointer
// equality and Key() agree.
type Decl struct {
	Kind      DeclKind
	Name      string
	Qualified string // scope-qualified name, e.g. "Value::getValue"
	Type      *Type  // for functions: the return type
	Init      *Expr  // variable initializer, nil otherwise
	Loc       SourceRange

	// Function and method declarations.
	Params []*Decl
	Locals []*Decl // every VarDecl in the body, nested blocks included
	Body   *Stmt   // nil unless this declaration is a definition
	Owner  *Record // owning record for fields and methods
	Quals  MethodQuals

	key DeclKey
}

// Key returns the canonical identity, computing it on first use.
// Block-scoped entities include their location so that shadowing declarations
// in sibling scopes stay distinct.
func (d *Decl) Key() DeclKey {
	if d.key != 0 {
		return d.key
	}
	h := xxhash.New()
	fmt.Fprintf(h, "%d|%s", d.Kind, d.Qualified)
	if d.Kind == DeclVariable || d.Kind == DeclParam {
		fmt.Fprintf(h, "|%s:%d:%d", d.Loc.File, d.Loc.StartLine, d.Loc.StartCol)
	}
	if d.Kind == DeclFunction || d.Kind == DeclMethod {
		for _, p := range d.Params {
			fmt.Fprintf(h, "|%s", p.Type.String())
		}
	}
	d.key = DeclKey(h.Sum64())
	return d.key
}

// IsDefinition reports whether this function or method declaration has a body.
func (d *Decl) IsDefinition() bool {
	return d.Body != nil
}

// IsConstQualified reports whether the declared type, after stripping one
// reference level, is const.
func (d *Decl) IsConstQualified() bool {
	return d.Type.NonReference().IsConstQualified()
}

// IsMethod reports whether the declaration is a member function.
func (d *Decl) IsMethod() bool {
	return d.Kind == DeclMethod
}
