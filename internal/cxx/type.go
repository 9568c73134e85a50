package cxx

import "strings"

// TypeKind classifies the shape of a type.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeVoid
	TypeBuiltin
	TypeRecord
	TypePointer
	TypeReference
)

// Type is a qualified type as seen at a declaration or use site.
type Type struct {
	Kind     TypeKind
	Const    bool  // top-level const qualifier
	Pointee  *Type // element type for pointers and references
	Record   *Record
	Spelling string // builtin spelling ("int", "double") or record name
}

// Builtin returns a builtin type with the given spelling.
func Builtin(spelling string) *Type {
	return &Type{Kind: TypeBuiltin, Spelling: spelling}
}

// Void returns the void type.
func Void() *Type {
	return &Type{Kind: TypeVoid, Spelling: "void"}
}

// RecordType returns the type of a class or struct.
func RecordType(r *Record) *Type {
	name := ""
	if r != nil {
		name = r.Name
	}
	return &Type{Kind: TypeRecord, Record: r, Spelling: name}
}

// PointerTo returns a pointer to t.
func PointerTo(t *Type) *Type {
	return &Type{Kind: TypePointer, Pointee: t}
}

// ReferenceTo returns a reference to t.
func ReferenceTo(t *Type) *Type {
	return &Type{Kind: TypeReference, Pointee: t}
}

// WithConst returns a const-qualified copy of t.
func (t *Type) WithConst() *Type {
	if t == nil || t.Const {
		return t
	}
	c := *t
	c.Const = true
	return &c
}

// IsReference reports whether t is a reference type.
func (t *Type) IsReference() bool {
	return t != nil && t.Kind == TypeReference
}

// IsPointer reports whether t is a pointer type.
func (t *Type) IsPointer() bool {
	return t != nil && t.Kind == TypePointer
}

// IsBuiltin reports whether t is a builtin arithmetic type.
func (t *Type) IsBuiltin() bool {
	return t != nil && t.Kind == TypeBuiltin
}

// IsRecord reports whether t is a class or struct type.
func (t *Type) IsRecord() bool {
	return t != nil && t.Kind == TypeRecord
}

// PointeeType returns the element type of a pointer or reference, or nil.
func (t *Type) PointeeType() *Type {
	if t == nil {
		return nil
	}
	return t.Pointee
}

// PointeeConst reports whether the pointee of a pointer or reference is const.
func (t *Type) PointeeConst() bool {
	return t != nil && t.Pointee != nil && t.Pointee.Const
}

// NonReference strips one level of reference, mirroring QualType::getNonReferenceType.
func (t *Type) NonReference() *Type {
	if t.IsReference() {
		return t.Pointee
	}
	return t
}

// IsConstQualified reports the top-level const qualifier.
func (t *Type) IsConstQualified() bool {
	return t != nil && t.Const
}

// String renders the type the way diagnostics spell it: "const int &", "int *".
func (t *Type) String() string {
	if t == nil {
		return "<unknown>"
	}
	switch t.Kind {
	case TypePointer:
		s := t.Pointee.String() + " *"
		if t.Const {
			s += "const"
		}
		return s
	case TypeReference:
		return t.Pointee.String() + " &"
	default:
		var b strings.Builder
		if t.Const {
			b.WriteString("const ")
		}
		if t.Spelling != "" {
			b.WriteString(t.Spelling)
		} else {
			b.WriteString("<unknown>")
		}
		return b.String()
	}
}
