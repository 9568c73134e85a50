package cxx

// TranslationUnit is the elaborated view of one parsed source file. It is
// immutable once the elaborator returns it; analyses share it freely.
type TranslationUnit struct {
	// Path of the primary input file.
	Path string

	// Records in declaration order.
	Records []*Record

	// Functions holds every function and method declaration that carries a
	// body, in source order.
	Functions []*Decl

	// Globals holds file-scope and namespace-scope variables.
	Globals []*Decl
}

// InPrimaryFile reports whether a location belongs to the primary input file,
// as opposed to an included header.
func (u *TranslationUnit) InPrimaryFile(loc SourceRange) bool {
	return loc.Valid() && loc.File == u.Path
}

// Definitions returns the function and method definitions in source order.
func (u *TranslationUnit) Definitions() []*Decl {
	defs := make([]*Decl, 0, len(u.Functions))
	for _, f := range u.Functions {
		if f.IsDefinition() {
			defs = append(defs, f)
		}
	}
	return defs
}
