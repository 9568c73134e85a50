// Package cxx elaborates tree-sitter C++ parse trees into a typed AST narrow
// enough for constness analysis: canonical declarations, qualified types, and
// classified expressions with implicit nodes (this-bases, lvalue-to-rvalue
// casts) synthesized where the analysis depends on them.
package cxx

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kvarga/constify/pkg/parser"
)

// Elaborate lowers a parse result into a translation unit. Subtrees the
// elaborator cannot classify become Other nodes, which every analysis treats
// as transparent; only a nil parse is an error.
func Elaborate(res *parser.ParseResult) (*TranslationUnit, error) {
	if res == nil {
		return nil, fmt.Errorf("no parse result")
	}
	if res.Tree == nil {
		return nil, fmt.Errorf("no parse tree for %s", res.Path)
	}

	e := &elaborator{
		src:     res.Source,
		path:    res.Path,
		unit:    &TranslationUnit{Path: res.Path},
		records: make(map[string]*Record),
		funcs:   make(map[string][]*Decl),
		globals: make(map[string]*Decl),
	}

	e.collect(res.Tree.RootNode(), "")
	for _, p := range e.pending {
		e.elaborateBody(p)
	}
	return e.unit, nil
}

type pendingBody struct {
	fn   *Decl
	rec  *Record
	body *sitter.Node
	ns   string
}

type elaborator struct {
	src  []byte
	path string
	unit *TranslationUnit

	records map[string]*Record
	funcs   map[string][]*Decl // free-function overload sets by qualified name
	globals map[string]*Decl

	pending []pendingBody

	// Body elaboration state.
	scopes []map[string]*Decl
	curFn  *Decl
	curRec *Record
	curNS  string
}

func (e *elaborator) text(n *sitter.Node) string {
	return parser.GetNodeText(n, e.src)
}

func (e *elaborator) rangeOf(n *sitter.Node) SourceRange {
	if n == nil {
		return SourceRange{}
	}
	return SourceRange{
		File:      e.path,
		StartLine: n.StartPoint().Row + 1,
		StartCol:  n.StartPoint().Column + 1,
		EndLine:   n.EndPoint().Row + 1,
		EndCol:    n.EndPoint().Column + 1,
	}
}

// collect walks declaration scopes (translation unit, namespaces) and records
// every type, function, and global. Bodies are deferred so that forward
// references and out-of-line definitions resolve against a complete table.
func (e *elaborator) collect(n *sitter.Node, ns string) {
	for _, child := range parser.NamedChildren(n) {
		switch child.Type() {
		case "function_definition":
			e.collectFunctionDefinition(child, ns, nil)
		case "declaration":
			e.collectDeclaration(child, ns)
		case "class_specifier", "struct_specifier":
			e.collectRecord(child, ns)
		case "namespace_definition":
			inner := ns
			if name := child.ChildByFieldName("name"); name != nil {
				inner = qualify(ns, e.text(name))
			}
			if body := child.ChildByFieldName("body"); body != nil {
				e.collect(body, inner)
			}
		case "linkage_specification":
			if body := child.ChildByFieldName("body"); body != nil {
				e.collect(body, ns)
			}
		case "preproc_include", "preproc_def", "comment", "using_declaration":
			// Not part of the elaborated view.
		}
	}
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "::" + name
}

// collectDeclaration handles a namespace-scope declaration node: a record
// definition, a function prototype, or global variables.
func (e *elaborator) collectDeclaration(n *sitter.Node, ns string) {
	if spec := findChildOfType(n, "class_specifier", "struct_specifier"); spec != nil {
		e.collectRecord(spec, ns)
		// A declarator alongside the specifier declares a global of that type.
	}

	base := e.baseType(n, ns)
	for _, d := range declaratorsOf(n) {
		name, typ, fd := e.applyDeclarator(base, d)
		if name == "" {
			continue
		}
		if fd != nil {
			e.declareFreeFunction(qualify(ns, name), name, typ, fd, e.rangeOf(n))
			continue
		}
		qname := qualify(ns, name)
		if _, ok := e.globals[qname]; ok {
			continue
		}
		g := &Decl{
			Kind:      DeclVariable,
			Name:      name,
			Qualified: qname,
			Type:      typ,
			Loc:       e.rangeOf(d),
		}
		e.globals[qname] = g
		e.unit.Globals = append(e.unit.Globals, g)
	}
}

func (e *elaborator) declareFreeFunction(qname, name string, ret *Type, fd *sitter.Node, loc SourceRange) *Decl {
	params := e.parseParams(fd)
	if existing := matchOverload(e.funcs[qname], params); existing != nil {
		return existing
	}
	fn := &Decl{
		Kind:      DeclFunction,
		Name:      name,
		Qualified: qname,
		Type:      ret,
		Params:    params,
		Loc:       loc,
	}
	e.funcs[qname] = append(e.funcs[qname], fn)
	return fn
}

func matchOverload(set []*Decl, params []*Decl) *Decl {
	for _, fn := range set {
		if len(fn.Params) != len(params) {
			continue
		}
		same := true
		for i := range params {
			if fn.Params[i].Type.String() != params[i].Type.String() {
				same = false
				break
			}
		}
		if same {
			return fn
		}
	}
	return nil
}

// collectRecord parses a class or struct specifier. Forward declarations and
// the definition share one Record.
func (e *elaborator) collectRecord(n *sitter.Node, ns string) *Record {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	qname := qualify(ns, e.text(nameNode))
	rec, ok := e.records[qname]
	if !ok {
		rec = &Record{Name: e.text(nameNode), Qualified: qname, Loc: e.rangeOf(n)}
		e.records[qname] = rec
		e.unit.Records = append(e.unit.Records, rec)
	}

	body := n.ChildByFieldName("body")
	if body == nil || rec.Defined {
		return rec
	}
	rec.Defined = true
	rec.Loc = e.rangeOf(n)

	for _, child := range parser.NamedChildren(n) {
		if child.Type() == "base_class_clause" {
			for _, b := range parser.NamedChildren(child) {
				if b.Type() == "type_identifier" {
					rec.Bases = append(rec.Bases, e.recordByName(qualify(ns, e.text(b)), e.text(b)))
				}
			}
		}
	}

	for _, member := range parser.NamedChildren(body) {
		switch member.Type() {
		case "field_declaration", "declaration":
			e.collectMember(rec, member, ns)
		case "function_definition":
			e.collectFunctionDefinition(member, ns, rec)
		case "class_specifier", "struct_specifier":
			e.collectRecord(member, qname)
		case "access_specifier", "comment":
		}
	}
	return rec
}

// recordByName resolves a base-class name, preferring the current namespace.
func (e *elaborator) recordByName(qname, bare string) *Record {
	if rec, ok := e.records[qname]; ok {
		return rec
	}
	if rec, ok := e.records[bare]; ok {
		return rec
	}
	rec := &Record{Name: bare, Qualified: qname}
	e.records[qname] = rec
	return rec
}

// collectMember parses one in-class member declaration: a field, a method
// prototype, or an operator/constructor/destructor/conversion declaration.
func (e *elaborator) collectMember(rec *Record, n *sitter.Node, ns string) {
	quals := MethodQuals{UserProvided: true}
	for _, child := range parser.NamedChildren(n) {
		switch child.Type() {
		case "virtual", "virtual_function_specifier":
			quals.Virtual = true
		case "storage_class_specifier":
			if e.text(child) == "static" {
				quals.Static = true
			}
		case "default_method_clause", "delete_method_clause":
			quals.UserProvided = false
		}
	}

	base := e.baseType(n, ns)
	ds := declaratorsOf(n)
	if len(ds) == 0 {
		// Conversion operators have no return type and the operator_cast node
		// is the declarator itself.
		if cast := findChildOfType(n, "operator_cast"); cast != nil {
			quals.Conversion = true
			e.addMethod(rec, "operator "+e.typeDescriptorText(cast), Void(), nil, quals, e.rangeOf(n))
		}
		return
	}

	for _, d := range ds {
		name, typ, fd := e.applyDeclarator(base, d)
		if fd == nil {
			if name == "" {
				continue
			}
			field := &Decl{
				Kind:      DeclField,
				Name:      name,
				Qualified: qualify(rec.Qualified, name),
				Type:      typ,
				Owner:     rec,
				Loc:       e.rangeOf(d),
			}
			rec.Fields = append(rec.Fields, field)
			continue
		}
		q := quals
		e.classifyMethodName(rec, &q, name, typ)
		params := e.parseParams(fd)
		if q.CopyAssign {
			q.CopyAssign = isCopyAssignSignature(rec, params)
		}
		if hasTrailingConst(fd) {
			q.Const = true
		}
		e.addMethod(rec, name, typ, params, q, e.rangeOf(d))
	}
}

// classifyMethodName sets constructor/destructor/operator flags from the
// declarator name.
func (e *elaborator) classifyMethodName(rec *Record, quals *MethodQuals, name string, ret *Type) {
	switch {
	case strings.HasPrefix(name, "~"):
		quals.Destructor = true
	case name == rec.Name && (ret == nil || ret.Kind == TypeUnknown):
		quals.Constructor = true
	case name == "operator=":
		quals.CopyAssign = true
	case strings.HasPrefix(name, "operator "):
		quals.Conversion = true
	}
}

// isCopyAssignSignature checks that operator= takes the record (by value,
// reference, or const reference), not some unrelated type.
func isCopyAssignSignature(rec *Record, params []*Decl) bool {
	if len(params) != 1 {
		return false
	}
	t := params[0].Type.NonReference()
	return t.IsRecord() && t.Record == rec
}

func (e *elaborator) addMethod(rec *Record, name string, ret *Type, params []*Decl, quals MethodQuals, loc SourceRange) *Decl {
	for _, m := range rec.Methods {
		if m.Name == name && m.Quals.Const == quals.Const && matchOverload([]*Decl{m}, params) != nil {
			return m
		}
	}
	m := &Decl{
		Kind:      DeclMethod,
		Name:      name,
		Qualified: qualify(rec.Qualified, name),
		Type:      ret,
		Params:    params,
		Owner:     rec,
		Quals:     quals,
		Loc:       loc,
	}
	rec.Methods = append(rec.Methods, m)
	return m
}

// collectFunctionDefinition handles a function_definition node: a free
// function, an inline method (rec != nil), or an out-of-line method whose
// declarator is a qualified identifier.
func (e *elaborator) collectFunctionDefinition(n *sitter.Node, ns string, rec *Record) {
	quals := MethodQuals{UserProvided: true}
	for _, child := range parser.NamedChildren(n) {
		switch child.Type() {
		case "virtual", "virtual_function_specifier":
			quals.Virtual = true
		case "storage_class_specifier":
			if e.text(child) == "static" && rec != nil {
				quals.Static = true
			}
		}
	}

	base := e.baseType(n, ns)
	decl := n.ChildByFieldName("declarator")
	name, ret, fd := e.applyDeclarator(base, decl)
	if fd == nil || name == "" {
		return
	}
	params := e.parseParams(fd)
	if hasTrailingConst(fd) {
		quals.Const = true
	}

	var fn *Decl
	switch {
	case rec != nil:
		e.classifyMethodName(rec, &quals, name, ret)
		if quals.CopyAssign {
			quals.CopyAssign = isCopyAssignSignature(rec, params)
		}
		fn = e.addMethod(rec, name, ret, params, quals, e.rangeOf(n))
		fn.Params = params
	case strings.Contains(name, "::"):
		scope, bare := splitQualified(name)
		owner := e.recordByName(qualify(ns, scope), scope)
		fn = e.findMethodForDefinition(owner, bare, params, quals.Const)
		if fn == nil {
			e.classifyMethodName(owner, &quals, bare, ret)
			fn = e.addMethod(owner, bare, ret, params, quals, e.rangeOf(n))
		}
		fn.Params = params
		rec = owner
	default:
		fn = e.declareFreeFunction(qualify(ns, name), name, ret, fd, e.rangeOf(n))
		fn.Params = params
	}

	if fn.Loc.File == "" || fn.Body == nil {
		fn.Loc = e.rangeOf(n)
	}
	if body := n.ChildByFieldName("body"); body != nil && fn.Body == nil {
		e.unit.Functions = append(e.unit.Functions, fn)
		e.pending = append(e.pending, pendingBody{fn: fn, rec: rec, body: body, ns: ns})
	}
}

func splitQualified(name string) (scope, bare string) {
	idx := strings.LastIndex(name, "::")
	return name[:idx], name[idx+2:]
}

// findMethodForDefinition matches an out-of-line definition against the
// in-class declaration so that both share one canonical Decl.
func (e *elaborator) findMethodForDefinition(rec *Record, name string, params []*Decl, isConst bool) *Decl {
	var byName []*Decl
	for _, m := range rec.Methods {
		if m.Name == name {
			byName = append(byName, m)
		}
	}
	for _, m := range byName {
		if m.Quals.Const == isConst && len(m.Params) == len(params) {
			return m
		}
	}
	if len(byName) == 1 {
		return byName[0]
	}
	return nil
}

// hasTrailingConst reports a cv-qualifier on the function declarator itself.
func hasTrailingConst(fd *sitter.Node) bool {
	for i := 0; i < int(fd.ChildCount()); i++ {
		c := fd.Child(i)
		if c.Type() == "type_qualifier" {
			return true
		}
	}
	return false
}

func findChildOfType(n *sitter.Node, types ...string) *sitter.Node {
	for _, child := range parser.NamedChildren(n) {
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

// declaratorsOf returns the declarator children of a declaration-like node.
func declaratorsOf(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range parser.NamedChildren(n) {
		switch child.Type() {
		case "init_declarator", "identifier", "field_identifier",
			"pointer_declarator", "reference_declarator", "function_declarator",
			"array_declarator", "parenthesized_declarator", "qualified_identifier",
			"operator_name", "destructor_name":
			out = append(out, child)
		}
	}
	// The grammar exposes the primary declarator as a field on definitions.
	if len(out) == 0 {
		if d := n.ChildByFieldName("declarator"); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// baseType parses the declaration specifiers of a node: cv-qualifiers plus the
// type specifier, before any declarator shaping.
func (e *elaborator) baseType(n *sitter.Node, ns string) *Type {
	var t *Type
	isConst := false
	for _, child := range parser.NamedChildren(n) {
		switch child.Type() {
		case "type_qualifier":
			if e.text(child) == "const" {
				isConst = true
			}
		case "primitive_type", "sized_type_specifier":
			spelling := e.text(child)
			if spelling == "void" {
				t = Void()
			} else {
				t = Builtin(spelling)
			}
		case "type_identifier":
			t = e.namedType(qualify(ns, e.text(child)), e.text(child))
		case "qualified_identifier":
			t = e.namedType(e.text(child), e.text(child))
		case "class_specifier", "struct_specifier":
			if rec := e.collectRecord(child, ns); rec != nil {
				t = RecordType(rec)
			}
		}
		// Specifiers precede the declarator; stop at the first declarator-ish child.
		if child.Type() == "init_declarator" || strings.HasSuffix(child.Type(), "_declarator") {
			break
		}
	}
	if t == nil {
		t = &Type{Kind: TypeUnknown}
	}
	if isConst {
		t = t.WithConst()
	}
	return t
}

func (e *elaborator) namedType(qname, bare string) *Type {
	if rec, ok := e.records[qname]; ok {
		return RecordType(rec)
	}
	if rec, ok := e.records[bare]; ok {
		return RecordType(rec)
	}
	return &Type{Kind: TypeUnknown, Spelling: bare}
}

// applyDeclarator shapes the base type through a declarator and extracts the
// declared name. A non-nil third result is the function_declarator node when
// the entity is a function.
func (e *elaborator) applyDeclarator(base *Type, d *sitter.Node) (string, *Type, *sitter.Node) {
	if d == nil {
		return "", base, nil
	}
	switch d.Type() {
	case "identifier", "field_identifier", "type_identifier", "qualified_identifier":
		return e.text(d), base, nil
	case "destructor_name":
		return e.text(d), base, nil
	case "operator_name":
		return e.text(d), base, nil
	case "init_declarator":
		return e.applyDeclarator(base, d.ChildByFieldName("declarator"))
	case "parenthesized_declarator":
		for _, c := range parser.NamedChildren(d) {
			return e.applyDeclarator(base, c)
		}
		return "", base, nil
	case "pointer_declarator":
		ptr := PointerTo(base)
		for _, c := range parser.NamedChildren(d) {
			if c.Type() == "type_qualifier" && e.text(c) == "const" {
				ptr = ptr.WithConst()
			}
		}
		return e.applyDeclarator(ptr, d.ChildByFieldName("declarator"))
	case "reference_declarator":
		ref := ReferenceTo(base)
		for _, c := range parser.NamedChildren(d) {
			if c.Type() != "type_qualifier" {
				return e.applyDeclarator(ref, c)
			}
		}
		return "", ref, nil
	case "array_declarator":
		return e.applyDeclarator(PointerTo(base), d.ChildByFieldName("declarator"))
	case "function_declarator":
		name, typ, _ := e.applyDeclarator(base, d.ChildByFieldName("declarator"))
		return name, typ, d
	case "abstract_pointer_declarator":
		ptr := PointerTo(base)
		for _, c := range parser.NamedChildren(d) {
			return e.applyDeclarator(ptr, c)
		}
		return "", ptr, nil
	case "abstract_reference_declarator":
		return "", ReferenceTo(base), nil
	default:
		return "", base, nil
	}
}

// parseParams extracts the parameter declarations of a function declarator.
func (e *elaborator) parseParams(fd *sitter.Node) []*Decl {
	list := fd.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []*Decl
	for _, p := range parser.NamedChildren(list) {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			base := e.baseType(p, "")
			name, typ, _ := e.applyDeclarator(base, p.ChildByFieldName("declarator"))
			params = append(params, &Decl{
				Kind:      DeclParam,
				Name:      name,
				Qualified: name,
				Type:      typ,
				Loc:       e.rangeOf(p),
			})
		case "variadic_parameter_declaration":
			params = append(params, &Decl{
				Kind: DeclParam,
				Type: &Type{Kind: TypeUnknown, Spelling: "..."},
				Loc:  e.rangeOf(p),
			})
		}
	}
	return params
}

func (e *elaborator) typeDescriptorText(n *sitter.Node) string {
	for _, c := range parser.NamedChildren(n) {
		if c.Type() == "primitive_type" || c.Type() == "type_identifier" {
			return e.text(c)
		}
	}
	return e.text(n)
}
