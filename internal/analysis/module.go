package analysis

import (
	"github.com/kvarga/constify/internal/cxx"
	"github.com/kvarga/constify/internal/report"
)

// Mode selects what the analyzer emits for a translation unit.
type Mode int

const (
	// ModePseudoConstness runs the full aggregator and emits warnings.
	ModePseudoConstness Mode = iota
	// ModeFunctionDeclaration notes every function and method definition.
	ModeFunctionDeclaration
	// ModeVariableDeclaration notes every variable visible in each definition.
	ModeVariableDeclaration
	// ModeVariableUsages notes every recorded reference per body.
	ModeVariableUsages
	// ModeVariableChanges notes every recorded mutation per body.
	ModeVariableChanges
)

// Classifier selects how methods are judged pseudo-const.
type Classifier int

const (
	// ClassifierReceiver walks the parent chain of every this expression.
	ClassifierReceiver Classifier = iota
	// ClassifierCounting counts mutated fields and referenced sibling methods.
	ClassifierCounting
)

// MethodClassification is the aggregator's verdict for one method definition.
type MethodClassification int

const (
	MethodNone MethodClassification = iota
	MethodConstCandidate
	MethodStaticCandidate
)

// Analyzer runs one of the analysis modes over a translation unit. State is
// per-instance; a fresh analyzer per unit keeps units independent.
type Analyzer struct {
	mode       Mode
	classifier Classifier

	vars    *ConstnessState
	methods []methodVerdict
	globals map[cxx.DeclKey]*cxx.Decl
}

type methodVerdict struct {
	method *cxx.Decl
	class  MethodClassification
}

// New creates an analyzer for the given mode and method classifier.
func New(mode Mode, classifier Classifier) *Analyzer {
	return &Analyzer{
		mode:       mode,
		classifier: classifier,
		vars:       NewConstnessState(),
	}
}

// Run analyzes every definition in the unit and emits diagnostics to the set.
func (a *Analyzer) Run(unit *cxx.TranslationUnit, diags *report.Set) {
	a.globals = make(map[cxx.DeclKey]*cxx.Decl, len(unit.Globals))
	for _, g := range unit.Globals {
		a.globals[g.Key()] = g
	}
	for _, fn := range unit.Definitions() {
		a.analyzeDefinition(fn, diags)
	}
	if a.mode == ModePseudoConstness {
		a.emitVerdicts(diags)
	}
}

func (a *Analyzer) analyzeDefinition(fn *cxx.Decl, diags *report.Set) {
	scope := AnalyzeScope(fn.Body)
	vars := a.variablesInScope(fn, scope)

	switch a.mode {
	case ModeFunctionDeclaration:
		diags.FunctionDeclared(fn)

	case ModeVariableDeclaration:
		for _, v := range vars {
			diags.VariableDeclared(v)
		}

	case ModeVariableUsages:
		for _, u := range scope.Referenced() {
			diags.SymbolUsed(u.Decl.Name, u.Type, u.Loc)
		}

	case ModeVariableChanges:
		for _, u := range scope.Changed() {
			diags.VariableChanged(u.Decl.Name, u.Type, u.Loc)
		}

	case ModePseudoConstness:
		for _, v := range vars {
			a.vars.Eval(scope, v)
		}
		if isPlainMethod(fn) && !fn.Quals.Static {
			class := a.classifyMethod(fn, scope)
			// An already-const method can still be a static candidate, but
			// const candidacy would suggest what the declaration has.
			if fn.Quals.Const && class == MethodConstCandidate {
				class = MethodNone
			}
			a.methods = append(a.methods, methodVerdict{method: fn, class: class})
		}
	}
}

// variablesInScope enumerates the declarations whose constness this definition
// gives evidence about. Plain functions include their parameters; ordinary
// methods do not, but see their class's fields. Special members (constructors,
// destructors, virtual and copy-assignment methods) keep their parameters.
// Globals count only where the body actually touches them.
func (a *Analyzer) variablesInScope(fn *cxx.Decl, scope *ScopeResult) []*cxx.Decl {
	includeParams := !isPlainMethod(fn)
	vars := Locals(fn, includeParams)
	if fn.Owner != nil {
		vars = append(vars, Fields(fn.Owner)...)
	}
	for _, u := range scope.Referenced() {
		if _, ok := a.globals[u.Decl.Key()]; ok {
			vars = append(vars, u.Decl)
		}
	}
	for _, u := range scope.Changed() {
		if _, ok := a.globals[u.Decl.Key()]; ok {
			vars = append(vars, u.Decl)
		}
	}
	return dedupeDecls(vars)
}

func dedupeDecls(ds []*cxx.Decl) []*cxx.Decl {
	seen := make(map[cxx.DeclKey]bool, len(ds))
	out := ds[:0]
	for _, d := range ds {
		if !seen[d.Key()] {
			seen[d.Key()] = true
			out = append(out, d)
		}
	}
	return out
}

// isPlainMethod reports an ordinary user-provided member function: not
// virtual, not a constructor, destructor, conversion, or copy assignment.
// Only these are eligible for const and static suggestions.
func isPlainMethod(fn *cxx.Decl) bool {
	if !fn.IsMethod() {
		return false
	}
	q := fn.Quals
	return q.UserProvided && !q.Virtual &&
		!q.Constructor && !q.Destructor && !q.Conversion && !q.CopyAssign
}

// classifyMethod decides const/static candidacy for an eligible method using
// the configured classifier.
func (a *Analyzer) classifyMethod(fn *cxx.Decl, scope *ScopeResult) MethodClassification {
	if a.classifier == ClassifierCounting {
		return classifyByCounting(fn, scope)
	}
	return classifyByReceiver(fn, scope)
}

// classifyByCounting follows the field and sibling-method tallies: a method
// mutating no field and calling no mutating sibling is a const candidate, and
// if it touches no field or sibling at all, a static candidate.
func classifyByCounting(fn *cxx.Decl, scope *ScopeResult) MethodClassification {
	fields := Fields(fn.Owner)
	methods := Methods(fn.Owner)

	mutatedFields := 0
	for _, f := range fields {
		if scope.WasChanged(f) {
			mutatedFields++
		}
	}
	mutatingCalls := 0
	for _, m := range methods {
		if !m.Quals.Static && !m.Quals.Const && scope.WasReferenced(m) {
			mutatingCalls++
		}
	}
	if mutatedFields > 0 || mutatingCalls > 0 {
		return MethodNone
	}

	usedFields := 0
	for _, f := range fields {
		if scope.WasReferenced(f) {
			usedFields++
		}
	}
	usedMethods := 0
	for _, m := range methods {
		if !m.Quals.Static && scope.WasReferenced(m) {
			usedMethods++
		}
	}
	if usedFields == 0 && usedMethods == 0 {
		return MethodStaticCandidate
	}
	return MethodConstCandidate
}

// classifyByReceiver walks the this-expression parent chains: a body with no
// this expression is a static candidate, a body whose every this use is
// const-compatible is a const candidate.
func classifyByReceiver(fn *cxx.Decl, scope *ScopeResult) MethodClassification {
	hasThis := false
	cxx.WalkExprs(fn.Body, func(e *cxx.Expr) bool {
		if e.Kind == cxx.ExprThis {
			hasThis = true
			return false
		}
		return true
	})
	if !hasThis {
		return MethodStaticCandidate
	}
	parents := cxx.BuildParentMap(fn.Body)
	if ReceiverCompatibleWithConst(fn.Body, parents) {
		return MethodConstCandidate
	}
	return MethodNone
}

// emitVerdicts reports the surviving variable candidates and the method
// classifications.
func (a *Analyzer) emitVerdicts(diags *report.Set) {
	for _, v := range a.vars.Candidates() {
		diags.VariableCouldBeConst(v)
	}
	for _, mv := range a.methods {
		switch mv.class {
		case MethodConstCandidate:
			diags.FunctionCouldBeConst(mv.method)
		case MethodStaticCandidate:
			diags.FunctionCouldBeStatic(mv.method)
		}
	}
}
