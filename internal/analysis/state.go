package analysis

import (
	"github.com/kvarga/constify/internal/cxx"
)

// VariableState is the per-declaration verdict of the aggregator.
type VariableState int

const (
	StateUnknown VariableState = iota
	StateCandidate
	StateDisqualified
)

func (s VariableState) String() string {
	switch s {
	case StateCandidate:
		return "candidate"
	case StateDisqualified:
		return "disqualified"
	default:
		return "unknown"
	}
}

// ConstnessState tracks every variable observed across scopes. Transitions are
// monotone toward disqualified, so scopes can be evaluated in any order.
type ConstnessState struct {
	candidates   map[cxx.DeclKey]*cxx.Decl
	disqualified map[cxx.DeclKey]*cxx.Decl
	order        []*cxx.Decl
}

func NewConstnessState() *ConstnessState {
	return &ConstnessState{
		candidates:   make(map[cxx.DeclKey]*cxx.Decl),
		disqualified: make(map[cxx.DeclKey]*cxx.Decl),
	}
}

// Eval folds one scope's evidence about a variable into the state. A mutation
// disqualifies the variable and its whole alias chain; a clean scope promotes
// it to candidate unless something already disqualified it or the declaration
// is const to begin with.
func (s *ConstnessState) Eval(res *ScopeResult, v *cxx.Decl) {
	if res.WasChanged(v) {
		for _, ref := range TransitiveReferents(v) {
			s.disqualify(ref)
		}
		return
	}
	key := v.Key()
	if _, out := s.disqualified[key]; out {
		return
	}
	if v.IsConstQualified() {
		return
	}
	if _, ok := s.candidates[key]; !ok {
		s.candidates[key] = v
		s.order = append(s.order, v)
	}
}

func (s *ConstnessState) disqualify(v *cxx.Decl) {
	key := v.Key()
	if _, ok := s.disqualified[key]; ok {
		return
	}
	s.disqualified[key] = v
	delete(s.candidates, key)
}

// StateOf reports the current verdict for a declaration.
func (s *ConstnessState) StateOf(v *cxx.Decl) VariableState {
	if _, ok := s.disqualified[v.Key()]; ok {
		return StateDisqualified
	}
	if _, ok := s.candidates[v.Key()]; ok {
		return StateCandidate
	}
	return StateUnknown
}

// Candidates returns the surviving candidates in first-observation order.
func (s *ConstnessState) Candidates() []*cxx.Decl {
	var out []*cxx.Decl
	for _, v := range s.order {
		if _, ok := s.candidates[v.Key()]; ok {
			out = append(out, v)
		}
	}
	return out
}
