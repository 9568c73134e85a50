package cxx

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Record is a class or struct definition.
type Record struct {
	Name      string
	Qualified string
	Bases     []*Record // direct bases only; walk transitively via collectors
	Fields    []*Decl
	Methods   []*Decl
	Defined   bool
	Loc       SourceRange

	key DeclKey
}

// Key returns the canonical identity of the record.
func (r *Record) Key() DeclKey {
	if r.key != 0 {
		return r.key
	}
	h := xxhash.New()
	fmt.Fprintf(h, "record|%s", r.Qualified)
	r.key = DeclKey(h.Sum64())
	return r.key
}

// FindMethods returns the methods of this record with the given name.
// Direct members only; overload sets across bases are resolved by callers.
func (r *Record) FindMethods(name string) []*Decl {
	var out []*Decl
	for _, m := range r.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FindField returns the field with the given name, searching bases
// breadth-first, or nil.
func (r *Record) FindField(name string) *Decl {
	seen := map[DeclKey]bool{}
	queue := []*Record{r}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur.Key()] {
			continue
		}
		seen[cur.Key()] = true
		for _, f := range cur.Fields {
			if f.Name == name {
				return f
			}
		}
		queue = append(queue, cur.Bases...)
	}
	return nil
}

// LookupMethods returns the overload set with the given name, searching bases
// breadth-first. Nearer declarations hide farther ones with the same name.
func (r *Record) LookupMethods(name string) []*Decl {
	seen := map[DeclKey]bool{}
	queue := []*Record{r}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur.Key()] {
			continue
		}
		seen[cur.Key()] = true
		if ms := cur.FindMethods(name); len(ms) > 0 {
			return ms
		}
		queue = append(queue, cur.Bases...)
	}
	return nil
}
