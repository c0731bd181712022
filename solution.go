package tern

import (
	"sort"
	"strings"
)

// Solution is an immutable mapping from variable name to bound term,
// produced by matching a Pattern against a Statement. The zero value is an
// empty solution. All derivation goes through Merge, which copies; a
// Solution handed to a caller is never mutated afterward.
type Solution struct {
	bindings map[string]Term
}

// NewSolution returns a solution holding a copy of bindings.
func NewSolution(bindings map[string]Term) Solution {
	if len(bindings) == 0 {
		return Solution{}
	}
	m := make(map[string]Term, len(bindings))
	for k, v := range bindings {
		m[k] = v
	}
	return Solution{bindings: m}
}

// Get returns the term bound to name, if any.
func (s Solution) Get(name string) (Term, bool) {
	t, ok := s.bindings[name]
	return t, ok
}

// Len returns the number of bound names.
func (s Solution) Len() int { return len(s.bindings) }

// Names returns the bound names in sorted order.
func (s Solution) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for k := range s.bindings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new solution containing the union of s and other, with
// other's value winning for names bound in both.
func (s Solution) Merge(other Solution) Solution {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}
	m := make(map[string]Term, len(s.bindings)+len(other.bindings))
	for k, v := range s.bindings {
		m[k] = v
	}
	for k, v := range other.bindings {
		m[k] = v
	}
	return Solution{bindings: m}
}

func (s Solution) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?" + name + "=" + s.bindings[name].String())
	}
	b.WriteByte('}')
	return b.String()
}
