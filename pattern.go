package tern

import (
	"iter"
	"log/slog"
)

// Position weights for the selectivity cost heuristic. Lower total cost
// means a more selective pattern, so join planners order patterns by
// ascending cost.
const (
	costSubject   = 2
	costPredicate = 4
	costObject    = 8
	costGraph     = 1
)

// Multipliers applied to a nested pattern's cost, by the slot it occupies.
// The object multiplier is deliberately 4, not the bare-object weight 8;
// the asymmetry is long-standing observed behavior and is kept as is.
const (
	nestedSubjectFactor = 2
	nestedObjectFactor  = 4
)

// PatternTerm is one position of a Pattern: a constant Term, a *Variable,
// or a nested *Pattern (subject and object slots only, matching quoted
// triples).
type PatternTerm interface {
	patternTerm()
}

func (IRI) patternTerm()          {}
func (BlankNode) patternTerm()    {}
func (Literal) patternTerm()      {}
func (Statement) patternTerm()    {}
func (defaultGraph) patternTerm() {}
func (*Variable) patternTerm()    {}
func (*Pattern) patternTerm()     {}

// Pattern is a statement template. Each position holds a constant term, a
// variable, or a nested pattern. A nil Graph matches statements in any
// graph; DefaultGraph matches only the unnamed graph; a constant resource
// matches only that named graph.
type Pattern struct {
	Subject   PatternTerm
	Predicate PatternTerm
	Object    PatternTerm
	Graph     PatternTerm

	// Optional marks the pattern for left-join-style planning. Stored and
	// carried through Bind; not interpreted here.
	Optional bool

	costOverride *int
}

// NewPattern returns a triple pattern matching any graph. A nil position is
// coerced to a fresh, anonymously named unbound variable.
func NewPattern(s, p, o PatternTerm) *Pattern {
	return &Pattern{
		Subject:   coerce(s),
		Predicate: coerce(p),
		Object:    coerce(o),
	}
}

// NewQuadPattern returns a pattern constrained by graph g: nil matches any
// graph, DefaultGraph only the unnamed graph, a resource only that named
// graph, and a variable binds the graph name.
func NewQuadPattern(s, p, o, g PatternTerm) *Pattern {
	pat := NewPattern(s, p, o)
	pat.Graph = g
	return pat
}

// FromStatement returns the all-constant pattern matching exactly st. A
// statement in the default graph yields a pattern that matches any graph,
// mirroring the triple/quad distinction.
func FromStatement(st Statement) *Pattern {
	pat := &Pattern{Subject: st.Subject, Predicate: st.Predicate, Object: st.Object}
	if st.Graph != nil {
		pat.Graph = st.Graph
	}
	return pat
}

// Var is shorthand for NewVariable(name).
func Var(name string) *Variable { return NewVariable(name) }

func coerce(pt PatternTerm) PatternTerm {
	if pt == nil {
		return NewVariable()
	}
	return pt
}

// =============================================================================
// Cost model
// =============================================================================

// Cost returns the selectivity heuristic for this pattern: unbound subject
// +2, unbound predicate +4, unbound object +8, and +1 for an unbound graph
// variable when a graph constraint is present. Constant and bound-variable
// positions contribute nothing. A nested pattern contributes its own cost
// times 2 in subject position or 4 in object position. SetCost overrides
// the computed value.
func (p *Pattern) Cost() int {
	if p.costOverride != nil {
		return *p.costOverride
	}
	cost := slotCost(p.Subject, costSubject, nestedSubjectFactor)
	cost += slotCost(p.Predicate, costPredicate, 0)
	cost += slotCost(p.Object, costObject, nestedObjectFactor)
	if p.Graph != nil {
		if v, ok := p.Graph.(*Variable); ok && !v.Bound() {
			cost += costGraph
		}
	}
	return cost
}

func slotCost(pt PatternTerm, weight, nestedFactor int) int {
	switch t := pt.(type) {
	case *Variable:
		if !t.Bound() {
			return weight
		}
	case *Pattern:
		return t.Cost() * nestedFactor
	}
	return 0
}

// SetCost overrides the computed cost. Subsequent Cost calls return c.
func (p *Pattern) SetCost(c int) { p.costOverride = &c }

// =============================================================================
// Variable introspection
// =============================================================================

// eachSlot visits the pattern's positions in definition order (subject,
// predicate, object, graph), recursing into nested patterns. The walk stops
// when fn returns false.
func (p *Pattern) eachSlot(fn func(pt PatternTerm) bool) bool {
	slots := []PatternTerm{p.Subject, p.Predicate, p.Object, p.Graph}
	for _, s := range slots {
		if s == nil {
			continue
		}
		if nested, ok := s.(*Pattern); ok {
			if !nested.eachSlot(fn) {
				return false
			}
			continue
		}
		if !fn(s) {
			return false
		}
	}
	return true
}

// Variables returns the pattern's variables keyed by name, including those
// inside nested patterns. A name reused across positions maps to its first
// occurrence in definition order.
func (p *Pattern) Variables() map[string]*Variable {
	vars := make(map[string]*Variable)
	p.eachSlot(func(pt PatternTerm) bool {
		if v, ok := pt.(*Variable); ok {
			if _, seen := vars[v.Name]; !seen {
				vars[v.Name] = v
			}
		}
		return true
	})
	return vars
}

// VariableCount counts variable occurrences, including duplicates of the
// same name inside nested patterns, so it may exceed len(Variables()).
func (p *Pattern) VariableCount() int {
	n := 0
	p.eachSlot(func(pt PatternTerm) bool {
		if _, ok := pt.(*Variable); ok {
			n++
		}
		return true
	})
	return n
}

// BoundVariables returns the named variables that carry a value.
func (p *Pattern) BoundVariables() map[string]*Variable {
	vars := p.Variables()
	for name, v := range vars {
		if !v.Bound() {
			delete(vars, name)
		}
	}
	return vars
}

// UnboundVariables returns the named variables without a value.
func (p *Pattern) UnboundVariables() map[string]*Variable {
	vars := p.Variables()
	for name, v := range vars {
		if v.Bound() {
			delete(vars, name)
		}
	}
	return vars
}

// Bindings returns the values of the pattern's bound variables by name.
func (p *Pattern) Bindings() map[string]Term {
	out := make(map[string]Term)
	for name, v := range p.BoundVariables() {
		out[name] = v.Value()
	}
	return out
}

// BindingCount returns len(Bindings()).
func (p *Pattern) BindingCount() int { return len(p.BoundVariables()) }

// HasVariables reports whether any position, recursively, holds a variable,
// bound or not.
func (p *Pattern) HasVariables() bool {
	found := false
	p.eachSlot(func(pt PatternTerm) bool {
		if _, ok := pt.(*Variable); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsConstant is the negation of HasVariables.
func (p *Pattern) IsConstant() bool { return !p.HasVariables() }

// Bound reports whether the pattern has at least one variable and every
// named variable is bound. A pattern with no variables is neither Bound nor
// Unbound.
func (p *Pattern) Bound() bool {
	vars := p.Variables()
	if len(vars) == 0 {
		return false
	}
	for _, v := range vars {
		if !v.Bound() {
			return false
		}
	}
	return true
}

// Unbound reports whether the pattern has at least one variable and none of
// its named variables are bound.
func (p *Pattern) Unbound() bool {
	vars := p.Variables()
	if len(vars) == 0 {
		return false
	}
	for _, v := range vars {
		if v.Bound() {
			return false
		}
	}
	return true
}

// VariableTerms returns the names of the top-level positions holding an
// unbound variable, among "subject", "predicate", "object", "graph".
//
// Deprecated: enumerate UnboundVariables instead. Each call logs a
// deprecation notice; the returned value is unaffected.
func (p *Pattern) VariableTerms() []string {
	slog.Warn("Pattern.VariableTerms is deprecated and will be removed; use UnboundVariables")
	var names []string
	for _, pos := range []struct {
		name string
		slot PatternTerm
	}{
		{"subject", p.Subject},
		{"predicate", p.Predicate},
		{"object", p.Object},
		{"graph", p.Graph},
	} {
		if v, ok := pos.slot.(*Variable); ok && !v.Bound() {
			names = append(names, pos.name)
		}
	}
	return names
}

// =============================================================================
// Matching, extraction, binding
// =============================================================================

// Matches reports whether st satisfies the pattern's constant constraints:
// constant positions must be equal, bound variables must equal their value,
// unbound variables match anything, and nested patterns require the
// statement's position to be a quoted triple matching recursively.
func (p *Pattern) Matches(st Statement) bool {
	if !slotMatches(p.Subject, st.Subject) {
		return false
	}
	if !slotMatches(p.Predicate, st.Predicate) {
		return false
	}
	if !slotMatches(p.Object, st.Object) {
		return false
	}
	return p.graphMatches(st.Graph)
}

func (p *Pattern) graphMatches(g Term) bool {
	switch t := p.Graph.(type) {
	case nil:
		return true
	case defaultGraph:
		return g == nil
	case *Variable:
		if t.Bound() {
			return g != nil && g == t.Value()
		}
		return true
	default:
		return g != nil && g == p.Graph
	}
}

func slotMatches(pt PatternTerm, t Term) bool {
	switch c := pt.(type) {
	case nil:
		return true
	case *Variable:
		if c.Bound() {
			return t == c.Value()
		}
		return true
	case *Pattern:
		inner, ok := t.(Statement)
		if !ok {
			return false
		}
		return c.Matches(inner)
	default:
		return t == c.(Term)
	}
}

// Values returns, in pattern-definition order, the terms of st that occupy
// positions held by the variable named name, recursing into nested
// patterns. A name appearing in several positions yields one value per
// occurrence. The statement is assumed to match the pattern's shape;
// structurally incompatible nested positions are skipped.
func (p *Pattern) Values(name string, st Statement) []Term {
	var out []Term
	p.eachValue(st, func(v *Variable, t Term) bool {
		if v.Name == name {
			out = append(out, t)
		}
		return true
	})
	return out
}

// eachValue pairs the pattern's variable occurrences with the corresponding
// terms of st, in definition order.
func (p *Pattern) eachValue(st Statement, fn func(v *Variable, t Term) bool) bool {
	pairs := []struct {
		slot PatternTerm
		term Term
	}{
		{p.Subject, st.Subject},
		{p.Predicate, st.Predicate},
		{p.Object, st.Object},
		{p.Graph, st.Graph},
	}
	for _, pair := range pairs {
		switch c := pair.slot.(type) {
		case *Variable:
			if pair.term == nil {
				continue
			}
			if !fn(c, pair.term) {
				return false
			}
		case *Pattern:
			inner, ok := pair.term.(Statement)
			if !ok {
				continue
			}
			if !c.eachValue(inner, fn) {
				return false
			}
		}
	}
	return true
}

// Bind returns a copy of the pattern with every variable whose name appears
// in sol replaced by the bound term. Variables not covered by sol remain in
// place, so the result may still have variables.
func (p *Pattern) Bind(sol Solution) *Pattern {
	out := &Pattern{
		Subject:   bindSlot(p.Subject, sol),
		Predicate: bindSlot(p.Predicate, sol),
		Object:    bindSlot(p.Object, sol),
		Graph:     bindSlot(p.Graph, sol),
		Optional:  p.Optional,
	}
	return out
}

func bindSlot(pt PatternTerm, sol Solution) PatternTerm {
	switch c := pt.(type) {
	case *Variable:
		if t, ok := sol.Get(c.Name); ok {
			return t
		}
		return c
	case *Pattern:
		return c.Bind(sol)
	default:
		return pt
	}
}

// =============================================================================
// Execution
// =============================================================================

// Execute matches the pattern against source and yields one Solution per
// matching statement, merged over the optional pre-supplied bindings
// (statement-derived values win on name collision). The sequence is lazy
// and restartable: each range re-queries source, observing its state at
// that time. Statements whose shape is incompatible with a nested-pattern
// position produce no solution. A query failure is yielded once as a
// non-nil error and ends the sequence.
func (p *Pattern) Execute(source Source, bindings ...Solution) iter.Seq2[Solution, error] {
	var initial Solution
	if len(bindings) > 0 {
		initial = bindings[0]
	}
	return func(yield func(Solution, error) bool) {
		for st, err := range source.QueryPattern(p) {
			if err != nil {
				yield(Solution{}, err)
				return
			}
			sol, ok := p.solutionFor(st)
			if !ok {
				continue
			}
			if !yield(initial.Merge(sol), nil) {
				return
			}
		}
	}
}

// Solution computes the variable bindings for a single statement already
// known to match the pattern's shape. Names bound in several positions take
// the value of their first occurrence in definition order.
func (p *Pattern) Solution(st Statement) Solution {
	sol, _ := p.solutionFor(st)
	return sol
}

func (p *Pattern) solutionFor(st Statement) (Solution, bool) {
	m := make(map[string]Term)
	structurallyOK := true
	p.eachSlotWithTerm(st, func(pt PatternTerm, t Term, ok bool) bool {
		if !ok {
			structurallyOK = false
			return false
		}
		if v, isVar := pt.(*Variable); isVar && t != nil {
			if _, seen := m[v.Name]; !seen {
				m[v.Name] = t
			}
		}
		return true
	})
	if !structurallyOK {
		return Solution{}, false
	}
	return Solution{bindings: m}, true
}

// eachSlotWithTerm walks slots paired with st's terms; ok is false when a
// nested-pattern slot faces a non-quoted-triple term.
func (p *Pattern) eachSlotWithTerm(st Statement, fn func(pt PatternTerm, t Term, ok bool) bool) bool {
	pairs := []struct {
		slot PatternTerm
		term Term
	}{
		{p.Subject, st.Subject},
		{p.Predicate, st.Predicate},
		{p.Object, st.Object},
		{p.Graph, st.Graph},
	}
	for _, pair := range pairs {
		switch c := pair.slot.(type) {
		case *Pattern:
			inner, ok := pair.term.(Statement)
			if !ok {
				return fn(c, pair.term, false)
			}
			if !c.eachSlotWithTerm(inner, fn) {
				return false
			}
		case nil:
			continue
		default:
			if !fn(c, pair.term, true) {
				return false
			}
		}
	}
	return true
}

func (p *Pattern) String() string {
	s := "{ " + patternTermString(p.Subject) + " " + patternTermString(p.Predicate) + " " + patternTermString(p.Object)
	if p.Graph != nil {
		s += " " + patternTermString(p.Graph)
	}
	return s + " }"
}

func patternTermString(pt PatternTerm) string {
	switch c := pt.(type) {
	case nil:
		return "_"
	case *Variable:
		return c.String()
	case *Pattern:
		return c.String()
	default:
		return termString(c.(Term))
	}
}
