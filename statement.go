package tern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatement is wrapped by Statement.Validate failures.
var ErrInvalidStatement = errors.New("invalid statement")

// Statement is an RDF quad: subject, predicate, object, and an optional
// graph name. A nil Graph places the statement in the default (unnamed)
// graph. Statement is a comparable value type and implements Term, so a
// statement may itself appear in subject or object position as a quoted
// triple.
type Statement struct {
	Subject   Term // Resource or quoted triple
	Predicate Term // IRI for validity
	Object    Term
	Graph     Term // Resource, or nil for the default graph
}

// Triple returns a statement in the default graph.
func Triple(s, p, o Term) Statement {
	return Statement{Subject: s, Predicate: p, Object: o}
}

// Quad returns a statement in the named graph g.
func Quad(s, p, o, g Term) Statement {
	return Statement{Subject: s, Predicate: p, Object: o, Graph: g}
}

func (Statement) termKind() kind { return kindStatement }

func (st Statement) String() string {
	var b strings.Builder
	b.WriteString(termString(st.Subject))
	b.WriteByte(' ')
	b.WriteString(termString(st.Predicate))
	b.WriteByte(' ')
	b.WriteString(termString(st.Object))
	if st.Graph != nil {
		b.WriteByte(' ')
		b.WriteString(termString(st.Graph))
	}
	b.WriteString(" .")
	return b.String()
}

func termString(t Term) string {
	if t == nil {
		return "_"
	}
	if IsQuotedTriple(t) {
		inner := t.(Statement)
		return "<< " + termString(inner.Subject) + " " + termString(inner.Predicate) + " " + termString(inner.Object) + " >>"
	}
	return t.String()
}

// Valid reports whether the statement satisfies the structural invariant:
// the subject is a resource or quoted triple (never a literal), the
// predicate is an IRI, the object is present, and the graph, when set, is a
// resource. Quoted-triple positions are checked recursively. Construction
// never enforces this; validity is advisory until Validate is called.
func (st Statement) Valid() bool {
	switch {
	case st.Subject == nil, IsLiteral(st.Subject):
		return false
	case IsQuotedTriple(st.Subject) && !st.Subject.(Statement).Valid():
		return false
	case st.Predicate == nil, st.Predicate.termKind() != kindIRI:
		return false
	case st.Object == nil:
		return false
	case IsQuotedTriple(st.Object) && !st.Object.(Statement).Valid():
		return false
	case st.Graph != nil && !IsResource(st.Graph):
		return false
	}
	return true
}

// Invalid is the negation of Valid.
func (st Statement) Invalid() bool { return !st.Valid() }

// Validate returns an error wrapping ErrInvalidStatement when the statement
// is structurally invalid, and nil otherwise.
func (st Statement) Validate() error {
	if st.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidStatement, st.String())
}
