package tern

import "fmt"

// Term is an RDF term: an IRI, a blank node, a literal, or a Statement used
// as a quoted triple. All implementations are comparable value types, so a
// Term (and a Statement built from Terms) can key a map.
type Term interface {
	fmt.Stringer

	// termKind discriminates implementations without reflection.
	termKind() kind

	// patternTerm makes every Term usable as a constant Pattern position.
	patternTerm()
}

type kind int

const (
	kindIRI kind = iota
	kindBlankNode
	kindLiteral
	kindStatement
	kindDefaultGraph
)

// IRI is an internationalized resource identifier.
type IRI string

func (IRI) termKind() kind { return kindIRI }

func (i IRI) String() string { return "<" + string(i) + ">" }

// BlankNode is a graph-scoped anonymous resource label (without the "_:"
// prefix).
type BlankNode string

func (BlankNode) termKind() kind { return kindBlankNode }

func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is a lexical value with an optional language tag or datatype.
// A literal may only appear in object position of a valid Statement.
type Literal struct {
	Value    string
	Language string
	Datatype IRI
}

func (Literal) termKind() kind { return kindLiteral }

func (l Literal) String() string {
	switch {
	case l.Language != "":
		return fmt.Sprintf("%q@%s", l.Value, l.Language)
	case l.Datatype != "":
		return fmt.Sprintf("%q^^%s", l.Value, l.Datatype.String())
	default:
		return fmt.Sprintf("%q", l.Value)
	}
}

// NewLiteral returns a plain literal with the given lexical value.
func NewLiteral(value string) Literal { return Literal{Value: value} }

// defaultGraph is the reserved marker for the unnamed-graph bucket. It never
// appears inside a stored Statement; it is only meaningful as a Pattern graph
// constraint.
type defaultGraph struct{}

func (defaultGraph) termKind() kind { return kindDefaultGraph }

func (defaultGraph) String() string { return "DEFAULT" }

// DefaultGraph constrains a Pattern to statements in the unnamed (default)
// graph. A nil graph constraint, by contrast, matches statements in any
// graph.
var DefaultGraph Term = defaultGraph{}

// RDF vocabulary terms used by the list encoding.
var (
	RDFType  = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	RDFFirst = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#first")
	RDFRest  = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#rest")
	RDFNil   = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil")
	RDFList  = IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#List")
)

// IsResource reports whether t is an IRI or a blank node.
func IsResource(t Term) bool {
	if t == nil {
		return false
	}
	k := t.termKind()
	return k == kindIRI || k == kindBlankNode
}

// IsLiteral reports whether t is a Literal.
func IsLiteral(t Term) bool {
	return t != nil && t.termKind() == kindLiteral
}

// IsQuotedTriple reports whether t is a Statement used as a term.
func IsQuotedTriple(t Term) bool {
	return t != nil && t.termKind() == kindStatement
}

// compareTerms orders terms by their string form, used for elementwise list
// ordering.
func compareTerms(a, b Term) int {
	as, bs := "", ""
	if a != nil {
		as = a.String()
	}
	if b != nil {
		bs = b.String()
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
