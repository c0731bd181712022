package tern

import (
	"fmt"
)

// List is a singly linked list structurally encoded as statements: node N
// carries exactly one (N, rdf:first, value) and one (N, rdf:rest, next)
// statement, with RDFNil terminating the chain. A List is a view over a
// shared Graph, not an owner of it; mutations edit shared state, and the
// head subject changes whenever Unshift or Shift replaces the first node,
// invalidating references that captured the old subject.
type List struct {
	subject Term
	graph   Graph
}

// ListOption configures list construction.
type ListOption func(*listConfig)

type listConfig struct {
	subject       Term
	values        []Term
	transactional bool
}

// WithHead names the list's head resource. When the head has no rdf:first
// statement in the graph yet and initial values are supplied, the values
// get fresh interior nodes and the given head is attached as the outermost
// node, so it stays the list's externally visible subject.
func WithHead(subject Term) ListOption {
	return func(c *listConfig) { c.subject = subject }
}

// WithValues supplies the list's initial values.
func WithValues(values ...Term) ListOption {
	return func(c *listConfig) { c.values = values }
}

// Transactional wraps construction in a transaction on the backing graph,
// so a failure partway through leaves no partially built encoding behind.
func Transactional() ListOption {
	return func(c *listConfig) { c.transactional = true }
}

// NewList builds a list view over graph. A nil graph gets a fresh in-memory
// repository. With no options the result is the canonical empty list.
func NewList(graph Graph, opts ...ListOption) (*List, error) {
	if graph == nil {
		graph = NewRepository()
	}
	var cfg listConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &List{subject: RDFNil, graph: graph}

	if cfg.transactional {
		outer := graph
		err := graph.Transact(true, func(tx *Transaction) error {
			l.graph = tx
			return l.initialize(cfg)
		})
		l.graph = outer
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	if err := l.initialize(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// ListOf builds a fresh list in graph from values.
func ListOf(graph Graph, values ...Term) (*List, error) {
	return NewList(graph, WithValues(values...))
}

func (l *List) initialize(cfg listConfig) error {
	fresh := true
	if cfg.subject != nil {
		first, err := firstObject(l.graph, cfg.subject, RDFFirst)
		if err != nil {
			return fmt.Errorf("new list: %w", err)
		}
		if first != nil {
			// The head already designates an existing list; values are
			// simply prepended to it.
			l.subject = cfg.subject
			fresh = false
		}
	}
	for i := len(cfg.values) - 1; i >= 0; i-- {
		if err := l.Unshift(cfg.values[i]); err != nil {
			return fmt.Errorf("new list: %w", err)
		}
	}
	if cfg.subject != nil && fresh && l.subject != RDFNil && l.subject != cfg.subject {
		// Rename the generated outermost node to the caller-supplied head.
		if err := l.renameHead(cfg.subject); err != nil {
			return fmt.Errorf("new list: %w", err)
		}
	}
	return nil
}

func (l *List) renameHead(to Term) error {
	first, err := firstObject(l.graph, l.subject, RDFFirst)
	if err != nil {
		return err
	}
	rest, err := firstObject(l.graph, l.subject, RDFRest)
	if err != nil {
		return err
	}
	for _, st := range []Statement{
		Triple(l.subject, RDFFirst, first),
		Triple(l.subject, RDFRest, rest),
	} {
		if err := l.graph.Delete(st); err != nil {
			return err
		}
	}
	if err := l.graph.Insert(Triple(to, RDFFirst, first)); err != nil {
		return err
	}
	if err := l.graph.Insert(Triple(to, RDFRest, rest)); err != nil {
		return err
	}
	l.subject = to
	return nil
}

// Subject returns the list's current head resource.
func (l *List) Subject() Term { return l.subject }

// Graph returns the backing store the list is a view of.
func (l *List) Graph() Graph { return l.graph }

// Empty reports whether the list has no elements.
func (l *List) Empty() bool { return l.subject == RDFNil }

// =============================================================================
// Traversal
// =============================================================================

// eachNode walks the node chain from the head, stopping at RDFNil or when
// fn returns false. The walk aborts with an error on a cycle, so a
// malformed encoding cannot hang a traversal.
func (l *List) eachNode(fn func(node Term) (bool, error)) error {
	visited := make(map[Term]struct{})
	node := l.subject
	for node != RDFNil {
		if node == nil {
			return fmt.Errorf("list: broken chain at %s", termString(l.subject))
		}
		if _, seen := visited[node]; seen {
			return fmt.Errorf("list: cycle at %s", termString(node))
		}
		visited[node] = struct{}{}
		cont, err := fn(node)
		if err != nil || !cont {
			return err
		}
		next, err := firstObject(l.graph, node, RDFRest)
		if err != nil {
			return err
		}
		node = next
	}
	return nil
}

// Terms materializes the list's values in order.
func (l *List) Terms() ([]Term, error) {
	var out []Term
	err := l.eachNode(func(node Term) (bool, error) {
		v, err := firstObject(l.graph, node, RDFFirst)
		if err != nil {
			return false, err
		}
		out = append(out, v)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return out, nil
}

// Length returns the number of elements, by full traversal.
func (l *List) Length() (int, error) {
	n := 0
	err := l.eachNode(func(Term) (bool, error) {
		n++
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("list length: %w", err)
	}
	return n, nil
}

// At returns the element at index i, or nil when i is out of range.
// Negative indices count from the end.
func (l *List) At(i int) (Term, error) {
	terms, err := l.Terms()
	if err != nil {
		return nil, err
	}
	if i < 0 {
		i += len(terms)
	}
	if i < 0 || i >= len(terms) {
		return nil, nil
	}
	return terms[i], nil
}

// Fetch returns the element at index i, or an error wrapping ErrNotFound
// when i is out of range.
func (l *List) Fetch(i int) (Term, error) {
	t, err := l.At(i)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("list fetch %d: %w", i, ErrNotFound)
	}
	return t, nil
}

// FetchDefault returns the element at index i, or def when out of range.
func (l *List) FetchDefault(i int, def Term) (Term, error) {
	t, err := l.At(i)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return def, nil
	}
	return t, nil
}

// FetchFunc returns the element at index i, or fallback(i) when out of
// range.
func (l *List) FetchFunc(i int, fallback func(int) Term) (Term, error) {
	t, err := l.At(i)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return fallback(i), nil
	}
	return t, nil
}

// First returns the first element, or nil when empty.
func (l *List) First() (Term, error) { return l.At(0) }

// Last returns the last element, or nil when empty.
func (l *List) Last() (Term, error) { return l.At(-1) }

// Index returns the position of the first element equal to value.
func (l *List) Index(value Term) (int, bool, error) {
	terms, err := l.Terms()
	if err != nil {
		return 0, false, err
	}
	for i, t := range terms {
		if t == value {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// Slice returns n elements starting at index i as a materialized sequence.
// Negative i counts from the end; an out-of-range start yields nil.
func (l *List) Slice(i, n int) ([]Term, error) {
	terms, err := l.Terms()
	if err != nil {
		return nil, err
	}
	if i < 0 {
		i += len(terms)
	}
	if i < 0 || i > len(terms) || n < 0 {
		return nil, nil
	}
	end := i + n
	if end > len(terms) {
		end = len(terms)
	}
	return terms[i:end], nil
}

// =============================================================================
// Mutation
// =============================================================================

// normalizeValue maps a nil value to the RDFNil sentinel so every first
// statement has an object.
func normalizeValue(v Term) Term {
	if v == nil {
		return RDFNil
	}
	return v
}

// Unshift prepends value, relocating the head to a fresh node. O(1).
func (l *List) Unshift(value Term) error {
	node := NewBlankNode()
	if err := l.graph.Insert(Triple(node, RDFFirst, normalizeValue(value))); err != nil {
		return fmt.Errorf("list unshift: %w", err)
	}
	if err := l.graph.Insert(Triple(node, RDFRest, l.subject)); err != nil {
		return fmt.Errorf("list unshift: %w", err)
	}
	l.subject = node
	return nil
}

// Shift removes and returns the first element, relocating the head to the
// next node. Returns nil on an empty list.
func (l *List) Shift() (Term, error) {
	if l.Empty() {
		return nil, nil
	}
	value, err := firstObject(l.graph, l.subject, RDFFirst)
	if err != nil {
		return nil, fmt.Errorf("list shift: %w", err)
	}
	rest, err := firstObject(l.graph, l.subject, RDFRest)
	if err != nil {
		return nil, fmt.Errorf("list shift: %w", err)
	}
	if err := l.graph.Delete(Triple(l.subject, RDFFirst, value)); err != nil {
		return nil, fmt.Errorf("list shift: %w", err)
	}
	if err := l.graph.Delete(Triple(l.subject, RDFRest, rest)); err != nil {
		return nil, fmt.Errorf("list shift: %w", err)
	}
	if rest == nil {
		rest = RDFNil
	}
	l.subject = rest
	return value, nil
}

// Push appends value. Locating the last node is O(n); the edit itself is a
// fixed number of statement operations.
func (l *List) Push(value Term) error {
	value = normalizeValue(value)
	if l.Empty() {
		return l.Unshift(value)
	}
	var last Term
	err := l.eachNode(func(node Term) (bool, error) {
		last = node
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("list push: %w", err)
	}
	node := NewBlankNode()
	if err := l.graph.Delete(Triple(last, RDFRest, RDFNil)); err != nil {
		return fmt.Errorf("list push: %w", err)
	}
	if err := l.graph.Insert(Triple(last, RDFRest, node)); err != nil {
		return fmt.Errorf("list push: %w", err)
	}
	if err := l.graph.Insert(Triple(node, RDFFirst, value)); err != nil {
		return fmt.Errorf("list push: %w", err)
	}
	if err := l.graph.Insert(Triple(node, RDFRest, RDFNil)); err != nil {
		return fmt.Errorf("list push: %w", err)
	}
	return nil
}

// Clear removes the entire physical encoding and resets the head to the
// empty-list sentinel.
func (l *List) Clear() error {
	var nodes []Term
	err := l.eachNode(func(node Term) (bool, error) {
		nodes = append(nodes, node)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("list clear: %w", err)
	}
	for _, node := range nodes {
		stmts, err := statementsAbout(l.graph, node)
		if err != nil {
			return fmt.Errorf("list clear: %w", err)
		}
		for _, st := range stmts {
			if st.Predicate != RDFFirst && st.Predicate != RDFRest && st.Predicate != RDFType {
				continue
			}
			if err := l.graph.Delete(st); err != nil {
				return fmt.Errorf("list clear: %w", err)
			}
		}
	}
	l.subject = RDFNil
	return nil
}

// Set replaces the element at index i. Negative indices count from the end;
// an index beyond the current length pads the gap with the RDFNil sentinel.
// Unlike Unshift and Shift, the head subject is preserved.
func (l *List) Set(i int, value Term) error {
	return l.SetSlice(i, 1, value)
}

// SetSlice replaces n elements starting at index i with values, the
// range-assignment form: the list is materialized, edited in memory,
// cleared, and rebuilt under the same head. Negative i counts from the end;
// i beyond the current length pads with the RDFNil sentinel; n is clamped
// to the tail.
func (l *List) SetSlice(i, n int, values ...Term) error {
	if n < 0 {
		return fmt.Errorf("list set slice: negative length %d", n)
	}
	terms, err := l.Terms()
	if err != nil {
		return fmt.Errorf("list set slice: %w", err)
	}
	if i < 0 {
		i += len(terms)
		if i < 0 {
			return fmt.Errorf("list set slice: index out of range")
		}
	}
	for j := range values {
		values[j] = normalizeValue(values[j])
	}
	for len(terms) < i {
		terms = append(terms, RDFNil)
	}
	end := i + n
	if end > len(terms) {
		end = len(terms)
	}
	edited := make([]Term, 0, len(terms)-(end-i)+len(values))
	edited = append(edited, terms[:i]...)
	edited = append(edited, values...)
	edited = append(edited, terms[end:]...)
	if err := l.rebuild(edited); err != nil {
		return fmt.Errorf("list set slice: %w", err)
	}
	return nil
}

// rebuild clears the physical encoding and re-creates it from terms,
// keeping the previous head subject when there was one.
func (l *List) rebuild(terms []Term) error {
	head := l.subject
	if err := l.Clear(); err != nil {
		return err
	}
	if len(terms) == 0 {
		return nil
	}
	// Chain the tail back to front out of fresh nodes, then attach the
	// retained head as the outermost node.
	next := Term(RDFNil)
	for i := len(terms) - 1; i >= 1; i-- {
		node := Term(NewBlankNode())
		if err := l.graph.Insert(Triple(node, RDFFirst, terms[i])); err != nil {
			return err
		}
		if err := l.graph.Insert(Triple(node, RDFRest, next)); err != nil {
			return err
		}
		next = node
	}
	if head == RDFNil {
		head = NewBlankNode()
	}
	if err := l.graph.Insert(Triple(head, RDFFirst, terms[0])); err != nil {
		return err
	}
	if err := l.graph.Insert(Triple(head, RDFRest, next)); err != nil {
		return err
	}
	l.subject = head
	return nil
}

// =============================================================================
// Shape validity
// =============================================================================

// Valid walks the chain from the head and reports whether the encoding
// satisfies the list shape: no cycles, exactly one rdf:first and one
// rdf:rest per node, every rest a fresh node or the end sentinel, no stray
// statements on interior nodes, and exactly one incoming reference per node
// other than the head.
func (l *List) Valid() bool {
	if l.subject == RDFNil {
		return true
	}
	var nodes []Term
	visited := make(map[Term]struct{})
	node := l.subject
	for node != RDFNil {
		if node == nil {
			return false
		}
		if _, seen := visited[node]; seen {
			return false // cycle
		}
		visited[node] = struct{}{}
		nodes = append(nodes, node)

		firsts, err := objectsOf(l.graph, node, RDFFirst)
		if err != nil || len(firsts) != 1 {
			return false
		}
		rests, err := objectsOf(l.graph, node, RDFRest)
		if err != nil || len(rests) != 1 {
			return false
		}
		rest := rests[0]
		if rest != RDFNil {
			if _, ok := rest.(BlankNode); !ok {
				return false
			}
		}
		if node != l.subject {
			stmts, err := statementsAbout(l.graph, node)
			if err != nil {
				return false
			}
			for _, st := range stmts {
				switch st.Predicate {
				case RDFFirst, RDFRest, RDFType:
				default:
					return false
				}
			}
		}
		node = rest
	}
	// Interior nodes must have exactly one incoming reference; the head may
	// have none.
	for _, n := range nodes {
		if n == l.subject {
			continue
		}
		refs, err := countMatching(l.graph, NewQuadPattern(nil, nil, n, nil))
		if err != nil || refs != 1 {
			return false
		}
	}
	return true
}

// =============================================================================
// Derived lists and comparison
// =============================================================================

// derive materializes the result values into a new, independent list in a
// fresh in-memory repository; neither operand is mutated.
func derive(values []Term) (*List, error) {
	return ListOf(NewRepository(), values...)
}

// Intersect returns a new list of the elements present in both operands,
// preserving l's order and dropping duplicates.
func (l *List) Intersect(other *List) (*List, error) {
	a, err := l.Terms()
	if err != nil {
		return nil, err
	}
	b, err := other.Terms()
	if err != nil {
		return nil, err
	}
	inB := make(map[Term]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	var out []Term
	seen := make(map[Term]struct{})
	for _, t := range a {
		if _, ok := inB[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return derive(out)
}

// Union returns a new list of the elements of both operands, in order of
// first appearance, without duplicates.
func (l *List) Union(other *List) (*List, error) {
	a, err := l.Terms()
	if err != nil {
		return nil, err
	}
	b, err := other.Terms()
	if err != nil {
		return nil, err
	}
	var out []Term
	seen := make(map[Term]struct{})
	for _, t := range append(a, b...) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return derive(out)
}

// Concat returns a new list of l's elements followed by other's.
func (l *List) Concat(other *List) (*List, error) {
	a, err := l.Terms()
	if err != nil {
		return nil, err
	}
	b, err := other.Terms()
	if err != nil {
		return nil, err
	}
	return derive(append(a, b...))
}

// Difference returns a new list of l's elements not present in other.
func (l *List) Difference(other *List) (*List, error) {
	a, err := l.Terms()
	if err != nil {
		return nil, err
	}
	b, err := other.Terms()
	if err != nil {
		return nil, err
	}
	inB := make(map[Term]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	var out []Term
	for _, t := range a {
		if _, ok := inB[t]; !ok {
			out = append(out, t)
		}
	}
	return derive(out)
}

// Repeat returns a new list of l's elements repeated n times.
func (l *List) Repeat(n int) (*List, error) {
	if n < 0 {
		return nil, fmt.Errorf("list repeat: negative count %d", n)
	}
	a, err := l.Terms()
	if err != nil {
		return nil, err
	}
	out := make([]Term, 0, len(a)*n)
	for i := 0; i < n; i++ {
		out = append(out, a...)
	}
	return derive(out)
}

// Equal reports elementwise equality of the two lists' value sequences;
// head identity is irrelevant. Lists whose encoding cannot be read compare
// unequal.
func (l *List) Equal(other *List) bool {
	return l.Compare(other) == 0
}

// Compare orders lists elementwise and lexicographically: -1 when l sorts
// first, 1 when other does, 0 when the sequences are equal. An unreadable
// operand compares as empty.
func (l *List) Compare(other *List) int {
	a, _ := l.Terms()
	b, _ := other.Terms()
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareTerms(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func (l *List) String() string {
	terms, err := l.Terms()
	if err != nil {
		return "List(!" + err.Error() + ")"
	}
	s := "List("
	for i, t := range terms {
		if i > 0 {
			s += ", "
		}
		s += termString(t)
	}
	return s + ")"
}

// =============================================================================
// Graph lookup helpers
// =============================================================================

// firstObject returns the object of the first statement matching (subject,
// predicate, ?), or nil when there is none.
func firstObject(g Source, subject, predicate Term) (Term, error) {
	for st, err := range g.QueryPattern(NewQuadPattern(subject, predicate, nil, nil)) {
		if err != nil {
			return nil, err
		}
		return st.Object, nil
	}
	return nil, nil
}

// objectsOf returns every object of statements matching (subject,
// predicate, ?).
func objectsOf(g Source, subject, predicate Term) ([]Term, error) {
	var out []Term
	for st, err := range g.QueryPattern(NewQuadPattern(subject, predicate, nil, nil)) {
		if err != nil {
			return nil, err
		}
		out = append(out, st.Object)
	}
	return out, nil
}

// statementsAbout returns every statement with the given subject.
func statementsAbout(g Source, subject Term) ([]Statement, error) {
	var out []Statement
	for st, err := range g.QueryPattern(NewQuadPattern(subject, nil, nil, nil)) {
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func countMatching(g Source, p *Pattern) (int, error) {
	n := 0
	for _, err := range g.QueryPattern(p) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
