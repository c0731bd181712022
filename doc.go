// Package tern is the mutation-and-query core of an RDF statement store:
// callers assert and retract statements, match them against
// partially-constrained patterns with cost-aware term ordering, and perform
// multi-statement edits atomically, including nested transactions that can
// read their own uncommitted state.
//
// # Data model
//
// A [Statement] is a (subject, predicate, object, graph) tuple of [Term]
// values: [IRI], [BlankNode], [Literal], or a Statement itself used as a
// quoted triple. A nil graph places the statement in the default (unnamed)
// graph. Validity is advisory: constructing an invalid statement never
// fails, [Statement.Validate] does.
//
// # Querying
//
// A [Pattern] is a statement template whose positions hold constant terms,
// [Variable] placeholders, or nested patterns matching quoted triples.
// [Pattern.Cost] is a selectivity heuristic for join ordering, and
// [Pattern.Execute] yields one [Solution] per matching statement as a lazy,
// restartable sequence:
//
//	repo := tern.NewRepository()
//	_ = repo.Insert(tern.Triple(tern.IRI("s"), tern.IRI("p"), tern.NewLiteral("o")))
//
//	pattern := tern.NewPattern(tern.Var("who"), tern.IRI("p"), nil)
//	for sol, err := range pattern.Execute(repo) {
//		...
//	}
//
// # Storage
//
// [Repository] is the default in-memory store. The [Graph] interface is its
// full capability surface; the sqlite and badgerstore packages provide
// durable implementations of it. [Graph.Apply] applies a [Changeset]
// atomically, and [Graph.Transact] stages multi-step edits in a
// [Transaction] whose reads observe the pending delta:
//
//	err := repo.Transact(true, func(tx *tern.Transaction) error {
//		if err := tx.Insert(st); err != nil {
//			return err
//		}
//		n, _ := tx.Count() // sees the pending insert
//		...
//		return nil // commits; any error rolls back
//	})
//
// # Lists
//
// [List] is a singly linked list structurally encoded as rdf:first/rdf:rest
// statement pairs over a Graph. Its multi-statement edits are only safe
// against concurrent observation when run through a Transaction, which
// [Transactional] construction arranges.
package tern
