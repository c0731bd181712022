package tern

import (
	"errors"
	"fmt"
	"iter"
)

// Transaction stages an ordered batch of pending deletes and inserts over a
// parent Graph. Reads through the transaction observe the parent's state
// with the pending delta applied, so a caller can query its own uncommitted
// edits. Commit applies the whole delta to the parent through one atomic
// Apply call; Rollback discards it. Transaction itself implements Graph, so
// transactions nest and a List can be built directly against one.
type Transaction struct {
	parent  Graph
	mutable bool
	graph   Term // when set, inserts without a graph land here

	deletes []Statement
	inserts []Statement
	delSet  map[Statement]struct{}
	insSet  map[Statement]struct{}

	done bool
}

var _ Graph = (*Transaction)(nil)

// TxOption configures a transaction at creation.
type TxOption func(*Transaction)

// TxGraph scopes the transaction to a named graph: statements inserted
// without an explicit graph are placed in it.
func TxGraph(name Term) TxOption {
	return func(tx *Transaction) { tx.graph = name }
}

// NewTransaction opens a transaction over parent. Most callers should use
// Graph.Transact instead, which scopes commit and rollback to a function.
func NewTransaction(parent Graph, mutable bool, opts ...TxOption) *Transaction {
	tx := &Transaction{
		parent:  parent,
		mutable: mutable,
		delSet:  make(map[Statement]struct{}),
		insSet:  make(map[Statement]struct{}),
	}
	for _, opt := range opts {
		opt(tx)
	}
	return tx
}

// RunTransaction is the shared Transact implementation used by every
// backend: run fn in a new transaction, commit when fn returns nil, roll
// back when it returns an error. Returning Rollback discards the edits
// without RunTransaction reporting an error.
func RunTransaction(parent Graph, mutable bool, fn func(*Transaction) error, opts ...TxOption) error {
	tx := NewTransaction(parent, mutable, opts...)
	if err := fn(tx); err != nil {
		tx.Rollback()
		if errors.Is(err, Rollback) {
			return nil
		}
		return err
	}
	return tx.Commit()
}

// Mutable reports whether the transaction accepts mutation.
func (tx *Transaction) Mutable() bool { return tx.mutable }

// Options returns the parent's options.
func (tx *Transaction) Options() Options { return tx.parent.Options() }

// Durable reports the parent's durability; the pending delta itself is
// never persisted before commit.
func (tx *Transaction) Durable() bool { return tx.parent.Durable() }

// Insert stages st for insertion. A pending delete of the same statement is
// cancelled.
func (tx *Transaction) Insert(st Statement) error {
	if err := tx.writable(); err != nil {
		return fmt.Errorf("tx insert: %w", err)
	}
	if st.Graph == nil && tx.graph != nil {
		st.Graph = tx.graph
	}
	if _, ok := tx.delSet[st]; ok {
		delete(tx.delSet, st)
		tx.deletes = removeStatement(tx.deletes, st)
	}
	if _, ok := tx.insSet[st]; !ok {
		tx.insSet[st] = struct{}{}
		tx.inserts = append(tx.inserts, st)
	}
	return nil
}

// Delete stages st for deletion. A pending insert of the same statement is
// cancelled.
func (tx *Transaction) Delete(st Statement) error {
	if err := tx.writable(); err != nil {
		return fmt.Errorf("tx delete: %w", err)
	}
	if st.Graph == nil && tx.graph != nil {
		st.Graph = tx.graph
	}
	if _, ok := tx.insSet[st]; ok {
		delete(tx.insSet, st)
		tx.inserts = removeStatement(tx.inserts, st)
	}
	if _, ok := tx.delSet[st]; !ok {
		tx.delSet[st] = struct{}{}
		tx.deletes = append(tx.deletes, st)
	}
	return nil
}

// Apply stages an entire changeset, deletes before inserts.
func (tx *Transaction) Apply(cs Changeset) error {
	for _, st := range cs.Deletes() {
		if err := tx.Delete(st); err != nil {
			return err
		}
	}
	for _, st := range cs.Inserts() {
		if err := tx.Insert(st); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Transaction) writable() error {
	if tx.done {
		return ErrTxDone
	}
	if !tx.mutable {
		return ErrReadOnly
	}
	return nil
}

// Has reports whether st is visible through the transaction: pending
// inserts are present, pending deletes absent, everything else defers to
// the parent.
func (tx *Transaction) Has(st Statement) (bool, error) {
	if _, ok := tx.insSet[st]; ok {
		return true, nil
	}
	if _, ok := tx.delSet[st]; ok {
		return false, nil
	}
	return tx.parent.Has(st)
}

// Count returns the number of statements visible through the transaction.
func (tx *Transaction) Count() (int, error) {
	n, err := tx.parent.Count()
	if err != nil {
		return 0, fmt.Errorf("tx count: %w", err)
	}
	for st := range tx.delSet {
		present, err := tx.parent.Has(st)
		if err != nil {
			return 0, fmt.Errorf("tx count: %w", err)
		}
		if present {
			n--
		}
	}
	for st := range tx.insSet {
		present, err := tx.parent.Has(st)
		if err != nil {
			return 0, fmt.Errorf("tx count: %w", err)
		}
		if !present {
			n++
		}
	}
	return n, nil
}

// QueryPattern yields the statements matching p as they would appear after
// commit: the parent's matches minus pending deletes, plus pending inserts.
func (tx *Transaction) QueryPattern(p *Pattern) iter.Seq2[Statement, error] {
	return func(yield func(Statement, error) bool) {
		for st, err := range tx.parent.QueryPattern(p) {
			if err != nil {
				yield(Statement{}, err)
				return
			}
			if _, deleted := tx.delSet[st]; deleted {
				continue
			}
			if _, reinserted := tx.insSet[st]; reinserted {
				continue // yielded below
			}
			if !yield(st, nil) {
				return
			}
		}
		for _, st := range tx.inserts {
			if p != nil && !p.Matches(st) {
				continue
			}
			if !yield(st, nil) {
				return
			}
		}
	}
}

// Commit applies the pending delta to the parent as one atomic changeset.
// On failure the parent is untouched and the transaction stays open.
func (tx *Transaction) Commit() error {
	if tx.done {
		return fmt.Errorf("tx commit: %w", ErrTxDone)
	}
	if err := tx.parent.Apply(Delta{Del: tx.deletes, Ins: tx.inserts}); err != nil {
		return fmt.Errorf("tx commit: %w", err)
	}
	tx.done = true
	return nil
}

// Execute is an alias for Commit, matching the changeset vocabulary.
func (tx *Transaction) Execute() error { return tx.Commit() }

// Rollback discards all pending edits. The parent is untouched.
func (tx *Transaction) Rollback() {
	tx.deletes, tx.inserts = nil, nil
	tx.delSet = make(map[Statement]struct{})
	tx.insSet = make(map[Statement]struct{})
	tx.done = true
}

// Transact opens a nested transaction over this one. The child's reads
// observe this transaction's pending state; its commit stages into this
// transaction rather than the underlying repository.
func (tx *Transaction) Transact(mutable bool, fn func(*Transaction) error) error {
	return RunTransaction(tx, mutable, fn)
}

// Changeset returns the pending delta staged so far.
func (tx *Transaction) Changeset() Changeset {
	return Delta{Del: tx.deletes, Ins: tx.inserts}
}

func removeStatement(list []Statement, st Statement) []Statement {
	for i := range list {
		if list[i] == st {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
