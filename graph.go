package tern

import (
	"errors"
	"iter"
)

// Sentinel errors shared by all backends.
var (
	// ErrReadOnly is returned by mutation attempts on a read-only
	// transaction or store.
	ErrReadOnly = errors.New("store is read-only")

	// ErrTxDone is returned by operations on a committed or rolled-back
	// transaction.
	ErrTxDone = errors.New("transaction already closed")

	// ErrNotFound is returned by must-exist lookups such as List.Fetch.
	ErrNotFound = errors.New("not found")

	// Rollback, returned from a Transact body, discards the transaction's
	// pending edits without Transact itself reporting an error.
	Rollback = errors.New("transaction rolled back")
)

// Source is the read surface shared by repositories and transactions.
type Source interface {
	// QueryPattern yields every stored statement whose constant positions
	// match p and whose graph constraint is satisfied. The sequence is lazy
	// and restartable: each range re-reads the store's state at that time.
	// Backends report iteration failures through the second value, after
	// which the sequence ends.
	QueryPattern(p *Pattern) iter.Seq2[Statement, error]

	// Has reports whether st is present.
	Has(st Statement) (bool, error)

	// Count returns the number of stored statements.
	Count() (int, error)
}

// Graph is the full capability surface of a statement store: the in-memory
// Repository, the durable backends, and Transaction all implement it.
type Graph interface {
	Source

	// Insert adds st. Inserting a statement already present is a no-op.
	Insert(st Statement) error

	// Delete removes st. Deleting an absent statement is a no-op.
	Delete(st Statement) error

	// Apply applies cs atomically: either every delete and insert takes
	// effect, or the store is left exactly as it was.
	Apply(cs Changeset) error

	// Transact runs fn inside a transaction scoped to the call: commit on
	// nil return, rollback on error or Rollback.
	Transact(mutable bool, fn func(*Transaction) error) error

	// Durable reports whether the store's state survives process restart.
	Durable() bool

	// Options returns the configuration fixed at construction.
	Options() Options
}

// Changeset is a paired batch of statements to delete and to insert. Any
// implementation is accepted by Graph.Apply.
type Changeset interface {
	Deletes() []Statement
	Inserts() []Statement
}

// Delta is the trivial Changeset.
type Delta struct {
	Del []Statement
	Ins []Statement
}

func (d Delta) Deletes() []Statement { return d.Del }
func (d Delta) Inserts() []Statement { return d.Ins }

// Options is repository configuration, fixed for the store's lifetime.
type Options map[string]any

// OptValidate controls whether Insert and Apply reject structurally invalid
// statements. Defaults to true.
const OptValidate = "validate"

// Validating reports the effective validation setting in o.
func (o Options) Validating() bool {
	v, ok := o[OptValidate].(bool)
	return !ok || v
}
