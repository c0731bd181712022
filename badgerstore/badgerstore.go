// Package badgerstore provides a durable tern.Graph backed by BadgerDB.
// Each statement is one key under a quad prefix, encoded in its N-Quads
// text form; key presence is the only payload, mirroring the set semantics
// of the in-memory repository.
package badgerstore

import (
	"fmt"
	"iter"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/jward/tern"
	"github.com/jward/tern/nquads"
)

// quadPrefix namespaces statement keys, leaving room for future metadata
// keyspaces alongside them.
var quadPrefix = []byte("q\x00")

// Store is a tern.Graph over a Badger key space.
type Store struct {
	db   *badger.DB
	opts tern.Options
}

// Compile-time check: *Store satisfies tern.Graph.
var _ tern.Graph = (*Store)(nil)

// Option configures a Store at construction.
type Option func(*config)

type config struct {
	inMemory bool
	validate bool
}

// InMemory opens the database without a backing directory, for tests and
// scratch stores. Durable reports false for such a store.
func InMemory() Option {
	return func(c *config) { c.inMemory = true }
}

// WithValidation sets whether Insert and Apply reject invalid statements.
// The default is true.
func WithValidation(validate bool) Option {
	return func(c *config) { c.validate = validate }
}

// Open opens (creating if necessary) a Badger database at dir.
func Open(dir string, opts ...Option) (*Store, error) {
	cfg := config{validate: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	options := badger.DefaultOptions(dir).WithLogger(nil)
	if cfg.inMemory {
		options = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{
		db:   db,
		opts: tern.Options{tern.OptValidate: cfg.validate, "in_memory": cfg.inMemory},
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Options returns the configuration fixed at construction.
func (s *Store) Options() tern.Options { return s.opts }

// Durable reports whether state survives restart: true unless the store
// was opened InMemory.
func (s *Store) Durable() bool {
	inMem, _ := s.opts["in_memory"].(bool)
	return !inMem
}

func key(st tern.Statement) []byte {
	return append(append([]byte{}, quadPrefix...), nquads.FormatStatement(st)...)
}

func decodeKey(k []byte) (tern.Statement, error) {
	return nquads.ParseStatement(string(k[len(quadPrefix):]))
}

// Insert adds st. Re-inserting an existing statement is a no-op.
func (s *Store) Insert(st tern.Statement) error {
	if s.opts.Validating() {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(st), nil)
	})
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Delete removes st. Deleting an absent statement is a no-op.
func (s *Store) Delete(st tern.Statement) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(st))
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Has reports whether st is present.
func (s *Store) Has(st tern.Statement) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(st))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("has: %w", err)
	}
	return found, nil
}

// Count returns the number of stored statements via a key-only scan.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: quadPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// QueryPattern yields the stored statements matching p. Each range opens a
// fresh read transaction, so the sequence observes the store's state at
// that time.
func (s *Store) QueryPattern(p *tern.Pattern) iter.Seq2[tern.Statement, error] {
	return func(yield func(tern.Statement, error) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: quadPrefix})
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				st, err := decodeKey(it.Item().Key())
				if err != nil {
					return err
				}
				if p != nil && !p.Matches(st) {
					continue
				}
				if !yield(st, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(tern.Statement{}, fmt.Errorf("query pattern: %w", err))
		}
	}
}

// Apply applies cs in a single Badger update transaction: every delete and
// insert takes effect, or none do. Inserts are validated before the
// transaction starts.
func (s *Store) Apply(cs tern.Changeset) error {
	deletes, inserts := cs.Deletes(), cs.Inserts()
	if s.opts.Validating() {
		for _, st := range inserts {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("apply changeset: %w", err)
			}
		}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, st := range deletes {
			if err := txn.Delete(key(st)); err != nil {
				return err
			}
		}
		for _, st := range inserts {
			if err := txn.Set(key(st), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply changeset: %w", err)
	}
	return nil
}

// Transact runs fn inside a staged tern transaction whose commit lands as
// one Apply call, hence one Badger update transaction.
func (s *Store) Transact(mutable bool, fn func(*tern.Transaction) error) error {
	return tern.RunTransaction(s, mutable, fn)
}
