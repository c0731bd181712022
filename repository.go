package tern

import (
	"fmt"
	"iter"
	"sync"
)

// Repository is the default in-memory statement store: an unordered set of
// quads keyed by the full (subject, predicate, object, graph) tuple.
//
// Thread safety: the mutex serializes individual operations, but the store
// provides no isolation between interleaved multi-step edits from different
// goroutines; callers needing that must serialize externally or use
// Transact from a single goroutine at a time.
type Repository struct {
	mu    sync.RWMutex
	quads map[Statement]struct{}
	opts  Options
}

// Compile-time check: *Repository satisfies Graph.
var _ Graph = (*Repository)(nil)

// RepositoryOption configures a Repository at construction.
type RepositoryOption func(*Repository)

// WithValidation sets whether Insert and Apply reject invalid statements.
// The default is true.
func WithValidation(validate bool) RepositoryOption {
	return func(r *Repository) { r.opts[OptValidate] = validate }
}

// WithOption records an arbitrary configuration entry, retained for the
// repository's lifetime and visible through Options.
func WithOption(key string, value any) RepositoryOption {
	return func(r *Repository) { r.opts[key] = value }
}

// NewRepository returns an empty in-memory repository.
func NewRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		quads: make(map[Statement]struct{}),
		opts:  Options{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Options returns the configuration fixed at construction.
func (r *Repository) Options() Options { return r.opts }

// Durable reports false: in-memory state does not survive restart.
func (r *Repository) Durable() bool { return false }

// Insert adds st to the store. Invalid statements are rejected when the
// repository validates (the default); re-inserting is a no-op.
func (r *Repository) Insert(st Statement) error {
	if r.opts.Validating() {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quads[st] = struct{}{}
	return nil
}

// Delete removes st. Deleting an absent statement is a no-op.
func (r *Repository) Delete(st Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.quads, st)
	return nil
}

// Has reports whether st is present.
func (r *Repository) Has(st Statement) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.quads[st]
	return ok, nil
}

// Count returns the number of stored statements.
func (r *Repository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quads), nil
}

// QueryPattern yields the stored statements matching p, in no particular
// order. Each range takes a fresh snapshot of the matching set, so the
// sequence is restartable and safe against mutation during iteration.
func (r *Repository) QueryPattern(p *Pattern) iter.Seq2[Statement, error] {
	return func(yield func(Statement, error) bool) {
		r.mu.RLock()
		matched := make([]Statement, 0)
		for st := range r.quads {
			if p == nil || p.Matches(st) {
				matched = append(matched, st)
			}
		}
		r.mu.RUnlock()
		for _, st := range matched {
			if !yield(st, nil) {
				return
			}
		}
	}
}

// Apply applies cs atomically. Every insert is validated up front when the
// repository validates, so a rejected insert leaves the statement set
// untouched, no matter how many deletes or inserts preceded it in cs.
func (r *Repository) Apply(cs Changeset) error {
	deletes, inserts := cs.Deletes(), cs.Inserts()
	if r.opts.Validating() {
		for _, st := range inserts {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("apply changeset: %w", err)
			}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range deletes {
		delete(r.quads, st)
	}
	for _, st := range inserts {
		r.quads[st] = struct{}{}
	}
	return nil
}

// Transact runs fn inside a transaction over the repository.
func (r *Repository) Transact(mutable bool, fn func(*Transaction) error) error {
	return RunTransaction(r, mutable, fn)
}
