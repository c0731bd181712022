package tern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_ReadYourWrites(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, RDFType, o)))

	st := Triple(s, p, o)
	err := repo.Transact(true, func(tx *Transaction) error {
		if err := tx.Insert(st); err != nil {
			return err
		}

		// The transaction observes its own pending insert...
		n, err := tx.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		ok, err := tx.Has(st)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, queryAll(t, tx, FromStatement(st)), 1)

		// ...while the parent does not, until commit.
		n, err = repo.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	// Committed exactly once.
	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTransaction_PendingDeletes(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	st := Triple(s, p, o)
	require.NoError(t, repo.Insert(st))

	err := repo.Transact(true, func(tx *Transaction) error {
		if err := tx.Delete(st); err != nil {
			return err
		}
		ok, err := tx.Has(st)
		require.NoError(t, err)
		assert.False(t, ok)
		n, err := tx.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, queryAll(t, tx, nil))
		return nil
	})
	require.NoError(t, err)

	ok, err := repo.Has(st)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransaction_RollbackOnError(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	boom := errors.New("boom")

	err := repo.Transact(true, func(tx *Transaction) error {
		require.NoError(t, tx.Insert(Triple(s, p, o)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n, "failed transaction must leave no partial effect")
}

// Returning Rollback discards the edits without Transact reporting an error.
func TestTransaction_ExplicitRollback(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	err := repo.Transact(true, func(tx *Transaction) error {
		require.NoError(t, tx.Insert(Triple(s, p, o)))
		return Rollback
	})
	require.NoError(t, err)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransaction_ReadOnly(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, o)))

	err := repo.Transact(false, func(tx *Transaction) error {
		assert.False(t, tx.Mutable())

		err := tx.Insert(Triple(o, p, s))
		assert.ErrorIs(t, err, ErrReadOnly)
		err = tx.Delete(Triple(s, p, o))
		assert.ErrorIs(t, err, ErrReadOnly)

		// Reads still work.
		n, err := tx.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestTransaction_Nested(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	outer := Triple(s, p, NewLiteral("outer"))
	inner := Triple(s, p, NewLiteral("inner"))
	abandoned := Triple(s, p, NewLiteral("abandoned"))

	err := repo.Transact(true, func(tx *Transaction) error {
		require.NoError(t, tx.Insert(outer))

		// A child transaction reads the parent's pending state.
		err := tx.Transact(true, func(child *Transaction) error {
			ok, err := child.Has(outer)
			require.NoError(t, err)
			assert.True(t, ok)
			return child.Insert(inner)
		})
		require.NoError(t, err)

		// A rolled-back child leaves the parent's staging untouched.
		err = tx.Transact(true, func(child *Transaction) error {
			require.NoError(t, child.Insert(abandoned))
			return Rollback
		})
		require.NoError(t, err)

		// The committed child staged into this transaction, not the repo.
		ok, err := tx.Has(inner)
		require.NoError(t, err)
		assert.True(t, ok)
		n, err := repo.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[Statement]struct{}{outer: {}, inner: {}}, statementSet(t, repo))
}

func TestTransaction_InsertCancelsPendingDelete(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	st := Triple(s, p, o)
	require.NoError(t, repo.Insert(st))

	err := repo.Transact(true, func(tx *Transaction) error {
		require.NoError(t, tx.Delete(st))
		require.NoError(t, tx.Insert(st))
		n, err := tx.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	ok, err := repo.Has(st)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransaction_CommitValidationFailureLeavesParentUntouched(t *testing.T) {
	t.Parallel()

	strict := NewRepository()
	require.NoError(t, strict.Insert(Triple(s, p, o)))
	before := statementSet(t, strict)

	tx := NewTransaction(strict, true)
	require.NoError(t, tx.Delete(Triple(s, p, o)))
	// The staging layer accepts the statement; the parent's Apply rejects
	// it at commit and the whole delta is dropped.
	require.NoError(t, tx.Insert(Triple(NewLiteral("bad"), p, o)))

	err := tx.Commit()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatement)
	assert.Equal(t, before, statementSet(t, strict))
}

func TestTransaction_DoneRejectsFurtherUse(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	tx := NewTransaction(repo, true)
	require.NoError(t, tx.Insert(Triple(s, p, o)))
	require.NoError(t, tx.Commit())

	assert.ErrorIs(t, tx.Insert(Triple(o, p, s)), ErrTxDone)
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
}

func TestTransaction_GraphScoping(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	tx := NewTransaction(repo, true, TxGraph(g))
	require.NoError(t, tx.Insert(Triple(s, p, o)))
	require.NoError(t, tx.Commit())

	got := queryAll(t, repo, NewQuadPattern(s, p, o, g))
	require.Len(t, got, 1)
	assert.Equal(t, g, got[0].Graph)
}

func TestTransaction_ChangesetExposure(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, o)))

	tx := NewTransaction(repo, true)
	require.NoError(t, tx.Delete(Triple(s, p, o)))
	require.NoError(t, tx.Insert(Triple(o, p, s)))

	cs := tx.Changeset()
	assert.Equal(t, []Statement{Triple(s, p, o)}, cs.Deletes())
	assert.Equal(t, []Statement{Triple(o, p, s)}, cs.Inserts())
	tx.Rollback()
}
