package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTxCommitMakesWritesVisible(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))

	got, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	require.NoError(t, tx.Commit())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()
	got, err = tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func TestTxDiscardDropsWrites(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))
	tx.Discard()

	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()
	_, err = tx.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTxIterateMergesStagedOverCommitted(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("p/a"), []byte("old")))
	require.NoError(t, tx.Put([]byte("p/c"), []byte("c")))
	require.NoError(t, tx.Put([]byte("q/x"), []byte("x")))
	require.NoError(t, tx.Commit())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()
	require.NoError(t, tx.Put([]byte("p/a"), []byte("new")))
	require.NoError(t, tx.Put([]byte("p/b"), []byte("b")))

	var keys, values []string
	err = tx.Iterate([]byte("p/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		values = append(values, string(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p/a", "p/b", "p/c"}, keys)
	assert.Equal(t, []string{"new", "b", "c"}, values)
}

func TestTxIterateStopsOnCallbackError(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Discard()
	require.NoError(t, tx.Put([]byte("k1"), []byte("1")))
	require.NoError(t, tx.Put([]byte("k2"), []byte("2")))

	calls := 0
	err = tx.Iterate([]byte("k"), func(key, value []byte) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestBeginIsExclusive(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = store.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	tx.Discard()
	tx2, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx2.Discard()
}

func TestClosedTxRejectsUse(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Error(t, tx.Put([]byte("a"), []byte("1")))
	assert.Error(t, tx.Commit())
	tx.Discard()
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))
	require.NoError(t, tx.Commit())
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()
	got, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}
