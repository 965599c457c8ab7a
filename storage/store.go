package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("storage: key not found")

var errTxDone = errors.New("storage: transaction already closed")

// ReadWriter is the key-value surface the Log and Table abstractions need
type ReadWriter interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	// Iterate visits keys with the prefix in ascending order. fn must not
	// retain key or value after it returns.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}

// Store is an ordered key-value store backed by goleveldb. Writers are
// serialized: at most one Tx is open at a time.
type Store struct {
	db   *leveldb.DB
	sem  chan struct{}
	sync bool
}

// Open opens or creates a durable store at path
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return newStore(db, true), nil
}

// OpenMemory opens a store that lives only in memory
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory leveldb: %w", err)
	}
	return newStore(db, false), nil
}

func newStore(db *leveldb.DB, sync bool) *Store {
	return &Store{
		db:   db,
		sem:  make(chan struct{}, 1),
		sync: sync,
	}
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin waits for exclusive access and opens a transaction. The caller
// must Commit or Discard it.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Tx{
		store:  s,
		staged: memdb.New(comparer.DefaultComparer, 0),
	}, nil
}

// Tx stages writes in memory over the committed state. Reads see staged
// writes first. Commit applies everything in one atomic batch.
// A Tx is not safe for concurrent use.
type Tx struct {
	store  *Store
	staged *memdb.DB
	done   bool
}

// Get returns the staged or committed value of key
func (tx *Tx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, errTxDone
	}

	if value, err := tx.staged.Get(key); err == nil {
		return value, nil
	}

	value, err := tx.store.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return value, nil
}

// Put stages a write
func (tx *Tx) Put(key, value []byte) error {
	if tx.done {
		return errTxDone
	}
	return tx.staged.Put(key, value)
}

// Iterate merges staged and committed keys under prefix in ascending order.
// A staged value shadows the committed one.
func (tx *Tx) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	if tx.done {
		return errTxDone
	}

	rng := util.BytesPrefix(prefix)
	staged := tx.staged.NewIterator(rng)
	defer staged.Release()
	committed := tx.store.db.NewIterator(rng, nil)
	defer committed.Release()

	sOK, cOK := staged.Next(), committed.Next()
	for sOK || cOK {
		var err error
		switch {
		case !cOK:
			err = fn(staged.Key(), staged.Value())
			sOK = staged.Next()
		case !sOK:
			err = fn(committed.Key(), committed.Value())
			cOK = committed.Next()
		default:
			switch c := bytes.Compare(staged.Key(), committed.Key()); {
			case c < 0:
				err = fn(staged.Key(), staged.Value())
				sOK = staged.Next()
			case c > 0:
				err = fn(committed.Key(), committed.Value())
				cOK = committed.Next()
			default:
				err = fn(staged.Key(), staged.Value())
				sOK, cOK = staged.Next(), committed.Next()
			}
		}
		if err != nil {
			return err
		}
	}

	if err := committed.Error(); err != nil {
		return fmt.Errorf("failed to iterate: %w", err)
	}
	return staged.Error()
}

// Commit writes all staged keys atomically and releases the store
func (tx *Tx) Commit() error {
	if tx.done {
		return errTxDone
	}

	batch := new(leveldb.Batch)
	it := tx.staged.NewIterator(nil)
	for it.Next() {
		batch.Put(it.Key(), it.Value())
	}
	it.Release()

	if batch.Len() > 0 {
		if err := tx.store.db.Write(batch, &opt.WriteOptions{Sync: tx.store.sync}); err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}
	}

	tx.close()
	return nil
}

// Discard drops staged writes and releases the store. It is safe to call
// after Commit.
func (tx *Tx) Discard() {
	if !tx.done {
		tx.close()
	}
}

func (tx *Tx) close() {
	tx.done = true
	tx.staged.Reset()
	<-tx.store.sem
}
