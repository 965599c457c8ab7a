package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Table maps string keys to JSON records
type Table[T any] struct {
	rw     ReadWriter
	prefix []byte
}

// NewTable binds the table called name to rw
func NewTable[T any](rw ReadWriter, name string) *Table[T] {
	return &Table[T]{
		rw:     rw,
		prefix: []byte(name + "\x00k\x00"),
	}
}

func (t *Table[T]) key(k string) []byte {
	return append(append([]byte{}, t.prefix...), k...)
}

// Get returns the record under key, or nil if there is none
func (t *Table[T]) Get(key string) (*T, error) {
	raw, err := t.rw.Get(t.key(key))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode[T](raw)
}

// Put creates or replaces the record under key
func (t *Table[T]) Put(key string, value *T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return t.rw.Put(t.key(key), raw)
}

// ForEach visits every record in key order
func (t *Table[T]) ForEach(fn func(key string, value *T) error) error {
	return t.rw.Iterate(t.prefix, func(k, raw []byte) error {
		value, err := decode[T](raw)
		if err != nil {
			return err
		}
		return fn(string(k[len(t.prefix):]), value)
	})
}
