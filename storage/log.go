package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	lenSuffix  = "len"
	itemSuffix = "i\x00"
)

// Log is an append-only sequence of JSON records addressed by a zero-based
// index. Item keys are big-endian so iteration follows index order.
type Log[T any] struct {
	rw     ReadWriter
	prefix []byte
}

// NewLog binds the log called name to rw
func NewLog[T any](rw ReadWriter, name string) *Log[T] {
	return &Log[T]{
		rw:     rw,
		prefix: []byte(name + "\x00"),
	}
}

func (l *Log[T]) lenKey() []byte {
	return append(append([]byte{}, l.prefix...), lenSuffix...)
}

func (l *Log[T]) itemPrefix() []byte {
	return append(append([]byte{}, l.prefix...), itemSuffix...)
}

func (l *Log[T]) itemKey(index int64) []byte {
	key := l.itemPrefix()
	return binary.BigEndian.AppendUint64(key, uint64(index))
}

// Len returns the number of records ever appended
func (l *Log[T]) Len() (int64, error) {
	raw, err := l.rw.Get(l.lenKey())
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt length for log %q", l.prefix)
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

// Get returns the record at index, or nil if index is out of range
func (l *Log[T]) Get(index int64) (*T, error) {
	if index < 0 {
		return nil, nil
	}
	raw, err := l.rw.Get(l.itemKey(index))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode[T](raw)
}

// Append stores value at the end of the log and returns its index
func (l *Log[T]) Append(value *T) (int64, error) {
	n, err := l.Len()
	if err != nil {
		return 0, err
	}
	if err := l.put(n, value); err != nil {
		return 0, err
	}
	if err := l.rw.Put(l.lenKey(), binary.BigEndian.AppendUint64(nil, uint64(n+1))); err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceLast overwrites the most recently appended record
func (l *Log[T]) ReplaceLast(value *T) error {
	n, err := l.Len()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("cannot replace last record of an empty log")
	}
	return l.put(n-1, value)
}

// Range visits every record in index order
func (l *Log[T]) Range(fn func(index int64, value *T) error) error {
	prefix := l.itemPrefix()
	return l.rw.Iterate(prefix, func(key, raw []byte) error {
		if len(key) != len(prefix)+8 {
			return fmt.Errorf("corrupt item key in log %q", l.prefix)
		}
		value, err := decode[T](raw)
		if err != nil {
			return err
		}
		return fn(int64(binary.BigEndian.Uint64(key[len(prefix):])), value)
	})
}

func (l *Log[T]) put(index int64, value *T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return l.rw.Put(l.itemKey(index), raw)
}

func decode[T any](raw []byte) (*T, error) {
	value := new(T)
	if err := json.Unmarshal(raw, value); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return value, nil
}
