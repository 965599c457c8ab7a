package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mathrand "math/rand/v2"
	"sync"
)

var errZeroRange = errors.New("random range must be at least 1")

// CryptoRandomSource draws from crypto/rand
type CryptoRandomSource struct{}

// NewCryptoRandomSource creates the production random source
func NewCryptoRandomSource() *CryptoRandomSource {
	return &CryptoRandomSource{}
}

// NextUint returns a uniform integer in [1, limit]
func (CryptoRandomSource) NextUint(limit uint64) (uint64, error) {
	if limit == 0 {
		return 0, errZeroRange
	}
	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(limit))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return n.Uint64() + 1, nil
}

// SeededRandomSource is a deterministic source for tests and replays
type SeededRandomSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeededRandomSource creates a PCG-backed source from a fixed seed
func NewSeededRandomSource(seed uint64) *SeededRandomSource {
	return &SeededRandomSource{
		rng: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NextUint returns an integer in [1, limit]
func (s *SeededRandomSource) NextUint(limit uint64) (uint64, error) {
	if limit == 0 {
		return 0, errZeroRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64N(limit) + 1, nil
}
