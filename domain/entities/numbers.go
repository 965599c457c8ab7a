package entities

import (
	"encoding/json"
	"fmt"
	"sort"

	"jackpot/domain"
)

const (
	// NumberCount is how many numbers a ticket picks and a draw produces
	NumberCount = 6

	// MaxNumber is the highest number that can be picked or drawn
	MaxNumber = 55
)

// Numbers is a canonical set of picked or drawn numbers: NumberCount distinct
// values in [1, MaxNumber], stored ascending so that equality is positional.
type Numbers [NumberCount]int

// CanonicalizeNumbers sorts the input ascending and validates it.
// Duplicates are detected as equal neighbours once sorted.
func CanonicalizeNumbers(input []int) (Numbers, error) {
	var n Numbers
	if len(input) != NumberCount {
		return n, fmt.Errorf("%w: expected %d numbers, got %d", domain.ErrInvalidNumbers, NumberCount, len(input))
	}

	sorted := make([]int, NumberCount)
	copy(sorted, input)
	sort.Ints(sorted)

	for i, v := range sorted {
		if v < 1 || v > MaxNumber {
			return n, fmt.Errorf("%w: %d is outside [1, %d]", domain.ErrInvalidNumbers, v, MaxNumber)
		}
		if i > 0 && sorted[i-1] >= v {
			return n, fmt.Errorf("%w: %d is picked more than once", domain.ErrInvalidNumbers, v)
		}
		n[i] = v
	}

	return n, nil
}

// NumbersFromInt64s converts a stored slice back into canonical numbers
func NumbersFromInt64s(values []int64) (Numbers, error) {
	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(v)
	}
	return CanonicalizeNumbers(ints)
}

// Equal reports whether both sets hold the same numbers
func (n Numbers) Equal(other Numbers) bool {
	return n == other
}

// Int64s returns the numbers as a slice suitable for array columns
func (n Numbers) Int64s() []int64 {
	out := make([]int64, NumberCount)
	for i, v := range n {
		out[i] = int64(v)
	}
	return out
}

// String formats the numbers as "01-02-03-04-05-06"
func (n Numbers) String() string {
	return fmt.Sprintf("%02d-%02d-%02d-%02d-%02d-%02d", n[0], n[1], n[2], n[3], n[4], n[5])
}

// MarshalJSON encodes the numbers as a plain JSON array
func (n Numbers) MarshalJSON() ([]byte, error) {
	return json.Marshal([NumberCount]int(n))
}

// UnmarshalJSON decodes a JSON array and re-validates it
func (n *Numbers) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := CanonicalizeNumbers(raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
