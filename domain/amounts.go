package domain

import (
	"fmt"
	"math"
)

// AddAmounts returns a+b, or ErrInvalidAmount when the sum does not fit in an int64
func AddAmounts(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrInvalidAmount, a, b)
	}
	return a + b, nil
}
