package deviation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PercentDeviation returns ((actual − baseline) / baseline) × 100 in decimal.
// The scaling happens before the division so the quotient keeps
// decimal.DivisionPrecision places of the percentage itself. Nothing is
// rounded for presentation. A zero baseline returns ErrDegenerateBaseline.
func PercentDeviation(actual, baseline decimal.Decimal) (decimal.Decimal, error) {
	if baseline.IsZero() {
		return decimal.Zero, fmt.Errorf("baseline is zero: %w", ErrDegenerateBaseline)
	}
	return actual.Sub(baseline).Mul(percent).Div(baseline), nil
}
