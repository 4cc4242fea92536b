package deviation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurvePolicy evaluates one reference curve row for a target year and
// deadweight tonnage. Implementations encode a versioned regulatory formula
// and must be safe for concurrent use.
type CurvePolicy interface {
	// Name identifies the policy and its version in reports.
	Name() string

	// EvaluateCurve returns the baseline carbon intensity the row prescribes
	// for a vessel of the given DWT in the given year.
	EvaluateCurve(row CurveRow, year int, dwt decimal.Decimal) (decimal.Decimal, error)
}

var logisticSaturation = decimal.NewFromInt(LogisticSaturation)

// LogisticTrajectory is the default decarbonization trajectory policy.
//
// Each row describes a size-scaled reference line that declines along a
// logistic curve over the years:
//
//	baseline = a · DWT^(−d) / (1 + exp(b · (year − c))) + e
//
// where
//   - a scales the reference line
//   - b is the steepness of the decline (0 gives a flat line at a/2)
//   - c is the midpoint year of the decline
//   - d is the DWT exponent of the reference line (0 ignores size)
//   - e is a floor added to every year
//
// All arithmetic is decimal. Exponentials and fractional powers are computed
// to ExpPrecision decimal places. When |b·(year − c)| exceeds
// LogisticSaturation the row evaluates to e after the midpoint and to
// a·DWT^(−d) + e before it.
type LogisticTrajectory struct{}

// NewLogisticTrajectory creates the default curve policy.
func NewLogisticTrajectory() *LogisticTrajectory {
	return &LogisticTrajectory{}
}

// Name implements CurvePolicy.
func (p *LogisticTrajectory) Name() string {
	return "logistic-trajectory/v1"
}

// EvaluateCurve implements CurvePolicy.
func (p *LogisticTrajectory) EvaluateCurve(row CurveRow, year int, dwt decimal.Decimal) (decimal.Decimal, error) {
	if !dwt.IsPositive() {
		return decimal.Zero, fmt.Errorf("dwt %s must be positive: %w", dwt, ErrMalformedInput)
	}

	// Step 1: size scaling, DWT^(−d)
	sizeFactor := decimal.NewFromInt(1)
	if !row.D.IsZero() {
		pow, err := dwt.PowWithPrecision(row.D.Neg(), ExpPrecision)
		if err != nil {
			return decimal.Zero, fmt.Errorf("row %s: dwt power: %w", row.RowID, err)
		}
		sizeFactor = pow
	}

	// Step 2: logistic decline, 1 + exp(b·(year − c))
	reference := row.A.Mul(sizeFactor)
	exponent := row.B.Mul(decimal.NewFromInt(int64(year)).Sub(row.C))
	if exponent.Abs().GreaterThan(logisticSaturation) {
		if exponent.IsPositive() {
			return row.E, nil
		}
		return reference.Add(row.E), nil
	}
	exp, err := exponent.Abs().ExpTaylor(ExpPrecision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("row %s: logistic term: %w", row.RowID, err)
	}
	if exponent.IsNegative() {
		exp = decimal.NewFromInt(1).DivRound(exp, ExpPrecision)
	}
	denominator := decimal.NewFromInt(1).Add(exp)

	// Step 3: reference value plus floor
	return reference.Div(denominator).Add(row.E), nil
}
