package deviation

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Summary holds fleet-wide statistics over a set of quarterly deviations.
//
// For an empty input every field is zero. Those zeros are a reporting
// convenience, not computed statistics; check Count before reading them.
type Summary struct {
	Count   int
	Average decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal

	// PositiveDeviations counts deviations strictly above zero.
	PositiveDeviations int

	// NegativeDeviations counts deviations strictly below zero.
	NegativeDeviations int

	// StdDev is the population standard deviation of the deviations, for
	// display only. It is computed in float64.
	StdDev float64
}

// Summarize flattens every quarterly deviation of every vessel, in result
// order, and reduces them to a Summary.
func Summarize(results []DeviationResult) Summary {
	var all []decimal.Decimal
	for _, r := range results {
		for _, q := range r.QuarterlyData {
			all = append(all, q.Deviation)
		}
	}

	if len(all) == 0 {
		return Summary{
			Average: decimal.Zero,
			Min:     decimal.Zero,
			Max:     decimal.Zero,
		}
	}

	s := Summary{
		Count: len(all),
		Min:   all[0],
		Max:   all[0],
	}
	sum := decimal.Zero
	floats := make([]float64, 0, len(all))
	for _, d := range all {
		sum = sum.Add(d)
		if d.LessThan(s.Min) {
			s.Min = d
		}
		if d.GreaterThan(s.Max) {
			s.Max = d
		}
		switch d.Sign() {
		case 1:
			s.PositiveDeviations++
		case -1:
			s.NegativeDeviations++
		}
		floats = append(floats, d.InexactFloat64())
	}
	s.Average = sum.Div(decimal.NewFromInt(int64(len(all))))

	if len(floats) > 1 {
		s.StdDev = stat.PopStdDev(floats, nil)
	}
	return s
}
