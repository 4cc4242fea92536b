package deviation

import "github.com/shopspring/decimal"

const (
	// QuartersPerYear is the number of reporting quarters in a calendar year.
	QuartersPerYear = 4

	// MonthsPerQuarter is the number of calendar months in a quarter.
	MonthsPerQuarter = 3

	// ExpPrecision is the number of decimal places used for the exponential
	// and fractional powers inside curve policies.
	ExpPrecision int32 = 20

	// LogisticSaturation bounds |b·(year − c)|. Past it exp() exceeds 1e26,
	// so the logistic factor is 0 or 1 at ExpPrecision and is not computed.
	LogisticSaturation = 60
)

// percent scales a ratio to a percentage.
var percent = decimal.NewFromInt(100)
