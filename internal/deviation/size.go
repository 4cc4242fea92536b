package deviation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SizeMatcher reports whether a curve row's size class applies to a vessel
// of the given DWT.
type SizeMatcher func(size string, dwt decimal.Decimal) bool

// MatchAnySize applies every row regardless of its size class.
func MatchAnySize(string, decimal.Decimal) bool {
	return true
}

// MatchDWTRange interprets size as a DWT bracket. Accepted forms:
//
//	""  "all"  "any"       every DWT
//	"10000-59999"          inclusive range
//	"200000+"  ">=200000"  at least
//	">200000"              strictly above
//	"<10000"               strictly below
//	"<=9999"               at most
//
// Thousands separators ("," "_" and spaces) are ignored. A size that cannot
// be parsed matches nothing.
func MatchDWTRange(size string, dwt decimal.Decimal) bool {
	s := strings.ToLower(strings.TrimSpace(size))
	switch s {
	case "", "all", "any":
		return true
	}

	switch {
	case strings.HasPrefix(s, ">="):
		lo, ok := parseTonnage(s[2:])
		return ok && dwt.GreaterThanOrEqual(lo)
	case strings.HasPrefix(s, "<="):
		hi, ok := parseTonnage(s[2:])
		return ok && dwt.LessThanOrEqual(hi)
	case strings.HasPrefix(s, ">"):
		lo, ok := parseTonnage(s[1:])
		return ok && dwt.GreaterThan(lo)
	case strings.HasPrefix(s, "<"):
		hi, ok := parseTonnage(s[1:])
		return ok && dwt.LessThan(hi)
	case strings.HasSuffix(s, "+"):
		lo, ok := parseTonnage(strings.TrimSuffix(s, "+"))
		return ok && dwt.GreaterThanOrEqual(lo)
	}

	if i := strings.Index(s, "-"); i > 0 {
		lo, okLo := parseTonnage(s[:i])
		hi, okHi := parseTonnage(s[i+1:])
		return okLo && okHi && dwt.GreaterThanOrEqual(lo) && dwt.LessThanOrEqual(hi)
	}
	return false
}

func parseTonnage(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	s = strings.TrimSuffix(s, "dwt")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
