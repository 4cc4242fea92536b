package deviation

import (
	"fmt"
	"time"
)

// QuarterKey identifies a calendar quarter of a year. Quarter is 1-indexed.
type QuarterKey struct {
	Year    int
	Quarter int
}

// QuarterOf returns the quarter containing t, using t's own location.
// No time zone conversion is performed.
func QuarterOf(t time.Time) QuarterKey {
	month := int(t.Month())
	return QuarterKey{
		Year:    t.Year(),
		Quarter: (month + MonthsPerQuarter - 1) / MonthsPerQuarter,
	}
}

// End returns the canonical end instant of the quarter: midnight at the start
// of the quarter's last calendar day, in loc.
func (k QuarterKey) End(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	// Day 0 of the month after the quarter normalizes to the last day of the
	// quarter's final month.
	firstMonthAfter := time.Month(k.Quarter*MonthsPerQuarter + 1)
	return time.Date(k.Year, firstMonthAfter, 0, 0, 0, 0, 0, loc)
}

// Less orders keys by year, then quarter.
func (k QuarterKey) Less(other QuarterKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Quarter < other.Quarter
}

// String formats the key as "2024-Q1".
func (k QuarterKey) String() string {
	return fmt.Sprintf("%d-Q%d", k.Year, k.Quarter)
}
