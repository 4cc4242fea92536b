// Package deviation compares the carbon intensity reported by each vessel of
// a fleet against a Poseidon-Principles-style reference curve and produces
// per-quarter percentage deviations for compliance reporting.
//
// The package is a pure calculation layer: it consumes in-memory collections
// and returns in-memory results. It performs no I/O and no formatting.
package deviation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vessel is immutable fleet reference data.
type Vessel struct {
	// ID is the storage identity of the vessel.
	ID string

	// Name is the display name of the vessel.
	Name string

	// IMONo is the registry number. Emission records join on it.
	IMONo int64

	// VesselType is the category code matched against CurveRow.VesselTypeID.
	VesselType int

	// DWT is the deadweight tonnage. Must be positive for a baseline.
	DWT decimal.Decimal
}

// EmissionRecord is one reporting window of measured emissions for a vessel.
// Only the fields the engine consumes are modeled.
type EmissionRecord struct {
	// VesselID references Vessel.IMONo.
	VesselID int64

	// FromUTC is the start of the reporting window.
	FromUTC time.Time

	// TOUTC is the reporting instant used for quarter assignment.
	TOUTC time.Time

	// EEOICO2eW2W is the well-to-wake CO2e operational carbon intensity.
	EEOICO2eW2W decimal.Decimal

	// Ref is an opaque reference back to the source record (e.g. its EID).
	Ref string
}

// CurveRow holds the coefficients of one reference trajectory curve for one
// vessel category and size class. Size and Traj are expected to be trimmed
// at ingestion.
type CurveRow struct {
	RowID        string
	Category     string
	VesselTypeID int
	Size         string
	Traj         string

	A decimal.Decimal
	B decimal.Decimal
	C decimal.Decimal
	D decimal.Decimal
	E decimal.Decimal
}

// QuarterlyDeviation is the comparison result for one vessel in one quarter.
type QuarterlyDeviation struct {
	VesselID string
	Year     int
	Quarter  int

	// Record is the emission record selected for the quarter.
	Record EmissionRecord

	// Baseline is the strictest applicable reference value.
	Baseline decimal.Decimal

	// ActualValue is the measured EEOICO2eW2W of Record.
	ActualValue decimal.Decimal

	// Deviation is ((ActualValue - Baseline) / Baseline) * 100, unrounded.
	// Positive means worse than the reference.
	Deviation decimal.Decimal
}

// Key returns the quarter the deviation belongs to.
func (q QuarterlyDeviation) Key() QuarterKey {
	return QuarterKey{Year: q.Year, Quarter: q.Quarter}
}

// DeviationResult is the ordered deviation series of a single vessel.
// QuarterlyData is never empty.
type DeviationResult struct {
	VesselID      string
	VesselName    string
	QuarterlyData []QuarterlyDeviation
}

// Issue reports a vessel/quarter that could not be compared. The quarter is
// excluded from the results; the rest of the fleet is unaffected.
type Issue struct {
	VesselID string
	Quarter  QuarterKey
	Err      error
}

// Error implements the error interface.
func (i Issue) Error() string {
	return i.VesselID + " " + i.Quarter.String() + ": " + i.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is.
func (i Issue) Unwrap() error {
	return i.Err
}

// Report is the full output of one engine run.
type Report struct {
	// Results holds one entry per vessel with at least one computed quarter,
	// in vessel input order.
	Results []DeviationResult

	// Issues lists the vessel/quarters excluded from Results, ordered by
	// vessel input order then quarter.
	Issues []Issue

	// UnmappedEmissions counts emission records whose VesselID matched no
	// vessel. They are dropped, not reported as issues.
	UnmappedEmissions int

	// RejectedEmissions counts emission records without a reporting instant.
	RejectedEmissions int
}
