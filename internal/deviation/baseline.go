package deviation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Candidate is the value one curve row prescribes.
type Candidate struct {
	RowID string
	Traj  string
	Size  string
	Value decimal.Decimal
}

// Baseline is the evaluation of every applicable curve row.
type Baseline struct {
	// Min is the strictest (smallest) candidate value.
	Min decimal.Decimal

	// Candidates holds one value per applicable row, in row order.
	Candidates []Candidate
}

// BaselineEvaluator evaluates the reference curves of a vessel category and
// returns the strictest applicable baseline.
type BaselineEvaluator struct {
	policy    CurvePolicy
	matchSize SizeMatcher
}

// NewBaselineEvaluator creates an evaluator. A nil policy selects
// LogisticTrajectory and a nil matcher selects MatchAnySize.
func NewBaselineEvaluator(policy CurvePolicy, matchSize SizeMatcher) *BaselineEvaluator {
	if policy == nil {
		policy = NewLogisticTrajectory()
	}
	if matchSize == nil {
		matchSize = MatchAnySize
	}
	return &BaselineEvaluator{policy: policy, matchSize: matchSize}
}

// Policy returns the curve policy in use.
func (e *BaselineEvaluator) Policy() CurvePolicy {
	return e.policy
}

// Evaluate computes the baseline for a vessel of the given DWT in the given
// year. rows must already be filtered to the vessel's category; rows whose
// size class does not match dwt are skipped.
//
// Returns ErrNoApplicableCurve if no row applies. It never returns a zero
// value in place of a missing baseline.
func (e *BaselineEvaluator) Evaluate(rows []CurveRow, year int, dwt decimal.Decimal) (Baseline, error) {
	var out Baseline
	for _, row := range rows {
		if !e.matchSize(row.Size, dwt) {
			continue
		}
		value, err := e.policy.EvaluateCurve(row, year, dwt)
		if err != nil {
			return Baseline{}, fmt.Errorf("evaluate %s: %w", e.policy.Name(), err)
		}
		if len(out.Candidates) == 0 || value.LessThan(out.Min) {
			out.Min = value
		}
		out.Candidates = append(out.Candidates, Candidate{
			RowID: row.RowID,
			Traj:  row.Traj,
			Size:  row.Size,
			Value: value,
		})
	}

	if len(out.Candidates) == 0 {
		return Baseline{}, fmt.Errorf("year %d, dwt %s: %w", year, dwt, ErrNoApplicableCurve)
	}
	return out, nil
}

// RowsForType returns the rows belonging to a vessel category, in input order.
func RowsForType(rows []CurveRow, vesselType int) []CurveRow {
	var out []CurveRow
	for _, row := range rows {
		if row.VesselTypeID == vesselType {
			out = append(out, row)
		}
	}
	return out
}
