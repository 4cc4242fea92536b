package deviation

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Policy evaluates curve rows (default: LogisticTrajectory).
	Policy CurvePolicy

	// SizeMatcher filters curve rows by size class (default: MatchAnySize).
	SizeMatcher SizeMatcher

	// Workers is the number of vessels computed in parallel. Values below 2
	// compute sequentially. Output is identical for any value.
	Workers int
}

// Engine computes quarterly deviations for a fleet. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	evaluator *BaselineEvaluator
	workers   int
	logger    zerolog.Logger // logger is immutable (copy-on-write)
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		evaluator: NewBaselineEvaluator(cfg.Policy, cfg.SizeMatcher),
		workers:   cfg.Workers,
		logger:    logger,
	}
}

// Evaluator returns the baseline evaluator used by the engine.
func (e *Engine) Evaluator() *BaselineEvaluator {
	return e.evaluator
}

type vesselOutcome struct {
	result DeviationResult
	issues []Issue
}

// Compute selects one emission record per vessel and quarter, evaluates the
// baseline for each and derives the percentage deviation.
//
// For each vessel with at least one selected quarter:
//  1. Curve rows are filtered to the vessel's category.
//  2. The baseline is the minimum over the applicable rows for the quarter's year.
//  3. deviation = ((actual − baseline) / baseline) × 100, unrounded.
//
// Quarters without an applicable curve or with a zero baseline are excluded
// and listed in Report.Issues. Vessels left without any quarter are omitted.
func (e *Engine) Compute(vessels []Vessel, emissions []EmissionRecord, rows []CurveRow) *Report {
	sel := SelectQuarterly(vessels, emissions)

	e.logger.Debug().
		Int("vessels", len(vessels)).
		Int("emissions", len(emissions)).
		Int("selected", sel.Len()).
		Int("unmapped", sel.Unmapped()).
		Int("rejected", sel.Rejected()).
		Msg("quarterly selection complete")

	rowsByType := make(map[int][]CurveRow)
	for _, v := range vessels {
		if _, ok := rowsByType[v.VesselType]; !ok {
			rowsByType[v.VesselType] = RowsForType(rows, v.VesselType)
		}
	}

	outcomes := make([]vesselOutcome, len(vessels))
	compute := func(i int) {
		v := vessels[i]
		outcomes[i] = e.computeVessel(v, sel, rowsByType[v.VesselType])
	}

	if e.workers < 2 {
		for i := range vessels {
			compute(i)
		}
	} else {
		jobs := make(chan int, len(vessels))
		for i := range vessels {
			jobs <- i
		}
		close(jobs)

		var wg sync.WaitGroup
		for w := 0; w < e.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					compute(i)
				}
			}()
		}
		wg.Wait()
	}

	report := &Report{
		UnmappedEmissions: sel.Unmapped(),
		RejectedEmissions: sel.Rejected(),
	}
	// Duplicate vessels (same key) would yield identical outcomes; keep one.
	seen := make(map[string]bool, len(vessels))
	for i, out := range outcomes {
		key := vesselKey(vessels[i])
		if seen[key] {
			continue
		}
		seen[key] = true

		report.Issues = append(report.Issues, out.issues...)
		if len(out.result.QuarterlyData) > 0 {
			report.Results = append(report.Results, out.result)
		}
	}
	return report
}

func (e *Engine) computeVessel(v Vessel, sel *QuarterlySelection, rows []CurveRow) vesselOutcome {
	key := vesselKey(v)
	out := vesselOutcome{
		result: DeviationResult{VesselID: key, VesselName: v.Name},
	}

	// Quarters are ascending by (year, quarter).
	for _, q := range sel.Quarters(key) {
		rec, _ := sel.Get(key, q)

		qd, err := e.quarterDeviation(v, key, q, rec, rows)
		if err != nil {
			out.issues = append(out.issues, Issue{VesselID: key, Quarter: q, Err: err})
			continue
		}
		out.result.QuarterlyData = append(out.result.QuarterlyData, qd)
	}

	return out
}

func (e *Engine) quarterDeviation(v Vessel, key string, q QuarterKey, rec EmissionRecord, rows []CurveRow) (QuarterlyDeviation, error) {
	if !v.DWT.IsPositive() {
		return QuarterlyDeviation{}, fmt.Errorf("vessel %s dwt %s: %w", key, v.DWT, ErrMalformedInput)
	}

	baseline, err := e.evaluator.Evaluate(rows, q.Year, v.DWT)
	if err != nil {
		return QuarterlyDeviation{}, fmt.Errorf("vessel type %d: %w", v.VesselType, err)
	}

	dev, err := PercentDeviation(rec.EEOICO2eW2W, baseline.Min)
	if err != nil {
		return QuarterlyDeviation{}, err
	}

	return QuarterlyDeviation{
		VesselID:    key,
		Year:        q.Year,
		Quarter:     q.Quarter,
		Record:      rec,
		Baseline:    baseline.Min,
		ActualValue: rec.EEOICO2eW2W,
		Deviation:   dev,
	}, nil
}
