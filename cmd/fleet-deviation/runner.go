package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/fleet-deviation/internal/config"
	"github.com/rshade/fleet-deviation/internal/deviation"
	"github.com/rshade/fleet-deviation/internal/fleetdata"
	"github.com/rshade/fleet-deviation/internal/history"
	"github.com/rshade/fleet-deviation/internal/report"
)

// Runner loads fleet data, computes deviations and publishes the resulting
// document.
type Runner struct {
	source  fleetdata.Source
	engine  *deviation.Engine
	builder *report.Builder
	metrics *report.Metrics
	history *history.Store
	keep    int
	logger  zerolog.Logger
}

func newSource(cfg config.SourceConfig, logger zerolog.Logger) (fleetdata.Source, error) {
	var opts fleetdata.DecodeOptions
	if cfg.DWTFallback {
		fallback := fleetdata.DefaultDWTFallback()
		opts.DWTFallback = &fallback
	}

	switch cfg.Kind {
	case config.SourceFile:
		return fleetdata.NewFileSource(cfg.Dir, opts, logger), nil
	case config.SourceHTTP:
		return fleetdata.NewHTTPSource(cfg.BaseURL, nil, cfg.Timeout, opts, logger), nil
	case config.SourceSample:
		return fleetdata.NewSampleSource(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func newEngine(cfg config.EngineConfig, logger zerolog.Logger) *deviation.Engine {
	matcher := deviation.MatchAnySize
	if cfg.SizeMatching == config.SizeMatchRange {
		matcher = deviation.MatchDWTRange
	}
	return deviation.NewEngine(deviation.EngineConfig{
		Policy:      deviation.NewLogisticTrajectory(),
		SizeMatcher: matcher,
		Workers:     cfg.Workers,
	}, logger)
}

// Run performs one complete report cycle.
func (r *Runner) Run(ctx context.Context) (*report.Document, error) {
	ds, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet data from %s: %w", r.source.Name(), err)
	}

	rep := r.engine.Compute(ds.Vessels, ds.Emissions, ds.CurveRows)

	for _, issue := range rep.Issues {
		r.logger.Warn().
			Str("vessel_id", issue.VesselID).
			Str("quarter", issue.Quarter.String()).
			Str("kind", report.IssueKind(issue.Err)).
			Err(issue.Err).
			Msg("quarter excluded from report")
	}
	if rep.UnmappedEmissions > 0 {
		r.logger.Debug().Int("emissions", rep.UnmappedEmissions).Msg("emissions without a matching vessel dropped")
	}
	if rep.RejectedEmissions > 0 {
		r.logger.Warn().Int("emissions", rep.RejectedEmissions).Msg("emissions without a reporting instant rejected")
	}

	doc := r.builder.Build(rep, report.Meta{
		Source: r.source.Name(),
		Policy: r.engine.Evaluator().Policy().Name(),
	})
	r.metrics.Observe(doc)

	if r.history != nil {
		if err := r.history.Save(ctx, doc); err != nil {
			return nil, err
		}
		if r.keep > 0 {
			if pruned, err := r.history.Prune(ctx, r.keep); err != nil {
				r.logger.Error().Err(err).Msg("failed to prune report history")
			} else if pruned > 0 {
				r.logger.Debug().Int64("reports", pruned).Msg("report history pruned")
			}
		}
	}

	r.logger.Info().
		Str("report_id", doc.ReportID).
		Int("vessels", len(doc.Results)).
		Int("deviations", doc.Summary.Count).
		Int("issues", len(doc.Issues)).
		Msg("report generated")

	return doc, nil
}
