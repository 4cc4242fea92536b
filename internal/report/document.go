// Package report turns an engine run into its presentation form: a Document
// with values rounded for display, rendered as JSON or a text table and
// published as Prometheus gauges.
package report

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rshade/fleet-deviation/internal/deviation"
)

// Issue kinds.
const (
	KindNoApplicableCurve  = "no_applicable_curve"
	KindDegenerateBaseline = "degenerate_baseline"
	KindMalformedInput     = "malformed_input"
	KindOther              = "error"
)

// Document is the presentation form of a deviation report.
type Document struct {
	ReportID    string    `json:"reportId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Source      string    `json:"source,omitempty"`
	Policy      string    `json:"policy"`
	Precision   int32     `json:"precision"`

	Results []VesselEntry `json:"results"`
	Issues  []IssueEntry  `json:"issues"`
	Summary SummaryEntry  `json:"summary"`

	UnmappedEmissions int `json:"unmappedEmissions"`
	RejectedEmissions int `json:"rejectedEmissions"`
}

// VesselEntry is the quarterly series of one vessel.
type VesselEntry struct {
	VesselID      string         `json:"vesselId"`
	VesselName    string         `json:"vesselName"`
	QuarterlyData []QuarterEntry `json:"quarterlyData"`
}

// QuarterEntry is one rounded quarterly deviation.
type QuarterEntry struct {
	Year            int         `json:"year"`
	Quarter         int         `json:"quarter"`
	Baseline        json.Number `json:"baseline"`
	ActualValue     json.Number `json:"actualValue"`
	Deviation       json.Number `json:"deviation"`
	SourceRecordRef string      `json:"sourceRecordRef,omitempty"`
}

// IssueEntry is an excluded vessel/quarter.
type IssueEntry struct {
	VesselID string `json:"vesselId"`
	Year     int    `json:"year"`
	Quarter  int    `json:"quarter"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// SummaryEntry holds rounded fleet-wide statistics.
type SummaryEntry struct {
	Count              int         `json:"count"`
	Average            json.Number `json:"average"`
	Min                json.Number `json:"min"`
	Max                json.Number `json:"max"`
	StdDev             json.Number `json:"stdDev"`
	PositiveDeviations int         `json:"positiveDeviations"`
	NegativeDeviations int         `json:"negativeDeviations"`
}

// Meta describes where a report came from.
type Meta struct {
	Source string
	Policy string
}

// Builder creates Documents. Rounding happens here and nowhere else.
type Builder struct {
	precision int32
	now       func() time.Time
	newID     func() string
}

// NewBuilder creates a Builder rounding displayed values to precision
// decimal places.
func NewBuilder(precision int32) *Builder {
	return &Builder{
		precision: precision,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// Build converts an engine report into a Document. The summary is computed
// from the unrounded deviations.
func (b *Builder) Build(rep *deviation.Report, meta Meta) *Document {
	doc := &Document{
		ReportID:          b.newID(),
		GeneratedAt:       b.now(),
		Source:            meta.Source,
		Policy:            meta.Policy,
		Precision:         b.precision,
		Results:           make([]VesselEntry, 0, len(rep.Results)),
		Issues:            make([]IssueEntry, 0, len(rep.Issues)),
		UnmappedEmissions: rep.UnmappedEmissions,
		RejectedEmissions: rep.RejectedEmissions,
	}

	for _, r := range rep.Results {
		entry := VesselEntry{
			VesselID:      r.VesselID,
			VesselName:    r.VesselName,
			QuarterlyData: make([]QuarterEntry, 0, len(r.QuarterlyData)),
		}
		for _, q := range r.QuarterlyData {
			entry.QuarterlyData = append(entry.QuarterlyData, QuarterEntry{
				Year:            q.Year,
				Quarter:         q.Quarter,
				Baseline:        b.number(q.Baseline),
				ActualValue:     b.number(q.ActualValue),
				Deviation:       b.number(q.Deviation),
				SourceRecordRef: q.Record.Ref,
			})
		}
		doc.Results = append(doc.Results, entry)
	}

	for _, issue := range rep.Issues {
		doc.Issues = append(doc.Issues, IssueEntry{
			VesselID: issue.VesselID,
			Year:     issue.Quarter.Year,
			Quarter:  issue.Quarter.Quarter,
			Kind:     IssueKind(issue.Err),
			Reason:   issue.Err.Error(),
		})
	}

	s := deviation.Summarize(rep.Results)
	doc.Summary = SummaryEntry{
		Count:              s.Count,
		Average:            b.number(s.Average),
		Min:                b.number(s.Min),
		Max:                b.number(s.Max),
		StdDev:             b.number(decimal.NewFromFloat(s.StdDev)),
		PositiveDeviations: s.PositiveDeviations,
		NegativeDeviations: s.NegativeDeviations,
	}
	return doc
}

func (b *Builder) number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(b.precision))
}

// IssueKind classifies an issue cause.
func IssueKind(err error) string {
	switch {
	case errors.Is(err, deviation.ErrNoApplicableCurve):
		return KindNoApplicableCurve
	case errors.Is(err, deviation.ErrDegenerateBaseline):
		return KindDegenerateBaseline
	case errors.Is(err, deviation.ErrMalformedInput):
		return KindMalformedInput
	default:
		return KindOther
	}
}

// Vessel returns the entry for vesselID.
func (d *Document) Vessel(vesselID string) (VesselEntry, bool) {
	for _, v := range d.Results {
		if v.VesselID == vesselID {
			return v, true
		}
	}
	return VesselEntry{}, false
}
