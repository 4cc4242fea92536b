package report

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics publishes the latest report as Prometheus gauges.
type Metrics struct {
	deviation  *prometheus.GaugeVec
	summary    *prometheus.GaugeVec
	issues     *prometheus.GaugeVec
	unmapped   prometheus.Gauge
	lastReport prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deviation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_deviation_percent",
			Help: "Deviation of the selected quarterly carbon intensity from the reference baseline, in percent.",
		}, []string{"vessel", "year", "quarter"}),
		summary: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_deviation_summary",
			Help: "Fleet-wide deviation statistics (count, average, min, max, stddev, positive, negative).",
		}, []string{"stat"}),
		issues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_deviation_issues",
			Help: "Vessel quarters excluded from the latest report, by kind.",
		}, []string{"kind"}),
		unmapped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_deviation_unmapped_emissions",
			Help: "Emission records in the latest report that matched no vessel.",
		}),
		lastReport: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_deviation_last_report_timestamp_seconds",
			Help: "Unix time the latest report was generated.",
		}),
	}

	reg.MustRegister(m.deviation, m.summary, m.issues, m.unmapped, m.lastReport)
	return m
}

// Observe replaces the published values with those of doc. Series of
// vessels or quarters absent from doc are removed.
func (m *Metrics) Observe(doc *Document) {
	if m == nil {
		return
	}

	m.deviation.Reset()
	for _, v := range doc.Results {
		for _, q := range v.QuarterlyData {
			m.deviation.WithLabelValues(v.VesselID, strconv.Itoa(q.Year), strconv.Itoa(q.Quarter)).Set(toFloat(q.Deviation))
		}
	}

	s := doc.Summary
	m.summary.WithLabelValues("count").Set(float64(s.Count))
	m.summary.WithLabelValues("average").Set(toFloat(s.Average))
	m.summary.WithLabelValues("min").Set(toFloat(s.Min))
	m.summary.WithLabelValues("max").Set(toFloat(s.Max))
	m.summary.WithLabelValues("stddev").Set(toFloat(s.StdDev))
	m.summary.WithLabelValues("positive").Set(float64(s.PositiveDeviations))
	m.summary.WithLabelValues("negative").Set(float64(s.NegativeDeviations))

	m.issues.Reset()
	for _, kind := range []string{KindNoApplicableCurve, KindDegenerateBaseline, KindMalformedInput, KindOther} {
		m.issues.WithLabelValues(kind).Set(0)
	}
	for _, i := range doc.Issues {
		m.issues.WithLabelValues(i.Kind).Inc()
	}

	m.unmapped.Set(float64(doc.UnmappedEmissions))
	m.lastReport.Set(float64(doc.GeneratedAt.Unix()))
}

func toFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}
