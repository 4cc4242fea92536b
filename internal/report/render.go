package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// Renderer writes a Document in one output format.
type Renderer interface {
	Render(w io.Writer, doc *Document) error
	ContentType() string
}

// NewRenderer returns the renderer for format ("json" or "text").
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "json":
		return JSONRenderer{Indent: true}, nil
	case "text":
		return TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// JSONRenderer writes the Document as JSON.
type JSONRenderer struct {
	Indent bool
}

// ContentType implements Renderer.
func (JSONRenderer) ContentType() string {
	return "application/json"
}

// Render implements Renderer.
func (r JSONRenderer) Render(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// TextRenderer writes an aligned table followed by issues and the summary.
type TextRenderer struct{}

// ContentType implements Renderer.
func (TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render implements Renderer.
func (TextRenderer) Render(w io.Writer, doc *Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Report %s (%s)\n", doc.ReportID, doc.GeneratedAt.Format("2006-01-02 15:04:05Z07:00"))
	fmt.Fprintf(tw, "Policy: %s\n\n", doc.Policy)

	fmt.Fprintln(tw, "VESSEL\tNAME\tQUARTER\tBASELINE\tACTUAL\tDEVIATION %")
	for _, v := range doc.Results {
		for _, q := range v.QuarterlyData {
			fmt.Fprintf(tw, "%s\t%s\t%d-Q%d\t%s\t%s\t%s\n",
				v.VesselID, v.VesselName, q.Year, q.Quarter, q.Baseline, q.ActualValue, signed(q.Deviation))
		}
	}

	if len(doc.Issues) > 0 {
		fmt.Fprintf(tw, "\nIssues (%d)\n", len(doc.Issues))
		for _, i := range doc.Issues {
			fmt.Fprintf(tw, "%s\t%d-Q%d\t%s\n", i.VesselID, i.Year, i.Quarter, i.Kind)
		}
	}

	s := doc.Summary
	fmt.Fprintf(tw, "\nSummary\n")
	fmt.Fprintf(tw, "count\t%d\n", s.Count)
	fmt.Fprintf(tw, "average\t%s\n", signed(s.Average))
	fmt.Fprintf(tw, "min\t%s\n", signed(s.Min))
	fmt.Fprintf(tw, "max\t%s\n", signed(s.Max))
	fmt.Fprintf(tw, "std dev\t%s\n", s.StdDev)
	fmt.Fprintf(tw, "above baseline\t%d\n", s.PositiveDeviations)
	fmt.Fprintf(tw, "below baseline\t%d\n", s.NegativeDeviations)
	if doc.UnmappedEmissions > 0 {
		fmt.Fprintf(tw, "unmapped emissions\t%d\n", doc.UnmappedEmissions)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// signed prefixes non-negative, non-zero values with "+".
func signed(n json.Number) string {
	s := n.String()
	if s == "" || s[0] == '-' {
		return s
	}
	for _, c := range s {
		if c != '0' && c != '.' {
			return "+" + s
		}
	}
	return s
}
