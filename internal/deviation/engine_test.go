package deviation

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterEnds2024(imo int64, values ...string) []EmissionRecord {
	ends := []time.Time{
		utc(2024, time.March, 31, 0),
		utc(2024, time.June, 30, 0),
		utc(2024, time.September, 30, 0),
		utc(2024, time.December, 31, 0),
	}
	var out []EmissionRecord
	for i, v := range values {
		out = append(out, emission(imo, ends[i], v, fmt.Sprintf("%d-Q%d", imo, i+1)))
	}
	return out
}

func TestEngineComputeScenario(t *testing.T) {
	vessels := []Vessel{{ID: "v1", Name: "Aurora", IMONo: 9300001, VesselType: 1, DWT: dec("150000")}}
	emissions := quarterEnds2024(9300001, "550", "450", "500", "600")
	rows := []CurveRow{flatRow(1, "1000")}

	engine := NewEngine(EngineConfig{}, zerolog.Nop())
	report := engine.Compute(vessels, emissions, rows)

	require.Len(t, report.Results, 1)
	assert.Empty(t, report.Issues)
	res := report.Results[0]
	assert.Equal(t, "v1", res.VesselID)
	assert.Equal(t, "Aurora", res.VesselName)
	require.Len(t, res.QuarterlyData, 4)

	wantDev := []string{"10", "-10", "0", "20"}
	for i, q := range res.QuarterlyData {
		assert.Equal(t, 2024, q.Year)
		assert.Equal(t, i+1, q.Quarter)
		assertDecimal(t, "500", q.Baseline)
		assertDecimal(t, wantDev[i], q.Deviation)
		assert.True(t, q.ActualValue.Equal(q.Record.EEOICO2eW2W))
	}

	summary := Summarize(report.Results)
	assert.Equal(t, 4, summary.Count)
	assertDecimal(t, "5", summary.Average)
	assertDecimal(t, "-10", summary.Min)
	assertDecimal(t, "20", summary.Max)
	assert.Equal(t, 2, summary.PositiveDeviations)
	assert.Equal(t, 1, summary.NegativeDeviations)
}

func TestEngineSignConvention(t *testing.T) {
	vessels := []Vessel{{ID: "v1", IMONo: 1, VesselType: 1, DWT: dec("1000")}}
	rows := []CurveRow{flatRow(1, "20")} // baseline 10

	tests := []struct {
		actual string
		sign   int
	}{
		{"10.0000001", 1},
		{"9.9999999", -1},
		{"10", 0},
	}

	engine := NewEngine(EngineConfig{}, zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.actual, func(t *testing.T) {
			report := engine.Compute(vessels, quarterEnds2024(1, tt.actual), rows)
			require.Len(t, report.Results, 1)
			assert.Equal(t, tt.sign, report.Results[0].QuarterlyData[0].Deviation.Sign())
		})
	}
}

func TestEngineUnmappedEmissionsExcluded(t *testing.T) {
	vessels := []Vessel{{ID: "v1", IMONo: 1, VesselType: 1, DWT: dec("1000")}}
	emissions := append(quarterEnds2024(1, "550"), quarterEnds2024(999, "9000", "9000")...)
	rows := []CurveRow{flatRow(1, "1000")}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, emissions, rows)

	require.Len(t, report.Results, 1)
	assert.Len(t, report.Results[0].QuarterlyData, 1)
	assert.Equal(t, 2, report.UnmappedEmissions)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 1, Summarize(report.Results).Count)
}

func TestEngineOmitsVesselsWithoutQuarters(t *testing.T) {
	vessels := []Vessel{
		{ID: "idle", IMONo: 1, VesselType: 1, DWT: dec("1000")},
		{ID: "busy", IMONo: 2, VesselType: 1, DWT: dec("1000")},
	}
	rows := []CurveRow{flatRow(1, "1000")}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, quarterEnds2024(2, "500"), rows)

	require.Len(t, report.Results, 1)
	assert.Equal(t, "busy", report.Results[0].VesselID)
}

func TestEngineNoApplicableCurve(t *testing.T) {
	vessels := []Vessel{
		{ID: "tanker", IMONo: 1, VesselType: 1, DWT: dec("1000")},
		{ID: "bulker", IMONo: 2, VesselType: 2, DWT: dec("1000")},
	}
	emissions := append(quarterEnds2024(1, "500", "500"), quarterEnds2024(2, "500")...)
	rows := []CurveRow{flatRow(2, "1000")}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, emissions, rows)

	require.Len(t, report.Results, 1)
	assert.Equal(t, "bulker", report.Results[0].VesselID)
	require.Len(t, report.Issues, 2)
	for i, issue := range report.Issues {
		assert.Equal(t, "tanker", issue.VesselID)
		assert.Equal(t, QuarterKey{2024, i + 1}, issue.Quarter)
		assert.ErrorIs(t, issue, ErrNoApplicableCurve)
	}
}

func TestEngineCurveRowsNeverCrossCategories(t *testing.T) {
	vessels := []Vessel{{ID: "v1", IMONo: 1, VesselType: 1, DWT: dec("1000")}}
	rows := []CurveRow{
		flatRow(2, "2"), // would be the minimum if categories were mixed
		flatRow(1, "1000"),
	}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, quarterEnds2024(1, "500"), rows)

	require.Len(t, report.Results, 1)
	assertDecimal(t, "500", report.Results[0].QuarterlyData[0].Baseline)
}

func TestEngineDegenerateBaseline(t *testing.T) {
	vessels := []Vessel{{ID: "v1", IMONo: 1, VesselType: 1, DWT: dec("1000")}}
	rows := []CurveRow{{RowID: "zero", VesselTypeID: 1}}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, quarterEnds2024(1, "500"), rows)

	assert.Empty(t, report.Results)
	require.Len(t, report.Issues, 1)
	assert.ErrorIs(t, report.Issues[0], ErrDegenerateBaseline)
}

func TestEngineNonPositiveDWT(t *testing.T) {
	vessels := []Vessel{
		{ID: "nodwt", IMONo: 1, VesselType: 1},
		{ID: "ok", IMONo: 2, VesselType: 1, DWT: dec("1000")},
	}
	emissions := append(quarterEnds2024(1, "500"), quarterEnds2024(2, "500")...)

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, emissions, []CurveRow{flatRow(1, "1000")})

	require.Len(t, report.Results, 1)
	assert.Equal(t, "ok", report.Results[0].VesselID)
	require.Len(t, report.Issues, 1)
	assert.ErrorIs(t, report.Issues[0], ErrMalformedInput)
	assert.Contains(t, report.Issues[0].Error(), "nodwt 2024-Q1")
}

func TestEngineSortsQuartersAcrossYears(t *testing.T) {
	vessels := []Vessel{{ID: "v1", IMONo: 1, VesselType: 1, DWT: dec("1000")}}
	emissions := []EmissionRecord{
		emission(1, utc(2024, time.May, 1, 0), "1", "2024-Q2"),
		emission(1, utc(2023, time.November, 1, 0), "1", "2023-Q4"),
		emission(1, utc(2024, time.February, 1, 0), "1", "2024-Q1"),
		emission(1, utc(2023, time.August, 1, 0), "1", "2023-Q3"),
	}

	report := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, emissions, []CurveRow{flatRow(1, "1000")})

	require.Len(t, report.Results, 1)
	var got []string
	for _, q := range report.Results[0].QuarterlyData {
		got = append(got, q.Record.Ref)
	}
	assert.Equal(t, []string{"2023-Q3", "2023-Q4", "2024-Q1", "2024-Q2"}, got)
}

func fleetFixture(n int) ([]Vessel, []EmissionRecord, []CurveRow) {
	var vessels []Vessel
	var emissions []EmissionRecord
	for i := 0; i < n; i++ {
		imo := int64(9000000 + i)
		vessels = append(vessels, Vessel{
			ID:         fmt.Sprintf("v%03d", i),
			IMONo:      imo,
			VesselType: i%3 + 1,
			DWT:        dec(fmt.Sprintf("%d", 20000+i*1500)),
		})
		for day := 0; day < 730; day += 11 {
			at := utc(2023, time.January, 1, 6).AddDate(0, 0, day)
			emissions = append(emissions, emission(imo, at, fmt.Sprintf("%d.%d", 5+i%7, day%10), at.String()))
		}
	}
	rows := []CurveRow{
		{RowID: "1a", VesselTypeID: 1, A: dec("24"), B: dec("0.1"), C: dec("2035"), D: dec("0.1")},
		{RowID: "1b", VesselTypeID: 1, A: dec("22"), B: dec("0.2"), C: dec("2032"), D: dec("0.1")},
		{RowID: "2a", VesselTypeID: 2, A: dec("30"), B: dec("0.05"), C: dec("2040"), D: dec("0.15"), E: dec("0.5")},
		// vessel type 3 has no curve
	}
	return vessels, emissions, rows
}

func TestEngineDeterministicAcrossWorkers(t *testing.T) {
	vessels, emissions, rows := fleetFixture(24)

	sequential := NewEngine(EngineConfig{}, zerolog.Nop()).Compute(vessels, emissions, rows)
	require.NotEmpty(t, sequential.Results)
	require.NotEmpty(t, sequential.Issues)

	for _, workers := range []int{2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			parallel := NewEngine(EngineConfig{Workers: workers}, zerolog.Nop()).Compute(vessels, emissions, rows)
			assert.Equal(t, sequential, parallel)
		})
	}
}

func TestEngineIdempotent(t *testing.T) {
	vessels, emissions, rows := fleetFixture(6)
	engine := NewEngine(EngineConfig{Workers: 3}, zerolog.Nop())

	first := engine.Compute(vessels, emissions, rows)
	second := engine.Compute(vessels, emissions, rows)

	assert.Equal(t, first, second)
	assert.Equal(t, Summarize(first.Results), Summarize(second.Results))
}

func TestEngineSteepRowDoesNotBlockFleet(t *testing.T) {
	vessels := []Vessel{
		{ID: "ok", IMONo: 1, VesselType: 1, DWT: dec("1000")},
		{ID: "steep", IMONo: 2, VesselType: 2, DWT: dec("1000")},
	}
	emissions := append(quarterEnds2024(1, "500"), quarterEnds2024(2, "500")...)
	rows := []CurveRow{
		flatRow(1, "1000"),
		{RowID: "steep", VesselTypeID: 2, Traj: "Min", A: dec("1000"), B: dec("50")},
	}

	done := make(chan *Report, 1)
	go func() {
		done <- NewEngine(EngineConfig{Workers: 2}, zerolog.Nop()).Compute(vessels, emissions, rows)
	}()

	var report *Report
	select {
	case report = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Compute did not finish within 10s")
	}

	require.Len(t, report.Results, 1)
	assert.Equal(t, "ok", report.Results[0].VesselID)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "steep", report.Issues[0].VesselID)
	assert.ErrorIs(t, report.Issues[0].Err, ErrDegenerateBaseline)
}
