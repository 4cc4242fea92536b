package deviation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticTrajectoryFlatRow(t *testing.T) {
	policy := NewLogisticTrajectory()
	row := flatRow(1, "1000")

	for _, year := range []int{2019, 2024, 2030, 2050} {
		for _, dwt := range []string{"1", "150000", "400000.5"} {
			got, err := policy.EvaluateCurve(row, year, dec(dwt))
			require.NoError(t, err)
			assertDecimal(t, "500", got)
		}
	}
}

func TestLogisticTrajectory(t *testing.T) {
	policy := NewLogisticTrajectory()

	tests := []struct {
		name  string
		row   CurveRow
		year  int
		dwt   string
		want  float64
		delta float64
	}{
		{
			name: "floor is added",
			row:  CurveRow{A: dec("10"), E: dec("2.5")},
			year: 2024, dwt: "50000",
			want: 7.5, delta: 1e-12,
		},
		{
			name: "midpoint year halves the reference",
			row:  CurveRow{A: dec("12"), B: dec("0.3"), C: dec("2030")},
			year: 2030, dwt: "50000",
			want: 6, delta: 1e-12,
		},
		{
			name: "long after midpoint approaches zero",
			row:  CurveRow{A: dec("1000"), B: dec("1"), C: dec("2030")},
			year: 2050, dwt: "50000",
			want: 1000 / (1 + 485165195.4097903), delta: 1e-9,
		},
		{
			name: "long before midpoint approaches the reference",
			row:  CurveRow{A: dec("1000"), B: dec("1"), C: dec("2030")},
			year: 2010, dwt: "50000",
			want: 1000 / (1 + 1/485165195.4097903), delta: 1e-6,
		},
		{
			name: "dwt exponent scales the reference line",
			row:  CurveRow{A: dec("1000"), D: dec("0.5")},
			year: 2024, dwt: "10000",
			want: 5, delta: 1e-9,
		},
		{
			name: "integer dwt exponent",
			row:  CurveRow{A: dec("1000000"), D: dec("1")},
			year: 2024, dwt: "1000",
			want: 500, delta: 1e-9,
		},
		{
			name: "exponent at the saturation bound is still evaluated",
			row:  CurveRow{A: dec("1000"), B: dec("1"), C: dec("1964")},
			year: 2024, dwt: "50000",
			want: 0, delta: 1e-20,
		},
		{
			name: "steep row after midpoint saturates to the floor",
			row:  CurveRow{A: dec("1000"), B: dec("50"), E: dec("2.5")},
			year: 2024, dwt: "50000",
			want: 2.5, delta: 0,
		},
		{
			name: "steep row before midpoint saturates to the reference",
			row:  CurveRow{A: dec("1000"), B: dec("50"), C: dec("2100"), E: dec("0.5")},
			year: 2024, dwt: "50000",
			want: 1000.5, delta: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.EvaluateCurve(tt.row, tt.year, dec(tt.dwt))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.InexactFloat64(), tt.delta)
		})
	}
}

func TestLogisticTrajectorySteepRowsReturnPromptly(t *testing.T) {
	policy := NewLogisticTrajectory()
	rows := []CurveRow{
		{A: dec("1000"), B: dec("5")},
		{A: dec("1000"), B: dec("50")},
		{A: dec("1000"), B: dec("-50"), D: dec("0.3")},
		{A: dec("1000"), B: dec("1e6"), C: dec("2024.5")},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, row := range rows {
			_, err := policy.EvaluateCurve(row, 2024, dec("150000"))
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("steep rows did not evaluate within 5s")
	}
}

func TestLogisticTrajectoryDecreasesOverTime(t *testing.T) {
	policy := NewLogisticTrajectory()
	row := CurveRow{A: dec("20"), B: dec("0.15"), C: dec("2035"), D: dec("0.2"), E: dec("0.5")}

	prev := decimal.Zero
	for year := 2019; year <= 2050; year++ {
		got, err := policy.EvaluateCurve(row, year, dec("150000"))
		require.NoError(t, err)
		if year > 2019 {
			assert.True(t, got.LessThan(prev), "year %d: %s not below %s", year, got, prev)
		}
		prev = got
	}
}

func TestLogisticTrajectoryRejectsNonPositiveDWT(t *testing.T) {
	policy := NewLogisticTrajectory()

	for _, dwt := range []string{"0", "-1"} {
		_, err := policy.EvaluateCurve(flatRow(1, "1000"), 2024, dec(dwt))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedInput)
	}
}

func TestLogisticTrajectoryName(t *testing.T) {
	assert.Equal(t, "logistic-trajectory/v1", NewLogisticTrajectory().Name())
}
