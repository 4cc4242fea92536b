package deviation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// flatRow evaluates to a/2 for every year and DWT under LogisticTrajectory.
func flatRow(vesselType int, a string) CurveRow {
	return CurveRow{
		RowID:        "row-" + a,
		VesselTypeID: vesselType,
		Traj:         "Min",
		A:            dec(a),
	}
}
