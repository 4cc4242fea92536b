// Package main generates the demo fleet dataset embedded in
// internal/fleetdata/data for the "sample" data source.
//
// The output is deterministic: four vessels, one daily-log emission entry
// every five days across 2023 and 2024 (plus a few entries for a vessel that
// is not part of the fleet), and Poseidon Principles reference rows for two
// of the three vessel categories.
//
// Usage:
//
//	go run ./tools/generate-sample-data [--out-dir DIR]
//
// Flags:
//
//	--out-dir   Output directory (default: ./internal/fleetdata/data)
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

const (
	// logIntervalDays is the spacing of generated daily-log entries.
	logIntervalDays = 5

	// outsiderIMO is a registry number that belongs to no fleet vessel.
	outsiderIMO = 9399999
)

type vessel struct {
	ID         string `json:"id"`
	Name       string `json:"Name"`
	IMONo      int64  `json:"IMONo"`
	VesselType int    `json:"VesselType"`
	DWT        int64  `json:"DWT"`

	// base is the mean EEOI of the vessel in 2023 and trend its yearly change.
	base  float64
	trend float64
}

type emission struct {
	EID         string  `json:"EID"`
	VesselID    int64   `json:"VesselID"`
	LOGID       string  `json:"LOGID"`
	FromUTC     string  `json:"FromUTC"`
	TOUTC       string  `json:"TOUTC"`
	EEOICO2eW2W float64 `json:"EEOICO2eW2W"`
}

type ppReference struct {
	RowID        int     `json:"RowID"`
	Category     string  `json:"Category"`
	VesselTypeID int     `json:"VesselTypeID"`
	Size         string  `json:"Size"`
	Traj         string  `json:"Traj"`
	A            float64 `json:"a"`
	B            float64 `json:"b"`
	C            float64 `json:"c"`
	D            float64 `json:"d"`
	E            float64 `json:"e"`
}

var vessels = []vessel{
	{ID: "66a1f0c2e4b0a1b2c3d4e501", Name: "Nordic Aurora", IMONo: 9391001, VesselType: 1, DWT: 158000, base: 5.9, trend: -0.35},
	{ID: "66a1f0c2e4b0a1b2c3d4e502", Name: "Cape Meridian", IMONo: 9391002, VesselType: 2, DWT: 81000, base: 6.4, trend: 0.2},
	{ID: "66a1f0c2e4b0a1b2c3d4e503", Name: "Baltic Tern", IMONo: 9391003, VesselType: 1, DWT: 115000, base: 5.1, trend: -0.1},
	{ID: "66a1f0c2e4b0a1b2c3d4e504", Name: "Coral Ensign", IMONo: 9391004, VesselType: 3, DWT: 45000, base: 9.8, trend: 0},
}

// Size and Traj carry the trailing padding found in the source export.
var ppReferences = []ppReference{
	{RowID: 1, Category: "Tanker", VesselTypeID: 1, Size: "All ", Traj: "Min  ", A: 68, B: 0.12, C: 2036, D: 0.2, E: 0.5},
	{RowID: 2, Category: "Tanker", VesselTypeID: 1, Size: "All ", Traj: "Striving  ", A: 68, B: 0.15, C: 2032, D: 0.2, E: 0.5},
	{RowID: 3, Category: "Bulk carrier", VesselTypeID: 2, Size: "All ", Traj: "Min  ", A: 55, B: 0.1, C: 2038, D: 0.18, E: 0.4},
	{RowID: 4, Category: "Bulk carrier", VesselTypeID: 2, Size: "All ", Traj: "Striving  ", A: 55, B: 0.14, C: 2033, D: 0.18, E: 0.4},
}

func main() {
	outDir := flag.String("out-dir", "./internal/fleetdata/data", "Output directory for the JSON files")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	files := map[string]interface{}{
		"vessels.json":             vessels,
		"daily-log-emissions.json": generateEmissions(),
		"pp-reference.json":        ppReferences,
	}
	for name, v := range files {
		if err := writeJSON(filepath.Join(*outDir, name), v); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", filepath.Join(*outDir, name))
	}
}

// generateEmissions produces one entry per vessel every logIntervalDays.
// The EEOI follows a seasonal swing around the vessel's base value plus its
// yearly trend, rounded to four decimal places.
func generateEmissions() []emission {
	start := time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	var out []emission
	logID := int64(7100000000)
	for day := 0; ; day += logIntervalDays {
		to := start.AddDate(0, 0, day)
		if !to.Before(end) {
			break
		}
		from := to.AddDate(0, 0, -1)
		for i, v := range vessels {
			logID++
			out = append(out, emission{
				EID:         fmt.Sprintf("E-%d-%04d", v.IMONo, day),
				VesselID:    v.IMONo,
				LOGID:       fmt.Sprintf("%d", logID),
				FromUTC:     from.Format(time.RFC3339),
				TOUTC:       to.Format(time.RFC3339),
				EEOICO2eW2W: eeoi(v.base, v.trend, day, i),
			})
		}
		if day%90 == 0 {
			logID++
			out = append(out, emission{
				EID:         fmt.Sprintf("E-%d-%04d", outsiderIMO, day),
				VesselID:    outsiderIMO,
				LOGID:       fmt.Sprintf("%d", logID),
				FromUTC:     from.Format(time.RFC3339),
				TOUTC:       to.Format(time.RFC3339),
				EEOICO2eW2W: 12.5,
			})
		}
	}
	return out
}

func eeoi(base, trend float64, day, phase int) float64 {
	season := 0.08 * math.Sin(2*math.Pi*float64(day+phase*30)/365)
	value := base*(1+season) + trend*float64(day)/365
	return math.Round(value*10000) / 10000
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
