// Package fleetdata loads the vessel, emission and reference-curve
// collections the deviation engine consumes, from JSON files, from the fleet
// HTTP API or from the embedded sample dataset.
package fleetdata

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/rshade/fleet-deviation/internal/deviation"
)

// Collection file names, as exported by the fleet database seed.
const (
	VesselsFile     = "vessels.json"
	EmissionsFile   = "daily-log-emissions.json"
	PPReferenceFile = "pp-reference.json"
)

// API paths of the fleet HTTP service.
const (
	VesselsPath     = "/api/vessels"
	EmissionsPath   = "/api/emissions"
	PPReferencePath = "/api/pp-references"
)

// Dataset is the decoded input of one engine run.
type Dataset struct {
	Vessels   []deviation.Vessel
	Emissions []deviation.EmissionRecord
	CurveRows []deviation.CurveRow

	// DefaultedDWT counts vessels whose DWT came from a DWTFallback.
	DefaultedDWT int
}

// vesselRecord is a vessel as served by /api/vessels.
type vesselRecord struct {
	ID         string           `json:"id"`
	Name       string           `json:"Name"`
	IMONo      *int64           `json:"IMONo"`
	VesselType int              `json:"VesselType"`
	DWT        *decimal.Decimal `json:"DWT"`
}

// emissionRecord is a daily log emission entry as served by /api/emissions.
// Only the fields the engine needs are decoded; the measured battery of
// per-consumer CO2 values is ignored.
type emissionRecord struct {
	EID         json.RawMessage  `json:"EID"`
	VesselID    *int64           `json:"VesselID"`
	LOGID       json.RawMessage  `json:"LOGID"` // BigInt, served as a string
	FromUTC     *time.Time       `json:"FromUTC"`
	TOUTC       *time.Time       `json:"TOUTC"`
	EEOICO2eW2W *decimal.Decimal `json:"EEOICO2eW2W"`
}

// ppReferenceRecord is one Poseidon Principles reference curve row as served
// by /api/pp-references.
type ppReferenceRecord struct {
	RowID        json.RawMessage  `json:"RowID"`
	Category     string           `json:"Category"`
	VesselTypeID int              `json:"VesselTypeID"`
	Size         string           `json:"Size"`
	Traj         string           `json:"Traj"`
	A            *decimal.Decimal `json:"a"`
	B            *decimal.Decimal `json:"b"`
	C            *decimal.Decimal `json:"c"`
	D            *decimal.Decimal `json:"d"`
	E            *decimal.Decimal `json:"e"`
}
