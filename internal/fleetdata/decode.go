package fleetdata

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/rshade/fleet-deviation/internal/deviation"
)

// DWTFallback assigns a DWT to vessels that have none: Base + index·Step,
// where index is the vessel's position in the collection.
type DWTFallback struct {
	Base decimal.Decimal
	Step decimal.Decimal
}

// DefaultDWTFallback returns the fallback used by the fleet dashboard
// (155000 DWT plus 1000 per vessel position).
func DefaultDWTFallback() DWTFallback {
	return DWTFallback{
		Base: decimal.NewFromInt(155000),
		Step: decimal.NewFromInt(1000),
	}
}

// DecodeOptions controls decoding of the raw collections.
type DecodeOptions struct {
	// DWTFallback, when set, fills in a missing vessel DWT. Without it a
	// vessel without DWT decodes with a zero DWT and the engine reports it.
	DWTFallback *DWTFallback
}

// Decode parses the three raw JSON collections into a Dataset.
// Missing or unparseable timestamps, registry numbers and coefficients are
// rejected with deviation.ErrMalformedInput. Size and Traj are trimmed.
func Decode(vesselsJSON, emissionsJSON, ppReferenceJSON []byte, opts DecodeOptions) (*Dataset, error) {
	vessels, defaulted, err := DecodeVessels(vesselsJSON, opts)
	if err != nil {
		return nil, err
	}
	emissions, err := DecodeEmissions(emissionsJSON)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeCurveRows(ppReferenceJSON)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Vessels:      vessels,
		Emissions:    emissions,
		CurveRows:    rows,
		DefaultedDWT: defaulted,
	}, nil
}

// DecodeVessels parses a vessel collection. It also returns how many
// vessels received a DWT from opts.DWTFallback.
func DecodeVessels(data []byte, opts DecodeOptions) ([]deviation.Vessel, int, error) {
	items, err := splitArray("vessels", data)
	if err != nil {
		return nil, 0, err
	}

	defaulted := 0
	vessels := make([]deviation.Vessel, 0, len(items))
	for i, item := range items {
		var rec vesselRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, 0, malformed("vessels", i, err)
		}
		if rec.IMONo == nil {
			return nil, 0, malformed("vessels", i, fmt.Errorf("missing IMONo"))
		}

		v := deviation.Vessel{
			ID:         rec.ID,
			Name:       rec.Name,
			IMONo:      *rec.IMONo,
			VesselType: rec.VesselType,
		}
		switch {
		case rec.DWT != nil:
			v.DWT = *rec.DWT
		case opts.DWTFallback != nil:
			v.DWT = opts.DWTFallback.Base.Add(opts.DWTFallback.Step.Mul(decimal.NewFromInt(int64(i))))
			defaulted++
		}
		vessels = append(vessels, v)
	}
	return vessels, defaulted, nil
}

// DecodeEmissions parses an emission collection.
func DecodeEmissions(data []byte) ([]deviation.EmissionRecord, error) {
	items, err := splitArray("emissions", data)
	if err != nil {
		return nil, err
	}

	emissions := make([]deviation.EmissionRecord, 0, len(items))
	for i, item := range items {
		var rec emissionRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, malformed("emissions", i, err)
		}
		switch {
		case rec.VesselID == nil:
			return nil, malformed("emissions", i, fmt.Errorf("missing VesselID"))
		case rec.TOUTC == nil || rec.TOUTC.IsZero():
			return nil, malformed("emissions", i, fmt.Errorf("missing TOUTC"))
		case rec.EEOICO2eW2W == nil:
			return nil, malformed("emissions", i, fmt.Errorf("missing EEOICO2eW2W"))
		}

		e := deviation.EmissionRecord{
			VesselID:    *rec.VesselID,
			TOUTC:       *rec.TOUTC,
			EEOICO2eW2W: *rec.EEOICO2eW2W,
			Ref:         rawString(rec.EID),
		}
		if rec.FromUTC != nil {
			e.FromUTC = *rec.FromUTC
		}
		if e.Ref == "" {
			e.Ref = rawString(rec.LOGID)
		}
		emissions = append(emissions, e)
	}
	return emissions, nil
}

// DecodeCurveRows parses a Poseidon Principles reference collection.
func DecodeCurveRows(data []byte) ([]deviation.CurveRow, error) {
	items, err := splitArray("pp-references", data)
	if err != nil {
		return nil, err
	}

	rows := make([]deviation.CurveRow, 0, len(items))
	for i, item := range items {
		var rec ppReferenceRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, malformed("pp-references", i, err)
		}

		coefficients := map[string]*decimal.Decimal{"a": rec.A, "b": rec.B, "c": rec.C, "d": rec.D, "e": rec.E}
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			if coefficients[name] == nil {
				return nil, malformed("pp-references", i, fmt.Errorf("missing coefficient %s", name))
			}
		}

		rows = append(rows, deviation.CurveRow{
			RowID:        rawString(rec.RowID),
			Category:     strings.TrimSpace(rec.Category),
			VesselTypeID: rec.VesselTypeID,
			Size:         strings.TrimSpace(rec.Size),
			Traj:         strings.TrimSpace(rec.Traj),
			A:            *rec.A,
			B:            *rec.B,
			C:            *rec.C,
			D:            *rec.D,
			E:            *rec.E,
		})
	}
	return rows, nil
}

func splitArray(collection string, data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", collection, deviation.ErrMalformedInput, err)
	}
	return items, nil
}

func malformed(collection string, index int, err error) error {
	return fmt.Errorf("%s[%d]: %w: %w", collection, index, deviation.ErrMalformedInput, err)
}

// rawString renders a JSON scalar that may be a string or a number.
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
