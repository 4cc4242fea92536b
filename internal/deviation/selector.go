package deviation

import (
	"sort"
	"strconv"
	"time"
)

// SelectionKey is the composite key of a quarterly selection: one vessel in
// one quarter.
type SelectionKey struct {
	VesselID string
	Quarter  QuarterKey
}

// QuarterlySelection holds at most one representative emission record per
// (vessel, quarter).
type QuarterlySelection struct {
	records  map[SelectionKey]EmissionRecord
	quarters map[string][]QuarterKey

	unmapped int
	rejected int
}

func newQuarterlySelection() *QuarterlySelection {
	return &QuarterlySelection{
		records:  make(map[SelectionKey]EmissionRecord),
		quarters: make(map[string][]QuarterKey),
	}
}

// offer inserts rec under key unless the slot already holds a record at least
// as close to the quarter end. Exact ties keep the existing record, so the
// first record in input order wins.
func (s *QuarterlySelection) offer(key SelectionKey, rec EmissionRecord, end time.Time) {
	existing, ok := s.records[key]
	if !ok {
		s.records[key] = rec
		s.quarters[key.VesselID] = append(s.quarters[key.VesselID], key.Quarter)
		return
	}
	if distance(end, rec.TOUTC) < distance(end, existing.TOUTC) {
		s.records[key] = rec
	}
}

// Get returns the record selected for a vessel in a quarter.
func (s *QuarterlySelection) Get(vesselID string, q QuarterKey) (EmissionRecord, bool) {
	rec, ok := s.records[SelectionKey{VesselID: vesselID, Quarter: q}]
	return rec, ok
}

// Quarters returns the quarters with a selected record for the vessel,
// ascending by (year, quarter).
func (s *QuarterlySelection) Quarters(vesselID string) []QuarterKey {
	qs := append([]QuarterKey(nil), s.quarters[vesselID]...)
	sort.Slice(qs, func(i, j int) bool { return qs[i].Less(qs[j]) })
	return qs
}

// Len returns the number of selected (vessel, quarter) records.
func (s *QuarterlySelection) Len() int {
	return len(s.records)
}

// Unmapped returns the number of emission records dropped because their
// VesselID matched no vessel.
func (s *QuarterlySelection) Unmapped() int {
	return s.unmapped
}

// Rejected returns the number of emission records dropped because they carry
// no reporting instant.
func (s *QuarterlySelection) Rejected() int {
	return s.rejected
}

// SelectQuarterly groups emissions by vessel and calendar quarter and keeps,
// for each group, the record whose TOUTC is closest to the quarter end.
//
// Vessels are joined on IMONo. If two vessels share a registry number the
// later one in the input wins. Emission records for unknown vessels are
// dropped silently and counted. Records with a zero TOUTC are rejected.
func SelectQuarterly(vessels []Vessel, emissions []EmissionRecord) *QuarterlySelection {
	byIMO := make(map[int64]Vessel, len(vessels))
	for _, v := range vessels {
		byIMO[v.IMONo] = v
	}

	sel := newQuarterlySelection()
	for _, rec := range emissions {
		vessel, ok := byIMO[rec.VesselID]
		if !ok {
			sel.unmapped++
			continue
		}
		if rec.TOUTC.IsZero() {
			sel.rejected++
			continue
		}

		q := QuarterOf(rec.TOUTC)
		key := SelectionKey{VesselID: vesselKey(vessel), Quarter: q}
		sel.offer(key, rec, q.End(rec.TOUTC.Location()))
	}
	return sel
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// vesselKey returns the identity used for grouping. Vessels without a
// storage ID fall back to their registry number.
func vesselKey(v Vessel) string {
	if v.ID != "" {
		return v.ID
	}
	return strconv.FormatInt(v.IMONo, 10)
}
