package stats

import (
	"testing"
	"time"

	"fdstats/internal/export"
)

// at parses "2006-01-02 15:04:05" in UTC and returns a pointer, matching the
// nullable timestamp shape of UnitRecord.
func at(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return &parsed
}

// unitRow builds a record with the common incident-level fields filled in.
func unitRow(t *testing.T, incident, apparatus, personnel string, dispatched, enRoute, arrival, clear string) export.UnitRecord {
	t.Helper()
	rec := export.UnitRecord{
		IncidentID:  incident,
		StationID:   "31",
		TypeCode:    "311",
		PersonnelID: personnel,
		Apparatus:   apparatus,
	}
	if dispatched != "" {
		rec.Dispatched = at(t, dispatched)
	}
	if enRoute != "" {
		rec.EnRoute = at(t, enRoute)
	}
	if arrival != "" {
		rec.Arrival = at(t, arrival)
	}
	if clear != "" {
		rec.Clear = at(t, clear)
	}
	return rec
}
