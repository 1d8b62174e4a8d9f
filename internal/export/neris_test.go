package export

import (
	"strings"
	"testing"
	"time"
)

func TestParseNERIS(t *testing.T) {
	input := `{
		"incidents": [
			{
				"id": "F25-0042",
				"station": "32",
				"type_code": "111",
				"call_create": "2025-06-01T09:58:30",
				"last_unit_cleared": "2025-06-01T11:00:00",
				"units": [
					{
						"name": "E32",
						"dispatched_at": "2025-06-01T10:00:00",
						"enroute_at": "2025-06-01T10:02:00",
						"arrived_at": "2025-06-01T10:06:00",
						"cleared_at": "2025-06-01T11:00:00",
						"personnel": [{"id": "jdoe"}, {"id": "asmith"}]
					},
					{
						"name": "B3",
						"dispatched_at": "2025-06-01T10:01:00",
						"personnel": []
					}
				]
			}
		]
	}`

	records, err := ParseNERIS(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("ParseNERIS() error: %v", err)
	}

	// One row per unit and crew member, plus one for the crewless unit.
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.IncidentID != "F25-0042" || first.StationID != "32" || first.TypeCode != "111" {
		t.Errorf("incident-level fields not carried onto unit rows: %+v", first)
	}
	if first.Apparatus != "E32" || first.PersonnelID != "jdoe" {
		t.Errorf("unit/personnel mapping wrong: %s / %s", first.Apparatus, first.PersonnelID)
	}
	if first.Alarm == nil || first.Alarm.Minute() != 58 {
		t.Errorf("call_create not mapped to Alarm: %v", first.Alarm)
	}
	if first.LastUnitCleared == nil || first.LastUnitCleared.Hour() != 11 {
		t.Errorf("last_unit_cleared = %v", first.LastUnitCleared)
	}

	crewless := records[2]
	if crewless.Apparatus != "B3" || crewless.PersonnelID != "" {
		t.Errorf("crewless unit should still yield a record: %+v", crewless)
	}
	if crewless.EnRoute != nil || crewless.Arrival != nil || crewless.Clear != nil {
		t.Errorf("absent unit timestamps should be nil: %+v", crewless)
	}
}

func TestParseNERISMalformedTimestampIsFatal(t *testing.T) {
	input := `{"incidents": [{"id": "F25-0001", "units": [{"name": "E31", "dispatched_at": "yesterday-ish"}]}]}`

	if _, err := ParseNERIS(strings.NewReader(input), time.UTC); err == nil {
		t.Fatal("ParseNERIS() accepted a malformed timestamp")
	}
}

func TestParseNERISBlankIncidentID(t *testing.T) {
	input := `{"incidents": [{"id": "", "units": []}]}`

	if _, err := ParseNERIS(strings.NewReader(input), time.UTC); err == nil {
		t.Fatal("ParseNERIS() accepted an incident with a blank id")
	}
}
