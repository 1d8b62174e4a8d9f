package export

import (
	"strings"
	"testing"
	"time"
)

const csvHeader = "Incident Number,Station,Incident Type Code,User Login ID,Apparatus Name,Alarm Date,Dispatched Date,En Route Date,Arrival Date,Clear Date,Last Unit Cleared Date\n"

func TestParseCSV(t *testing.T) {
	input := csvHeader +
		"2025-0001,31,311,jdoe,E31,2025-06-01 09:59:00,2025-06-01 10:00:00,2025-06-01 10:02:00,2025-06-01 10:05:00,2025-06-01 10:45:00,2025-06-01 10:45:00\n" +
		"2025-0002,32,111,asmith,E32,,2025-06-01 08:00:00,,,,\n"

	records, err := ParseCSV(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("ParseCSV() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Sorted by dispatch: 2025-0002 (08:00) before 2025-0001 (10:00).
	if records[0].IncidentID != "2025-0002" {
		t.Errorf("first record = %s, want dispatch-ordered 2025-0002", records[0].IncidentID)
	}

	first := records[1]
	if first.StationID != "31" || first.TypeCode != "311" || first.PersonnelID != "jdoe" || first.Apparatus != "E31" {
		t.Errorf("unexpected field mapping: %+v", first)
	}
	if first.Dispatched == nil || first.Dispatched.Format("15:04:05") != "10:00:00" {
		t.Errorf("Dispatched = %v", first.Dispatched)
	}

	// Blank timestamp cells normalize to nil, never a sentinel.
	second := records[0]
	if second.Alarm != nil || second.EnRoute != nil || second.Arrival != nil || second.Clear != nil || second.LastUnitCleared != nil {
		t.Errorf("blank timestamps should be nil: %+v", second)
	}
}

func TestParseCSVMalformedDateIsFatal(t *testing.T) {
	input := csvHeader +
		"2025-0001,31,311,jdoe,E31,,not-a-date,,,,\n"

	if _, err := ParseCSV(strings.NewReader(input), time.UTC); err == nil {
		t.Fatal("ParseCSV() accepted a malformed date; a strict cast failure must abort the run")
	}
}

func TestParseCSVMissingRequiredColumn(t *testing.T) {
	input := "Station,Incident Type Code\n31,311\n"

	if _, err := ParseCSV(strings.NewReader(input), time.UTC); err == nil {
		t.Fatal("ParseCSV() accepted an export without the incident number column")
	}
}

func TestParseCSVBlankIncidentNumber(t *testing.T) {
	input := csvHeader + ",31,311,jdoe,E31,,2025-06-01 10:00:00,,,,\n"

	if _, err := ParseCSV(strings.NewReader(input), time.UTC); err == nil {
		t.Fatal("ParseCSV() accepted a row with a blank incident number")
	}
}

func TestParseTimestampLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	got, err := ParseTimestamp("2025-06-01 10:00:00", loc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location() != loc {
		t.Errorf("timestamp location = %v, want %v (civil time, no conversion)", got.Location(), loc)
	}
	if got.Hour() != 10 {
		t.Errorf("hour = %d, want 10 as written", got.Hour())
	}
}

func TestSortByDispatchNilLast(t *testing.T) {
	d := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []UnitRecord{
		{IncidentID: "undated-1"},
		{IncidentID: "dated", Dispatched: &d},
		{IncidentID: "undated-2"},
	}

	SortByDispatch(records)

	if records[0].IncidentID != "dated" {
		t.Errorf("first = %s, want dated record", records[0].IncidentID)
	}
	// Stable: undated records keep their relative order.
	if records[1].IncidentID != "undated-1" || records[2].IncidentID != "undated-2" {
		t.Errorf("undated order not preserved: %s, %s", records[1].IncidentID, records[2].IncidentID)
	}
}
