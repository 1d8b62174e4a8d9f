package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Column names as emitted by the legacy per-unit export.
const (
	colIncident        = "Incident Number"
	colStation         = "Station"
	colTypeCode        = "Incident Type Code"
	colPersonnel       = "User Login ID"
	colApparatus       = "Apparatus Name"
	colAlarm           = "Alarm Date"
	colDispatched      = "Dispatched Date"
	colEnRoute         = "En Route Date"
	colArrival         = "Arrival Date"
	colClear           = "Clear Date"
	colLastUnitCleared = "Last Unit Cleared Date"
)

// ParseCSV reads the legacy per-unit CSV export into dispatch-ordered
// UnitRecords. Parsing is strict: a malformed timestamp or a missing required
// column fails the whole run, because a silently mis-cast value would corrupt
// every downstream aggregate.
func ParseCSV(r io.Reader, loc *time.Location) ([]UnitRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// 1. Index columns by trimmed header name.
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colIncident, colDispatched} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("export is missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// 2. Parse rows, normalizing blank timestamp cells to nil.
	var records []UnitRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++

		rec := UnitRecord{
			IncidentID:  cell(row, colIncident),
			StationID:   cell(row, colStation),
			TypeCode:    cell(row, colTypeCode),
			PersonnelID: cell(row, colPersonnel),
			Apparatus:   cell(row, colApparatus),
		}
		if rec.IncidentID == "" {
			return nil, fmt.Errorf("row %d: blank incident number", line)
		}

		for _, ts := range []struct {
			col  string
			dest **time.Time
		}{
			{colAlarm, &rec.Alarm},
			{colDispatched, &rec.Dispatched},
			{colEnRoute, &rec.EnRoute},
			{colArrival, &rec.Arrival},
			{colClear, &rec.Clear},
			{colLastUnitCleared, &rec.LastUnitCleared},
		} {
			t, err := ParseTimestamp(cell(row, ts.col), loc)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", line, ts.col, err)
			}
			*ts.dest = t
		}

		records = append(records, rec)
	}

	SortByDispatch(records)
	log.Debug().Int("rows", len(records)).Msg("Parsed CSV export")
	return records, nil
}
