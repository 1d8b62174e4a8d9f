// Package export parses raw incident exports from the district's record
// system into the normalized shape the stats pipeline consumes. Two input
// formats are supported: the legacy per-unit CSV export and the NERIS-style
// JSON incident graph. Both adapters produce the same UnitRecord slice,
// sorted by dispatch time, so format differences never reach business logic.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UnitRecord is one row per responding unit per incident. Timestamp fields
// are nil when the source left them blank ("not reached" or "not recorded");
// they are never zero-value placeholders.
type UnitRecord struct {
	IncidentID  string
	StationID   string
	TypeCode    string
	PersonnelID string
	Apparatus   string

	Alarm           *time.Time
	Dispatched      *time.Time
	EnRoute         *time.Time
	Arrival         *time.Time
	Clear           *time.Time
	LastUnitCleared *time.Time
}

// timestampLayouts are tried in order. The export's civil local time carries
// no offset, so layouts without zone information parse in the caller's
// location; RFC3339 is accepted for API-sourced data.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTimestamp converts a raw timestamp cell into a *time.Time. Blank cells
// normalize to nil; a non-blank cell that matches no known layout is an
// error, never a silent zero.
func ParseTimestamp(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable timestamp %q", raw)
}

// SortByDispatch orders records ascending by dispatch time, which reflects
// the true paging order. The source's incident numbering does not. Records
// with no dispatch timestamp sort last; the sort is stable so their source
// order is preserved.
func SortByDispatch(records []UnitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Dispatched, records[j].Dispatched
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
}
