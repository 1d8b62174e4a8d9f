package stats

import (
	"fdstats/internal/export"
)

// IncidentGroup bundles every unit row belonging to one incident. Records
// keep their dispatch ordering from the normalized stream.
type IncidentGroup struct {
	IncidentID string
	Records    []export.UnitRecord
}

// Base returns the record whose incident-level fields (station, type code,
// last-unit-cleared) represent the group.
func (g IncidentGroup) Base() export.UnitRecord {
	return g.Records[0]
}

// GroupByIncident partitions dispatch-ordered records into incident groups,
// ordered by the first appearance of each incident id in the stream. Incident
// ids come from a human data-entry process and do not increase monotonically
// with real dispatch time, so lexicographic id order would break the
// aggregator's overlap and day-bucket logic.
func GroupByIncident(records []export.UnitRecord) []IncidentGroup {
	byID := make(map[string]int, len(records))
	var groups []IncidentGroup

	for _, rec := range records {
		if idx, ok := byID[rec.IncidentID]; ok {
			groups[idx].Records = append(groups[idx].Records, rec)
			continue
		}
		byID[rec.IncidentID] = len(groups)
		groups = append(groups, IncidentGroup{
			IncidentID: rec.IncidentID,
			Records:    []export.UnitRecord{rec},
		})
	}

	return groups
}
