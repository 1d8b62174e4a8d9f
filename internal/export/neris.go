package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
)

// nerisFeed mirrors the modern records API's incident graph. Only the fields
// the pipeline consumes are mapped.
type nerisFeed struct {
	Incidents []nerisIncident `json:"incidents"`
}

type nerisIncident struct {
	ID              string      `json:"id"`
	Station         string      `json:"station"`
	TypeCode        string      `json:"type_code"`
	CallCreate      string      `json:"call_create"`
	LastUnitCleared string      `json:"last_unit_cleared"`
	Units           []nerisUnit `json:"units"`
}

type nerisUnit struct {
	Name         string           `json:"name"`
	DispatchedAt string           `json:"dispatched_at"`
	EnRouteAt    string           `json:"enroute_at"`
	ArrivedAt    string           `json:"arrived_at"`
	ClearedAt    string           `json:"cleared_at"`
	Personnel    []nerisPersonnel `json:"personnel"`
}

type nerisPersonnel struct {
	ID string `json:"id"`
}

// ParseNERIS flattens a NERIS-style JSON incident graph into one UnitRecord
// per unit and crew member, matching the shape of the legacy export. A unit
// with no personnel list still yields one record so its timings are not lost.
func ParseNERIS(r io.Reader, loc *time.Location) ([]UnitRecord, error) {
	var feed nerisFeed
	dec := json.NewDecoder(r)
	if err := dec.Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode incident graph: %w", err)
	}

	var records []UnitRecord
	for _, inc := range feed.Incidents {
		if inc.ID == "" {
			return nil, fmt.Errorf("incident with blank id in feed")
		}

		alarm, err := ParseTimestamp(inc.CallCreate, loc)
		if err != nil {
			return nil, fmt.Errorf("incident %s call_create: %w", inc.ID, err)
		}
		lastCleared, err := ParseTimestamp(inc.LastUnitCleared, loc)
		if err != nil {
			return nil, fmt.Errorf("incident %s last_unit_cleared: %w", inc.ID, err)
		}

		for _, unit := range inc.Units {
			base := UnitRecord{
				IncidentID:      inc.ID,
				StationID:       inc.Station,
				TypeCode:        inc.TypeCode,
				Apparatus:       unit.Name,
				Alarm:           alarm,
				LastUnitCleared: lastCleared,
			}
			for _, field := range []struct {
				raw  string
				name string
				dest **time.Time
			}{
				{unit.DispatchedAt, "dispatched_at", &base.Dispatched},
				{unit.EnRouteAt, "enroute_at", &base.EnRoute},
				{unit.ArrivedAt, "arrived_at", &base.Arrival},
				{unit.ClearedAt, "cleared_at", &base.Clear},
			} {
				t, err := ParseTimestamp(field.raw, loc)
				if err != nil {
					return nil, fmt.Errorf("incident %s unit %s %s: %w", inc.ID, unit.Name, field.name, err)
				}
				*field.dest = t
			}

			if len(unit.Personnel) == 0 {
				records = append(records, base)
				continue
			}
			for _, p := range unit.Personnel {
				rec := base
				rec.PersonnelID = p.ID
				records = append(records, rec)
			}
		}
	}

	SortByDispatch(records)
	log.Debug().Int("incidents", len(feed.Incidents)).Int("rows", len(records)).Msg("Parsed NERIS feed")
	return records, nil
}
