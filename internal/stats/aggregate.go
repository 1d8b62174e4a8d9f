package stats

import (
	"time"
)

const (
	// DefaultWindowDays is the trailing day-window the document reports on.
	DefaultWindowDays = 30

	dateLayout = "2006-01-02"
)

// Options carries the explicit run parameters. Time never comes from global
// state: Now feeds only the document's updated_at field, so two runs over
// the same input with the same Now are byte-identical.
type Options struct {
	WindowDays int
	Now        time.Time
}

// IncidentStats counts incidents by several cuts of the trailing window.
type IncidentStats struct {
	NumTotal       int            `json:"num_total"`
	NumInWindow    int            `json:"num_in_window"`
	NumDaytime     int            `json:"num_daytime"`
	NumNighttime   int            `json:"num_nighttime"`
	NumOverlapping int            `json:"num_overlapping"`
	PerDay         Summary        `json:"per_day"`
	Types          map[string]int `json:"types"`
}

// UnitTimeStats summarizes the flattened per-unit timers of all in-window
// incidents.
type UnitTimeStats struct {
	Reaction Summary `json:"reaction"`
	Travel   Summary `json:"travel"`
	ToScene  Summary `json:"to_scene"`
	OnScene  Summary `json:"on_scene"`
}

// PersonnelStats summarizes responder participation.
type PersonnelStats struct {
	TimeOnIncident      Summary `json:"time_on_incident"`
	PerIncident         Summary `json:"per_incident"`
	NumUniqueResponders int     `json:"num_unique_responders"`
}

// ApparatusStats summarizes vehicle usage, POV response excluded.
type ApparatusStats struct {
	PerIncident   Summary `json:"per_incident"`
	NumUniqueUsed int     `json:"num_unique_used"`
}

// RegionStats scopes type counts and travel times to one region's incidents.
type RegionStats struct {
	NumIncidents int            `json:"num_incidents"`
	Types        map[string]int `json:"types"`
	TravelTime   Summary        `json:"travel_time"`
}

// Document is the final aggregate. Top-level keys and nested shapes are
// fixed: the site-generation layer renders them directly.
type Document struct {
	IncidentStats  IncidentStats          `json:"incident_stats"`
	UnitTimeStats  UnitTimeStats          `json:"unit_time_stats"`
	PersonnelStats PersonnelStats         `json:"personnel_stats"`
	ApparatusStats ApparatusStats         `json:"apparatus_stats"`
	RegionStats    map[string]RegionStats `json:"region_stats"`
	DateRangeFrom  string                 `json:"date_range_from"`
	DateRangeTo    string                 `json:"date_range_to"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Aggregate reduces reconciled timelines into the stats document. The window
// reaches back WindowDays from the most recent incident's dispatch date,
// exclusive on the lower bound and inclusive on the upper. Empty input
// yields a well-formed all-zero document.
func Aggregate(timelines []Timeline, opts Options) Document {
	windowDays := opts.WindowDays
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	doc := Document{
		IncidentStats: IncidentStats{NumTotal: len(timelines), Types: zeroTypes()},
		RegionStats:   make(map[string]RegionStats),
		UpdatedAt:     opts.Now,
	}

	latest := latestDispatchDay(timelines)
	if latest == nil {
		return doc
	}

	windowStart := AddDays(*latest, -windowDays) // exclusive lower bound
	doc.DateRangeFrom = AddDays(windowStart, 1).Format(dateLayout)
	doc.DateRangeTo = latest.Format(dateLayout)

	// 1. Single pass over in-window incidents, collecting every bucket.
	var (
		reaction, travel, toScene, onScene []int64
		personnelTimes                     []int64
		personnelPerIncident               []int64
		apparatusPerIncident               []int64
		uniqueResponders                   = make(map[string]bool)
		uniqueApparatus                    = make(map[string]bool)
		perDayCounts                       = make(map[string]int)
		regionTravel                       = make(map[string][]int64)
	)

	for _, tl := range timelines {
		if tl.Dispatched == nil {
			continue
		}
		day := DayOf(*tl.Dispatched)
		if !day.After(windowStart) || day.After(*latest) {
			continue
		}

		doc.IncidentStats.NumInWindow++
		doc.IncidentStats.Types[tl.Type]++
		if tl.Nighttime {
			doc.IncidentStats.NumNighttime++
		} else {
			doc.IncidentStats.NumDaytime++
		}
		if tl.Overlapping {
			doc.IncidentStats.NumOverlapping++
		}
		perDayCounts[day.Format(dateLayout)]++

		if tl.ReactionSeconds != nil {
			reaction = append(reaction, *tl.ReactionSeconds)
		}
		travel = append(travel, tl.TravelSeconds...)
		toScene = append(toScene, tl.ToSceneSeconds...)
		onScene = append(onScene, tl.OnSceneSeconds...)

		// Unique responders come from the full roster, not the timed spans:
		// a crew member with no computable span still responded.
		for _, id := range tl.Personnel {
			uniqueResponders[id] = true
		}
		for _, secs := range tl.PersonnelSeconds {
			personnelTimes = append(personnelTimes, secs)
		}
		personnelPerIncident = append(personnelPerIncident, int64(len(tl.Personnel)))

		apparatusPerIncident = append(apparatusPerIncident, int64(len(tl.Apparatus)))
		for _, name := range tl.Apparatus {
			uniqueApparatus[name] = true
		}

		region := doc.RegionStats[tl.Region]
		if region.Types == nil {
			region.Types = zeroTypes()
		}
		region.NumIncidents++
		region.Types[tl.Type]++
		doc.RegionStats[tl.Region] = region
		regionTravel[tl.Region] = append(regionTravel[tl.Region], tl.TravelSeconds...)
	}

	// 2. Per-day distribution over the full window span: a day with no
	// incidents contributes 0, so the mean reflects the whole window.
	var perDay []int64
	for day := AddDays(windowStart, 1); !day.After(*latest); day = AddDays(day, 1) {
		perDay = append(perDay, int64(perDayCounts[day.Format(dateLayout)]))
	}
	doc.IncidentStats.PerDay = Summarize(perDay)

	// 3. Final reductions.
	doc.UnitTimeStats = UnitTimeStats{
		Reaction: Summarize(reaction),
		Travel:   Summarize(travel),
		ToScene:  Summarize(toScene),
		OnScene:  Summarize(onScene),
	}
	doc.PersonnelStats = PersonnelStats{
		TimeOnIncident:      Summarize(personnelTimes),
		PerIncident:         Summarize(personnelPerIncident),
		NumUniqueResponders: len(uniqueResponders),
	}
	doc.ApparatusStats = ApparatusStats{
		PerIncident:   Summarize(apparatusPerIncident),
		NumUniqueUsed: len(uniqueApparatus),
	}
	for name, values := range regionTravel {
		region := doc.RegionStats[name]
		region.TravelTime = Summarize(values)
		doc.RegionStats[name] = region
	}

	return doc
}

func zeroTypes() map[string]int {
	types := make(map[string]int, len(KnownTypes))
	for _, t := range KnownTypes {
		types[t] = 0
	}
	return types
}

func latestDispatchDay(timelines []Timeline) *time.Time {
	var latest *time.Time
	for _, tl := range timelines {
		if tl.Dispatched == nil {
			continue
		}
		day := DayOf(*tl.Dispatched)
		if latest == nil || day.After(*latest) {
			latest = &day
		}
	}
	return latest
}

// DayOf truncates an instant to midnight of its calendar date, keeping the
// instant's own location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays is pure calendar arithmetic; it never touches process-global time
// state.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
