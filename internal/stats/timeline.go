package stats

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"fdstats/internal/export"
)

// Timeline holds the reconciled per-incident metrics. All duration values
// are whole seconds; a nil pointer or absent slice entry means the source
// data could not support that metric, which is distinct from zero.
type Timeline struct {
	IncidentID string
	Region     string
	Type       string

	Dispatched *time.Time

	// ReactionSeconds is dispatch to the first unit going en route.
	ReactionSeconds *int64
	// Per-unit timers. One incident contributes one value per responding
	// unit to each slice, not a single first-arriving-unit value.
	TravelSeconds  []int64
	ToSceneSeconds []int64
	OnSceneSeconds []int64
	// IncidentSeconds is dispatch to last unit cleared.
	IncidentSeconds *int64

	// Personnel lists every unique responder on the incident, sorted.
	// PersonnelSeconds maps a responder to one span; a crew member who
	// switched apparatus mid-incident still gets exactly one entry, and a
	// responder whose span could not be computed (no clear timestamp) stays
	// in Personnel with no entry here.
	Personnel        []string
	PersonnelSeconds map[string]int64

	// Apparatus lists unique non-POV units that responded.
	Apparatus []string

	Nighttime   bool
	Overlapping bool
	Standby     bool
}

// overlapState is the accumulator carried across the incident fold. The
// state machine has two concerns: the clock of the last closed non-standby
// incident, and which timeline set it (for retroactive pair flagging).
type overlapState struct {
	previousEnd *time.Time
	previousIdx int
}

// Reconcile derives a Timeline for every incident group, in first-dispatch
// order, and classifies overlap between consecutive incidents. A malformed
// incident degrades to a timing-less Timeline with a diagnostic; it never
// aborts the run.
func Reconcile(groups []IncidentGroup, rules Rules) []Timeline {
	timelines := make([]Timeline, 0, len(groups))
	state := overlapState{previousIdx: -1}

	for _, group := range groups {
		tl := reconcileGroup(group, rules)

		// Overlap detection. Standby assignments neither trigger a flag nor
		// advance the clock: a multi-hour coverage assignment would otherwise
		// mask every real overlap behind it.
		if !tl.Standby {
			if tl.Dispatched != nil && state.previousEnd != nil && tl.Dispatched.Before(*state.previousEnd) {
				tl.Overlapping = true
				// Overlap is pairwise: the first incident of a fresh pair was
				// not flagged when it was processed, so flag it now.
				if state.previousIdx >= 0 && !timelines[state.previousIdx].Overlapping {
					timelines[state.previousIdx].Overlapping = true
				}
			}
			if end := groupEnd(group); end != nil {
				state.previousEnd = end
				state.previousIdx = len(timelines)
			}
		}

		timelines = append(timelines, tl)
	}

	return timelines
}

func reconcileGroup(group IncidentGroup, rules Rules) Timeline {
	base := group.Base()
	minSecs := rules.MinInterval()

	tl := Timeline{
		IncidentID:       group.IncidentID,
		Region:           rules.Region(base.StationID),
		Type:             rules.TypeBucket(base.TypeCode),
		Standby:          rules.IsStandby(base.TypeCode),
		Dispatched:       base.Dispatched,
		PersonnelSeconds: make(map[string]int64),
	}

	if base.Dispatched == nil {
		log.Warn().
			Str("incident", group.IncidentID).
			Msg("Incident has no dispatch timestamp; excluded from timing aggregates")
	} else {
		hour := base.Dispatched.Hour()
		tl.Nighttime = hour >= 18 || hour <= 5
	}

	units := dedupeUnits(group.Records)

	// First-unit reaction time: the earliest valid en-route among deduped
	// rows. Rows whose delta sits under the floor are timestamp copy-paste
	// artifacts and do not qualify.
	var reactionAt *time.Time
	for _, u := range units {
		delta := interval(u.Dispatched, u.EnRoute, minSecs)
		if delta == nil {
			continue
		}
		if reactionAt == nil || u.EnRoute.Before(*reactionAt) {
			reactionAt = u.EnRoute
			tl.ReactionSeconds = delta
		}
	}

	// Per-unit timers, computed independently per row.
	for _, u := range units {
		if d := interval(u.EnRoute, u.Arrival, minSecs); d != nil {
			tl.TravelSeconds = append(tl.TravelSeconds, *d)
		}
		if d := interval(u.Dispatched, u.Arrival, minSecs); d != nil {
			tl.ToSceneSeconds = append(tl.ToSceneSeconds, *d)
		}
		if d := interval(u.Arrival, u.Clear, minSecs); d != nil {
			tl.OnSceneSeconds = append(tl.OnSceneSeconds, *d)
		}
	}

	tl.IncidentSeconds = interval(base.Dispatched, base.LastUnitCleared, minSecs)

	// Personnel spans run over the raw rows, not the deduped units: a second
	// crew member on a double-logged row must still be counted once.
	type span struct {
		first *time.Time
		last  *time.Time
	}
	spans := make(map[string]*span)
	for _, r := range group.Records {
		if r.PersonnelID == "" {
			continue
		}
		s, ok := spans[r.PersonnelID]
		if !ok {
			s = &span{}
			spans[r.PersonnelID] = s
		}
		if r.Dispatched != nil && (s.first == nil || r.Dispatched.Before(*s.first)) {
			s.first = r.Dispatched
		}
		if r.Clear != nil && (s.last == nil || r.Clear.After(*s.last)) {
			s.last = r.Clear
		}
	}
	tl.Personnel = make([]string, 0, len(spans))
	for id, s := range spans {
		tl.Personnel = append(tl.Personnel, id)
		if d := interval(s.first, s.last, minSecs); d != nil {
			tl.PersonnelSeconds[id] = *d
		}
	}
	slices.Sort(tl.Personnel)

	// Apparatus usage. The POV label marks personally-owned-vehicle response:
	// its crew counts above, the vehicle itself does not.
	seen := make(map[string]bool)
	for _, u := range units {
		if u.Apparatus == "" || u.Apparatus == rules.POVApparatus {
			continue
		}
		if !seen[u.Apparatus] {
			seen[u.Apparatus] = true
			tl.Apparatus = append(tl.Apparatus, u.Apparatus)
		}
	}

	return tl
}

// dedupeUnits collapses adjacent rows that describe the same physical
// dispatch. The export double-logs an assignment when a crew roster edit is
// saved twice; such rows differ only in the personnel column.
func dedupeUnits(records []export.UnitRecord) []export.UnitRecord {
	units := make([]export.UnitRecord, 0, len(records))
	for i, r := range records {
		if i > 0 && sameAssignment(records[i-1], r) {
			continue
		}
		units = append(units, r)
	}
	return units
}

func sameAssignment(a, b export.UnitRecord) bool {
	return a.Apparatus == b.Apparatus &&
		timeEqual(a.Alarm, b.Alarm) &&
		timeEqual(a.Dispatched, b.Dispatched) &&
		timeEqual(a.EnRoute, b.EnRoute) &&
		timeEqual(a.Arrival, b.Arrival) &&
		timeEqual(a.Clear, b.Clear) &&
		timeEqual(a.LastUnitCleared, b.LastUnitCleared)
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// interval computes whole seconds from `from` to `to`. It returns nil when
// either endpoint is missing, when the delta is non-positive (mis-ordered
// entry), or when the delta does not exceed the bad-data floor.
func interval(from, to *time.Time, minSecs int64) *int64 {
	if from == nil || to == nil {
		return nil
	}
	secs := int64(to.Sub(*from) / time.Second)
	if secs <= minSecs {
		return nil
	}
	return &secs
}

// groupEnd is the instant the incident administratively closed. The export
// repeats last-unit-cleared on every row; if the field is absent entirely,
// the latest unit clear stands in.
func groupEnd(group IncidentGroup) *time.Time {
	if end := group.Base().LastUnitCleared; end != nil {
		return end
	}
	var latest *time.Time
	for _, r := range group.Records {
		if r.Clear != nil && (latest == nil || r.Clear.After(*latest)) {
			latest = r.Clear
		}
	}
	return latest
}
