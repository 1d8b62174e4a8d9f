package stats

import (
	"errors"
	"strings"
)

// Incident type buckets. Every stats document carries all five, zero-filled
// when a run's data contains none of a given type.
const (
	TypeMedicalRescue = "medical_rescue"
	TypeFire          = "fire"
	TypeDowngraded    = "downgraded"
	TypeCancelled     = "cancelled"
	TypeOther         = "other"
)

// KnownTypes lists every bucket in document order.
var KnownTypes = []string{TypeMedicalRescue, TypeFire, TypeDowngraded, TypeCancelled, TypeOther}

// Rule validation errors.
var (
	ErrNoRegions          = errors.New("at least one region group is required")
	ErrRegionMissingName  = errors.New("region group is missing a name")
	ErrNoTypeRules        = errors.New("at least one type rule is required")
	ErrUnknownTypeBucket  = errors.New("type rule targets an unknown bucket")
	ErrTypeRuleNoPrefixes = errors.New("type rule has no prefixes")
	ErrBadMinInterval     = errors.New("thresholds.min_interval_seconds must be non-negative")
)

// RegionGroup assigns a set of station ids to a named region.
type RegionGroup struct {
	Name     string   `yaml:"name"`
	Stations []string `yaml:"stations"`
}

// TypeRule maps type-code prefixes to a bucket. Rules are evaluated in file
// order and the first match wins, so narrow prefixes (cancelled) must be
// listed before the broader ranges (downgraded) that contain them.
type TypeRule struct {
	Bucket   string   `yaml:"bucket"`
	Prefixes []string `yaml:"prefixes"`
}

// Thresholds holds tunable data-quality constants.
type Thresholds struct {
	// MinIntervalSeconds is the floor under which a computed timer is treated
	// as a copy-pasted timestamp rather than a real elapsed interval. The
	// deployed value has always been 2; it is tunable, not a domain truth.
	MinIntervalSeconds int `yaml:"min_interval_seconds"`
}

// Rules is the deployment-specific classification configuration. Station
// groupings and code prefixes vary per organization and are never hardcoded
// in the pipeline.
type Rules struct {
	Regions       []RegionGroup `yaml:"regions"`
	DefaultRegion string        `yaml:"default_region"`
	Types         []TypeRule    `yaml:"types"`
	// StandbyPrefixes designate backfill/coverage assignments, which never
	// participate in overlap accounting.
	StandbyPrefixes []string   `yaml:"standby_prefixes"`
	POVApparatus    string     `yaml:"pov_apparatus"`
	Thresholds      Thresholds `yaml:"thresholds"`
}

// DefaultRules returns the reference deployment's rule set.
func DefaultRules() Rules {
	return Rules{
		Regions: []RegionGroup{
			{Name: "south", Stations: []string{"31", "34"}},
			{Name: "central", Stations: []string{"32"}},
			{Name: "north", Stations: []string{"33", "35"}},
		},
		DefaultRegion: "other",
		Types: []TypeRule{
			{Bucket: TypeMedicalRescue, Prefixes: []string{"3"}},
			{Bucket: TypeFire, Prefixes: []string{"1", "2", "4"}},
			// Cancelled codes live inside the downgrade range, so this rule
			// must stay ahead of the downgraded rule.
			{Bucket: TypeCancelled, Prefixes: []string{"61"}},
			{Bucket: TypeDowngraded, Prefixes: []string{"6", "7"}},
		},
		StandbyPrefixes: []string{"57"},
		POVApparatus:    "POV",
		Thresholds:      Thresholds{MinIntervalSeconds: 2},
	}
}

// Validate checks structural soundness of a loaded rule set.
func (r Rules) Validate() error {
	if len(r.Regions) == 0 {
		return ErrNoRegions
	}
	for _, g := range r.Regions {
		if g.Name == "" {
			return ErrRegionMissingName
		}
	}
	if len(r.Types) == 0 {
		return ErrNoTypeRules
	}
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}
	for _, rule := range r.Types {
		if !known[rule.Bucket] {
			return ErrUnknownTypeBucket
		}
		if len(rule.Prefixes) == 0 {
			return ErrTypeRuleNoPrefixes
		}
	}
	if r.Thresholds.MinIntervalSeconds < 0 {
		return ErrBadMinInterval
	}
	return nil
}

// Region resolves a station id to its region, first match wins. Unmatched
// stations fall into the configured default, or "other" when unset.
func (r Rules) Region(stationID string) string {
	for _, group := range r.Regions {
		for _, s := range group.Stations {
			if s == stationID {
				return group.Name
			}
		}
	}
	if r.DefaultRegion != "" {
		return r.DefaultRegion
	}
	return "other"
}

// TypeBucket classifies a raw incident type code by ordered prefix match.
func (r Rules) TypeBucket(code string) string {
	code = strings.TrimSpace(code)
	for _, rule := range r.Types {
		for _, prefix := range rule.Prefixes {
			if strings.HasPrefix(code, prefix) {
				return rule.Bucket
			}
		}
	}
	return TypeOther
}

// IsStandby reports whether a type code designates a backfill/coverage
// assignment.
func (r Rules) IsStandby(code string) bool {
	code = strings.TrimSpace(code)
	for _, prefix := range r.StandbyPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// MinInterval returns the bad-data floor in seconds.
func (r Rules) MinInterval() int64 {
	return int64(r.Thresholds.MinIntervalSeconds)
}
