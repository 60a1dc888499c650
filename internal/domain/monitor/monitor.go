// Package monitor defines the Monitor configuration entity: a target URL
// bound to an ordered pipeline of stage specs, plus its scheduling cadence.
package monitor

import (
	"sort"
	"time"
)

// StageSpec is an open-ended key/value map describing one pipeline stage.
// The required "type" key names a registered stage constructor; every
// other key is a stage-specific option, validated lazily by that
// constructor (design note §9, option (b)).
type StageSpec map[string]any

// Type returns the spec's required `type` field, or "" if missing/not a
// string.
func (s StageSpec) Type() string {
	v, _ := s["type"].(string)
	return v
}

// Monitor is the durable unit of configuration: a target URL and the
// pipeline evaluated against it on a schedule.
type Monitor struct {
	ID         string
	Name       string
	URL        string
	Pipeline   []StageSpec
	Interval   int // seconds; effective only when Schedule == ""
	Schedule   string
	Enabled    bool
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastCheck  *time.Time
	LastStatus string
}

// UsesCron reports whether the cron Schedule wins over the interval,
// per §3: "schedule wins if non-null".
func (m Monitor) UsesCron() bool {
	return m.Schedule != ""
}

// NormalizeTags deduplicates tags; insertion order is not significant per
// §3, so the result is sorted for determinism.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTag reports whether the monitor carries the given tag.
func (m Monitor) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Patch carries caller-settable field updates for UpdateMonitor; a nil
// pointer/slice means "leave unchanged".
type Patch struct {
	Name     *string
	URL      *string
	Pipeline []StageSpec
	Interval *int
	Schedule *string
	Enabled  *bool
	Tags     []string
}

// Apply mutates m in place per the non-nil fields of p, bumping UpdatedAt.
// It does not validate; callers run Validate afterwards.
func (p Patch) Apply(m *Monitor, now time.Time) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.URL != nil {
		m.URL = *p.URL
	}
	if p.Pipeline != nil {
		m.Pipeline = p.Pipeline
	}
	if p.Interval != nil {
		m.Interval = *p.Interval
	}
	if p.Schedule != nil {
		m.Schedule = *p.Schedule
	}
	if p.Enabled != nil {
		m.Enabled = *p.Enabled
	}
	if p.Tags != nil {
		m.Tags = NormalizeTags(p.Tags)
	}
	m.UpdatedAt = now
}

// AffectsSchedule reports whether this patch requires the scheduler to
// reschedule the monitor's job immediately (§4.7): changes to
// interval/schedule/enabled do, cosmetic fields (name, tags) don't.
func (p Patch) AffectsSchedule() bool {
	return p.Interval != nil || p.Schedule != nil || p.Enabled != nil
}
