// Package schedulerjob defines the persisted record backing the
// scheduler's restart-survival story (§3 SchedulerJob record, §9 design
// notes). External observers should treat it as opaque.
package schedulerjob

import "time"

// TriggerKind distinguishes the two cadence mechanisms a monitor can use.
type TriggerKind string

const (
	TriggerInterval TriggerKind = "interval"
	TriggerCron     TriggerKind = "cron"
)

// Job is the persisted record the scheduler reconciles against the
// monitor collection on startup.
type Job struct {
	MonitorID   string
	TriggerKind TriggerKind
	TriggerSpec string // interval: seconds as decimal; cron: the 5-field expression
	NextRunAt   time.Time
	LastUpdated time.Time
}
