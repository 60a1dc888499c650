package scheduler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// trigger derives the next-run computation for one monitor, per §4.7:
// a non-empty Schedule wins over Interval.
type trigger struct {
	kind     schedulerjob.TriggerKind
	spec     string
	schedule cron.Schedule
	interval time.Duration
}

func newTrigger(m monitor.Monitor) (trigger, error) {
	if m.UsesCron() {
		sched, err := cronParser.Parse(m.Schedule)
		if err != nil {
			return trigger{}, fmt.Errorf("invalid cron schedule %q: %w", m.Schedule, err)
		}
		return trigger{kind: schedulerjob.TriggerCron, spec: m.Schedule, schedule: sched}, nil
	}
	if m.Interval <= 0 {
		return trigger{}, fmt.Errorf("monitor %s has no schedule or positive interval", m.ID)
	}
	d := time.Duration(m.Interval) * time.Second
	return trigger{kind: schedulerjob.TriggerInterval, spec: strconv.Itoa(m.Interval), interval: d}, nil
}

// next computes the first fire time strictly after from.
func (t trigger) next(from time.Time) time.Time {
	if t.kind == schedulerjob.TriggerCron {
		return t.schedule.Next(from.UTC())
	}
	return from.Add(t.interval)
}

