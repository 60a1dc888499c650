// Package check defines CheckResult, the durable outcome of one pipeline
// evaluation.
package check

import (
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const maxMessageLen = 1024

// Result is the unit of observation persisted by the storage contract.
type Result struct {
	ID        string
	MonitorID string
	CheckedAt time.Time
	Status    stage.Status
	Message   string
	ElapsedMs float64
	Details   map[string]any
}

// TruncateMessage enforces the 1024-char cap from §3 on the aggregate
// message.
func TruncateMessage(msg string) string {
	r := []rune(msg)
	if len(r) <= maxMessageLen {
		return msg
	}
	return string(r[:maxMessageLen])
}
