package engine

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

// ResultStore is the slice of the storage contract (§4.8) the executor
// needs: persisting one result and refreshing the monitor's denormalized
// last_check/last_status mirror. The concrete storage package's stores
// satisfy this structurally; the executor never imports storage directly.
type ResultStore interface {
	AppendResult(ctx context.Context, result check.Result) error
	UpdateMonitorMirror(ctx context.Context, monitorID string, checkedAt time.Time, status stage.Status) error
}
