// Package httpapi is the thin external REST adapter (§6): it translates
// HTTP requests into calls against the storage contract, the pipeline
// executor, and the scheduler, and maps the typed error kinds of §7 onto
// HTTP status codes. It carries no domain logic of its own.
package httpapi

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	"github.com/alexisbeaulieu97/uptimer/internal/metrics"
	"github.com/alexisbeaulieu97/uptimer/internal/registry"
	"github.com/alexisbeaulieu97/uptimer/internal/storage"
)

// Executor is the slice of internal/engine.Executor the API needs for
// ad-hoc checks (§4.7 "Ad-hoc runs").
type Executor interface {
	Run(ctx context.Context, m monitor.Monitor) (check.Result, error)
}

// SchedulerReactor is the slice of internal/scheduler.Scheduler the API
// needs to react to monitor CRUD (§4.7 CRUD reactions).
type SchedulerReactor interface {
	Upsert(ctx context.Context, m monitor.Monitor) error
	Unschedule(ctx context.Context, monitorID string) error
}

// defaultCheckAllConcurrency matches the scheduler's own default worker
// pool size (§4.7) so an ad-hoc check-all fan-out never outpaces the
// concurrency budget the rest of the engine is sized for.
const defaultCheckAllConcurrency = 32

// Server bundles the collaborators the REST handlers need. It holds no
// mutable state of its own beyond what its collaborators own.
type Server struct {
	store       storage.Store
	registry    *registry.Registry
	executor    Executor
	scheduler   SchedulerReactor
	metrics     *metrics.Collector
	log         *logger.Logger
	validate    *validator.Validate
	checkAllSem chan struct{}
}

// NewServer wires a Server from its collaborators. scheduler may be nil
// (e.g. a read-only replica or test harness); CRUD handlers then skip the
// scheduling reaction. concurrency bounds the number of monitors
// check-all (§6) runs at once; 0 falls back to defaultCheckAllConcurrency.
func NewServer(store storage.Store, reg *registry.Registry, exec Executor, sched SchedulerReactor, mtr *metrics.Collector, log *logger.Logger, concurrency int) *Server {
	if concurrency <= 0 {
		concurrency = defaultCheckAllConcurrency
	}
	return &Server{
		store:       store,
		registry:    reg,
		executor:    exec,
		scheduler:   sched,
		metrics:     mtr,
		log:         log,
		validate:    validator.New(),
		checkAllSem: make(chan struct{}, concurrency),
	}
}

const checkAllTimeout = 30 * time.Second
