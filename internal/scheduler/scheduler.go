// Package scheduler runs every enabled monitor's pipeline at its declared
// cadence without external triggers, surviving restarts (§4.7). It polls
// its in-memory job map (each job also written through the JobStore and
// reloaded at startup), derives cron or interval triggers, and submits
// ready jobs to a bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	"github.com/alexisbeaulieu97/uptimer/internal/metrics"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

const (
	defaultConcurrency  = 32
	defaultPollInterval = time.Second
	shutdownGrace       = 30 * time.Second
	overlapMessage      = "overlapped"
)

// Runner evaluates one monitor's pipeline. *engine.Executor satisfies
// this; tests can supply a fake.
type Runner interface {
	Run(ctx context.Context, m monitor.Monitor) (check.Result, error)
}

// MonitorLoader fetches the current snapshot of a monitor by id, and
// enumerates enabled monitors at startup for reconciliation.
type MonitorLoader interface {
	GetMonitor(ctx context.Context, id string) (monitor.Monitor, error)
	ListMonitors(ctx context.Context, tag string) ([]monitor.Monitor, error)
}

// ResultStore is the subset of the storage contract the scheduler needs
// to record a synthetic overlap result directly, bypassing the executor.
type ResultStore interface {
	AppendResult(ctx context.Context, result check.Result) error
	UpdateMonitorMirror(ctx context.Context, id string, checkedAt time.Time, status stage.Status) error
}

// jobState is the scheduler's live, in-memory view of one monitor's
// cadence. It is distinct from schedulerjob.Job, which is the persisted
// projection of the same information (§9 design notes).
type jobState struct {
	monitorID     string
	trigger       trigger
	nextRun       time.Time
	inFlight      bool
	overlapStreak int
}

// Scheduler is a lifecycle-managed background poller. A single instance
// is shared by the process; it is safe for concurrent CRUD reactions and
// its own polling goroutine.
type Scheduler struct {
	loader      MonitorLoader
	store       JobStore
	results     ResultStore
	runner      Runner
	log         *logger.Logger
	metrics     *metrics.Collector
	concurrency int
	pollEvery   time.Duration

	mu      sync.Mutex
	jobs    map[string]*jobState
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	sem     chan struct{}
}

// JobStore is the scheduler's persistence dependency: the scheduler_jobs
// namespace of the storage contract (§4.8).
type JobStore interface {
	UpsertJob(ctx context.Context, job schedulerjob.Job) error
	DeleteJob(ctx context.Context, monitorID string) error
	IterAllJobs(ctx context.Context) ([]schedulerjob.Job, error)
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithConcurrency overrides the default worker pool size (32, per §4.7).
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPollInterval overrides the default 1s poll tick. Tests use this to
// avoid real-time waits.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollEvery = d
		}
	}
}

// WithMetrics attaches a Collector so the scheduler reports overlap
// coalescing and the live scheduled-job count.
func WithMetrics(mtr *metrics.Collector) Option {
	return func(s *Scheduler) {
		s.metrics = mtr
	}
}

// New builds a Scheduler. Call Start to begin polling.
func New(loader MonitorLoader, store JobStore, results ResultStore, runner Runner, log *logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		loader:      loader,
		store:       store,
		results:     results,
		runner:      runner,
		log:         log,
		concurrency: defaultConcurrency,
		pollEvery:   defaultPollInterval,
		jobs:        make(map[string]*jobState),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sem = make(chan struct{}, s.concurrency)
	return s
}

// Start reconciles persisted jobs against the monitor collection, then
// begins the polling loop. It is idempotent.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.reconcile(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.tick(runCtx)
			}
		}
	}()

	s.log.Info("scheduler started")
	return nil
}

// Stop halts the polling loop, waiting up to shutdownGrace for in-flight
// task submissions to settle before giving up (§5: cooperative shutdown).
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	graceCtx, graceCancel := context.WithTimeout(ctx, shutdownGrace)
	defer graceCancel()

	select {
	case <-done:
	case <-graceCtx.Done():
		s.log.Info("scheduler shutdown grace period elapsed; abandoning in-flight tasks")
		return graceCtx.Err()
	}

	s.log.Info("scheduler stopped")
	return nil
}

// reconcile implements §4.7's startup story: monitors with no persisted
// job get one, persisted jobs for unknown or disabled monitors are
// removed, and everything else is rederived fresh (trigger changes are
// naturally picked up since Upsert always recomputes from the current
// monitor).
func (s *Scheduler) reconcile(ctx context.Context) error {
	persisted, err := s.store.IterAllJobs(ctx)
	if err != nil {
		return err
	}
	monitors, err := s.loader.ListMonitors(ctx, "")
	if err != nil {
		return err
	}

	known := make(map[string]monitor.Monitor, len(monitors))
	for _, m := range monitors {
		known[m.ID] = m
	}

	for _, job := range persisted {
		m, ok := known[job.MonitorID]
		if !ok || !m.Enabled {
			if err := s.unschedule(ctx, job.MonitorID); err != nil {
				s.log.Error("failed removing stale scheduler job", err)
			}
		}
	}

	for _, m := range monitors {
		if !m.Enabled {
			continue
		}
		if err := s.Upsert(ctx, m); err != nil {
			s.log.Error("failed reconciling scheduler job", err)
		}
	}
	return nil
}

// Upsert reacts to a monitor create/update whose effect is "this monitor
// should run on its declared cadence starting now" (§4.7 CRUD reactions).
// Re-creating a job with the same id replaces the prior one atomically.
func (s *Scheduler) Upsert(ctx context.Context, m monitor.Monitor) error {
	if !m.Enabled {
		return s.Unschedule(ctx, m.ID)
	}
	trig, err := newTrigger(m)
	if err != nil {
		return uperrors.NewValidationError("schedule", "monitor has no valid cron schedule or interval", err)
	}
	now := time.Now().UTC()
	next := trig.next(now)

	s.mu.Lock()
	s.jobs[m.ID] = &jobState{monitorID: m.ID, trigger: trig, nextRun: next}
	s.reportScheduledJobsLocked()
	s.mu.Unlock()

	return s.store.UpsertJob(ctx, schedulerjob.Job{
		MonitorID:   m.ID,
		TriggerKind: trig.kind,
		TriggerSpec: trig.spec,
		NextRunAt:   next,
		LastUpdated: now,
	})
}

// Unschedule reacts to a monitor delete, or an update that disables it
// (§4.7 CRUD reactions).
func (s *Scheduler) Unschedule(ctx context.Context, monitorID string) error {
	return s.unschedule(ctx, monitorID)
}

func (s *Scheduler) unschedule(ctx context.Context, monitorID string) error {
	s.mu.Lock()
	delete(s.jobs, monitorID)
	s.reportScheduledJobsLocked()
	s.mu.Unlock()
	return s.store.DeleteJob(ctx, monitorID)
}

// reportScheduledJobsLocked publishes the current job count to s.metrics.
// Callers must hold s.mu.
func (s *Scheduler) reportScheduledJobsLocked() {
	if s.metrics != nil {
		s.metrics.SetScheduledJobs(len(s.jobs))
	}
}

// tick examines every known job and dispatches the ones whose nextRun
// has elapsed, applying overlap coalescing per job (§4.7, §9).
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	ready := make([]*jobState, 0, len(s.jobs))
	for _, js := range s.jobs {
		if !js.nextRun.After(now) {
			ready = append(ready, js)
		}
	}
	s.mu.Unlock()

	for _, js := range ready {
		s.fire(ctx, js, now)
	}
}

func (s *Scheduler) fire(ctx context.Context, js *jobState, firedAt time.Time) {
	s.mu.Lock()
	if js.inFlight {
		js.overlapStreak++
		streak := js.overlapStreak
		js.nextRun = js.trigger.next(firedAt)
		monitorID := js.monitorID
		s.mu.Unlock()

		if streak >= 2 {
			s.recordOverlap(ctx, monitorID)
			s.mu.Lock()
			js.overlapStreak = 0
			s.mu.Unlock()
		}
		return
	}

	js.inFlight = true
	js.overlapStreak = 0
	js.nextRun = js.trigger.next(firedAt)
	monitorID := js.monitorID
	trig := js.trigger
	s.mu.Unlock()

	s.persistNextRun(ctx, monitorID, trig, js.nextRun)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			js.inFlight = false
			s.mu.Unlock()
		}()

		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			return
		}

		m, err := s.loader.GetMonitor(ctx, monitorID)
		if err != nil {
			s.log.Error("scheduler: monitor disappeared before fire", err)
			return
		}
		if _, err := s.runner.Run(ctx, m); err != nil {
			s.log.Error("scheduler: pipeline run failed to persist", err)
		}
	}()
}

func (s *Scheduler) persistNextRun(ctx context.Context, monitorID string, trig trigger, next time.Time) {
	err := s.store.UpsertJob(ctx, schedulerjob.Job{
		MonitorID:   monitorID,
		TriggerKind: trig.kind,
		TriggerSpec: trig.spec,
		NextRunAt:   next,
		LastUpdated: time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("scheduler: failed persisting next run", err)
	}
}

// recordOverlap synthesizes the degraded "overlapped" result once a job
// has missed two consecutive fires to its own prior run (§4.7, §9 open
// question (i)).
func (s *Scheduler) recordOverlap(ctx context.Context, monitorID string) {
	s.log.With(map[string]any{"monitor_id": monitorID}).Info("scheduler: coalesced overlapping fire")
	if s.metrics != nil {
		s.metrics.RecordOverlap()
	}

	if s.results == nil {
		return
	}
	now := time.Now().UTC()
	result := check.Result{
		ID:        uuid.NewString(),
		MonitorID: monitorID,
		CheckedAt: now,
		Status:    stage.StatusDegraded,
		Message:   overlapMessage,
	}
	if err := s.results.AppendResult(ctx, result); err != nil {
		s.log.Error("scheduler: failed recording overlap result", err)
		return
	}
	if err := s.results.UpdateMonitorMirror(ctx, monitorID, now, stage.StatusDegraded); err != nil {
		s.log.Error("scheduler: failed updating mirror for overlap result", err)
	}
}
