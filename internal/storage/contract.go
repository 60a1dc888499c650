// Package storage declares the persistence contract the engine, scheduler,
// and REST adapter share (§4.8): monitor CRUD, an append-only
// bounded-retention result log, and an opaque scheduler-job namespace.
// Concrete implementations live in storage/memory and storage/postgres.
package storage

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

// MonitorStore persists Monitor configuration records.
type MonitorStore interface {
	CreateMonitor(ctx context.Context, m monitor.Monitor) (monitor.Monitor, error)
	GetMonitor(ctx context.Context, id string) (monitor.Monitor, error)
	ListMonitors(ctx context.Context, tag string) ([]monitor.Monitor, error)
	UpdateMonitor(ctx context.Context, id string, patch monitor.Patch) (monitor.Monitor, error)
	DeleteMonitor(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]string, error)
	UpdateMonitorMirror(ctx context.Context, id string, checkedAt time.Time, status stage.Status) error
}

// ResultStore persists the append-only, per-monitor capped CheckResult log.
type ResultStore interface {
	AppendResult(ctx context.Context, result check.Result) error
	ListResults(ctx context.Context, monitorID string, limit int) ([]check.Result, error)
}

// SchedulerJobStore persists the opaque scheduler_jobs namespace the
// scheduler reconciles against on restart (§4.7, §9).
type SchedulerJobStore interface {
	UpsertJob(ctx context.Context, job schedulerjob.Job) error
	DeleteJob(ctx context.Context, monitorID string) error
	IterAllJobs(ctx context.Context) ([]schedulerjob.Job, error)
}

// Store is the full contract: the only collaborator in the core with
// durable I/O (§4.8).
type Store interface {
	MonitorStore
	ResultStore
	SchedulerJobStore
}
