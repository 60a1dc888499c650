// Package memory is an in-memory implementation of storage.Store, intended
// for tests, local development, and the CLI's standalone check command.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

const defaultRetention = 1000

// Store is a thread-safe in-memory persistence layer implementing
// storage.Store. It keeps everything in plain Go maps guarded by one
// mutex; fine for the scale a single engine process operates at.
type Store struct {
	mu        sync.RWMutex
	retention int

	monitors map[string]monitor.Monitor
	results  map[string][]check.Result // monitorID -> newest-first
	jobs     map[string]schedulerjob.Job
}

// New creates an empty in-memory store. retention <= 0 falls back to a
// sane default so tests that don't care about eviction don't need to set
// it explicitly.
func New(retention int) *Store {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Store{
		retention: retention,
		monitors:  make(map[string]monitor.Monitor),
		results:   make(map[string][]check.Result),
		jobs:      make(map[string]schedulerjob.Job),
	}
}

// CreateMonitor assigns an id and timestamps, then stores m.
func (s *Store) CreateMonitor(_ context.Context, m monitor.Monitor) (monitor.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, exists := s.monitors[m.ID]; exists {
		return monitor.Monitor{}, uperrors.NewStorageError("create_monitor", fmt.Errorf("monitor %s already exists", m.ID))
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Tags = monitor.NormalizeTags(m.Tags)
	s.monitors[m.ID] = m
	return m, nil
}

func (s *Store) GetMonitor(_ context.Context, id string) (monitor.Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.monitors[id]
	if !ok {
		return monitor.Monitor{}, uperrors.NewNotFoundError("monitor", id)
	}
	return m, nil
}

func (s *Store) ListMonitors(_ context.Context, tag string) ([]monitor.Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]monitor.Monitor, 0, len(s.monitors))
	for _, m := range s.monitors {
		if tag != "" && !m.HasTag(tag) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateMonitor(_ context.Context, id string, patch monitor.Patch) (monitor.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.monitors[id]
	if !ok {
		return monitor.Monitor{}, uperrors.NewNotFoundError("monitor", id)
	}
	patch.Apply(&m, time.Now().UTC())
	s.monitors[id] = m
	return m, nil
}

func (s *Store) DeleteMonitor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.monitors[id]; !ok {
		return uperrors.NewNotFoundError("monitor", id)
	}
	delete(s.monitors, id)
	// Results are retained as orphan history per §3's lifecycle note;
	// scheduler_jobs cleanup is the scheduler's CRUD-reaction responsibility.
	return nil
}

func (s *Store) ListTags(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, m := range s.monitors {
		for _, t := range m.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpdateMonitorMirror(_ context.Context, id string, checkedAt time.Time, status stage.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.monitors[id]
	if !ok {
		// Tolerated per §5: the mirror is re-derivable from results and
		// may legitimately race a concurrent delete.
		return nil
	}
	m.LastCheck = &checkedAt
	m.LastStatus = string(status)
	s.monitors[id] = m
	return nil
}

// AppendResult is idempotent by result.ID and evicts the oldest entries
// for the monitor beyond the configured retention (§3, §8).
func (s *Store) AppendResult(_ context.Context, result check.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.results[result.MonitorID]
	for _, r := range existing {
		if r.ID == result.ID {
			return nil
		}
	}

	existing = append([]check.Result{result}, existing...)
	if len(existing) > s.retention {
		existing = existing[:s.retention]
	}
	s.results[result.MonitorID] = existing
	return nil
}

func (s *Store) ListResults(_ context.Context, monitorID string, limit int) ([]check.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 10000 {
		limit = 10000
	}
	existing := s.results[monitorID]
	if len(existing) > limit {
		existing = existing[:limit]
	}
	out := make([]check.Result, len(existing))
	copy(out, existing)
	return out, nil
}

func (s *Store) UpsertJob(_ context.Context, job schedulerjob.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.MonitorID] = job
	return nil
}

func (s *Store) DeleteJob(_ context.Context, monitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, monitorID)
	return nil
}

func (s *Store) IterAllJobs(_ context.Context) ([]schedulerjob.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schedulerjob.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonitorID < out[j].MonitorID })
	return out, nil
}
