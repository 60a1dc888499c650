package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	"github.com/alexisbeaulieu97/uptimer/internal/metrics"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.Metric[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.Metric[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]schedulerjob.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]schedulerjob.Job)}
}

func (f *fakeStore) UpsertJob(_ context.Context, job schedulerjob.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.MonitorID] = job
	return nil
}

func (f *fakeStore) DeleteJob(_ context.Context, monitorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, monitorID)
	return nil
}

func (f *fakeStore) IterAllJobs(_ context.Context) ([]schedulerjob.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schedulerjob.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}

type fakeLoader struct {
	mu       sync.Mutex
	monitors map[string]monitor.Monitor
}

func newFakeLoader(monitors ...monitor.Monitor) *fakeLoader {
	l := &fakeLoader{monitors: make(map[string]monitor.Monitor)}
	for _, m := range monitors {
		l.monitors[m.ID] = m
	}
	return l
}

func (f *fakeLoader) GetMonitor(_ context.Context, id string) (monitor.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.monitors[id]
	if !ok {
		return monitor.Monitor{}, errors.New("monitor not found")
	}
	return m, nil
}

func (f *fakeLoader) ListMonitors(_ context.Context, _ string) ([]monitor.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]monitor.Monitor, 0, len(f.monitors))
	for _, m := range f.monitors {
		out = append(out, m)
	}
	return out, nil
}

type fakeRunner struct {
	calls int32
	block chan struct{}
}

func (r *fakeRunner) Run(_ context.Context, _ monitor.Monitor) (check.Result, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.block != nil {
		<-r.block
	}
	return check.Result{Status: stage.StatusUp}, nil
}

type fakeResults struct {
	mu      sync.Mutex
	results []check.Result
}

func (f *fakeResults) AppendResult(_ context.Context, r check.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeResults) UpdateMonitorMirror(_ context.Context, _ string, _ time.Time, _ stage.Status) error {
	return nil
}

func (f *fakeResults) snapshot() []check.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]check.Result, len(f.results))
	copy(out, f.results)
	return out
}

func TestUpsertPersistsJobAndUnscheduleRemoves(t *testing.T) {
	store := newFakeStore()
	loader := newFakeLoader()
	runner := &fakeRunner{}
	s := New(loader, store, &fakeResults{}, runner, logger.NewDefault("test"))

	m := monitor.Monitor{ID: "m1", Enabled: true, Interval: 30}
	require.NoError(t, s.Upsert(context.Background(), m))

	jobs, err := store.IterAllJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, schedulerjob.TriggerInterval, jobs[0].TriggerKind)

	require.NoError(t, s.Unschedule(context.Background(), "m1"))
	jobs, err = store.IterAllJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 0)
}

func TestUpsertDisabledMonitorUnschedules(t *testing.T) {
	store := newFakeStore()
	loader := newFakeLoader()
	s := New(loader, store, &fakeResults{}, &fakeRunner{}, logger.NewDefault("test"))

	require.NoError(t, s.Upsert(context.Background(), monitor.Monitor{ID: "m1", Enabled: true, Interval: 30}))
	require.NoError(t, s.Upsert(context.Background(), monitor.Monitor{ID: "m1", Enabled: false, Interval: 30}))

	jobs, _ := store.IterAllJobs(context.Background())
	require.Len(t, jobs, 0)
}

func TestCronTriggerWinsOverInterval(t *testing.T) {
	trig, err := newTrigger(monitor.Monitor{ID: "m1", Schedule: "*/5 * * * *", Interval: 30})
	require.NoError(t, err)
	require.Equal(t, schedulerjob.TriggerCron, trig.kind)
}

func TestUpsertRejectsInvalidSchedule(t *testing.T) {
	store := newFakeStore()
	s := New(newFakeLoader(), store, &fakeResults{}, &fakeRunner{}, logger.NewDefault("test"))
	err := s.Upsert(context.Background(), monitor.Monitor{ID: "m1", Enabled: true, Schedule: "not a cron spec"})
	require.Error(t, err)
}

func TestStartDispatchesReadyIntervalJob(t *testing.T) {
	store := newFakeStore()
	m := monitor.Monitor{ID: "m1", Enabled: true, Interval: 1}
	loader := newFakeLoader(m)
	runner := &fakeRunner{}
	s := New(loader, store, &fakeResults{}, runner, logger.NewDefault("test"), WithPollInterval(10*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	s.mu.Lock()
	s.jobs["m1"].nextRun = time.Now().UTC().Add(-time.Second)
	s.mu.Unlock()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.calls) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestOverlapCoalescingRecordsDegradedAfterTwoConsecutiveOverlaps(t *testing.T) {
	store := newFakeStore()
	m := monitor.Monitor{ID: "m1", Enabled: true, Interval: 1}
	loader := newFakeLoader(m)
	block := make(chan struct{})
	runner := &fakeRunner{block: block}
	results := &fakeResults{}
	s := New(loader, store, results, runner, logger.NewDefault("test"))

	require.NoError(t, s.Upsert(context.Background(), m))

	js := s.jobs["m1"]
	now := time.Now().UTC()

	// First fire: not in flight, starts running and blocks.
	s.fire(context.Background(), js, now)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) == 1 }, time.Second, time.Millisecond)

	// Two further fires while still in flight: first overlap is silent,
	// second records a degraded "overlapped" result (§4.7, §9).
	s.fire(context.Background(), js, now.Add(time.Second))
	require.Empty(t, results.snapshot())
	s.fire(context.Background(), js, now.Add(2*time.Second))

	require.Eventually(t, func() bool { return len(results.snapshot()) == 1 }, time.Second, time.Millisecond)
	rec := results.snapshot()[0]
	require.Equal(t, stage.StatusDegraded, rec.Status)
	require.Equal(t, overlapMessage, rec.Message)

	close(block)
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.jobs["m1"].inFlight
	}, time.Second, time.Millisecond)
}

func TestUpsertAndUnscheduleReportScheduledJobsGauge(t *testing.T) {
	store := newFakeStore()
	reg := prometheus.NewRegistry()
	mtr := metrics.NewWithRegisterer(reg)
	s := New(newFakeLoader(), store, &fakeResults{}, &fakeRunner{}, logger.NewDefault("test"), WithMetrics(mtr))

	m := monitor.Monitor{ID: "m1", Enabled: true, Interval: 60}
	require.NoError(t, s.Upsert(context.Background(), m))
	require.Equal(t, 1.0, gaugeValue(t, reg, "uptimer_scheduler_jobs"))

	require.NoError(t, s.Unschedule(context.Background(), m.ID))
	require.Equal(t, 0.0, gaugeValue(t, reg, "uptimer_scheduler_jobs"))
}

func TestOverlapCoalescingIncrementsMetricsCounter(t *testing.T) {
	store := newFakeStore()
	m := monitor.Monitor{ID: "m1", Enabled: true, Interval: 1}
	loader := newFakeLoader(m)
	block := make(chan struct{})
	runner := &fakeRunner{block: block}
	results := &fakeResults{}
	reg := prometheus.NewRegistry()
	mtr := metrics.NewWithRegisterer(reg)
	s := New(loader, store, results, runner, logger.NewDefault("test"), WithMetrics(mtr))

	require.NoError(t, s.Upsert(context.Background(), m))
	js := s.jobs["m1"]
	now := time.Now().UTC()

	s.fire(context.Background(), js, now)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) == 1 }, time.Second, time.Millisecond)

	s.fire(context.Background(), js, now.Add(time.Second))
	s.fire(context.Background(), js, now.Add(2*time.Second))

	require.Eventually(t, func() bool { return len(results.snapshot()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, 1.0, counterValue(t, reg, "uptimer_scheduler_overlaps_total"))

	close(block)
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.jobs["m1"].inFlight
	}, time.Second, time.Millisecond)
}
