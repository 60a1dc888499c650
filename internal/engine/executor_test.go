package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/registry"
	"github.com/alexisbeaulieu97/uptimer/internal/stages"
)

type fakeStore struct {
	mu      sync.Mutex
	results []check.Result
	lastSt  stage.Status
}

func (f *fakeStore) AppendResult(ctx context.Context, result check.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakeStore) UpdateMonitorMirror(ctx context.Context, monitorID string, checkedAt time.Time, status stage.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSt = status
	return nil
}

func newTestExecutor(t *testing.T) (*Executor, *fakeStore) {
	t.Helper()
	reg := registry.New(nil)
	require.NoError(t, stages.Register(reg))
	store := &fakeStore{}
	return New(reg, store, nil, nil), store
}

func TestRunMinimalHTTPMonitor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec, store := newTestExecutor(t)
	m := monitor.Monitor{
		ID:  "m1",
		URL: srv.URL,
		Pipeline: []monitor.StageSpec{
			{"type": "http"},
		},
	}

	res, err := exec.Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
	require.Equal(t, "http: 200", res.Message)
	require.Contains(t, res.Details, "http")
	require.Len(t, store.results, 1)
}

func TestRunChainedJSONAssertion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":42}`))
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t)
	m := monitor.Monitor{
		ID:  "m2",
		URL: srv.URL,
		Pipeline: []monitor.StageSpec{
			{"type": "http"},
			{"type": "jq", "expr": "count", "store_as": "c"},
			{"type": "threshold", "value": "$c", "min": float64(10), "max": float64(100)},
		},
	}

	res, err := exec.Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
	require.Contains(t, res.Message, "http:")
	require.Contains(t, res.Message, "jq:")
	require.Contains(t, res.Message, "threshold:")
	require.Contains(t, res.Details, "http")
	require.Contains(t, res.Details, "jq")
	require.Contains(t, res.Details, "threshold")
}

func TestRunShortCircuitsOnDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":42}`))
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t)
	m := monitor.Monitor{
		ID:  "m3",
		URL: srv.URL,
		Pipeline: []monitor.StageSpec{
			{"type": "http"},
			{"type": "jq", "expr": "count", "store_as": "c"},
			{"type": "threshold", "value": "$c", "min": float64(100), "max": float64(200)},
			{"type": "contains", "pattern": "count"},
		},
	}

	res, err := exec.Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.True(t, len(res.Message) > 0)
	require.Contains(t, res.Message, "threshold: out_of_range")
	require.NotContains(t, res.Details, "contains")
}

func TestRunNetworkFailureIsDown(t *testing.T) {
	exec, _ := newTestExecutor(t)
	m := monitor.Monitor{
		ID:  "m4",
		URL: "http://127.0.0.1:1",
		Pipeline: []monitor.StageSpec{
			{"type": "http", "timeout": float64(1)},
		},
	}

	res, err := exec.Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.Equal(t, "http: transport_error", res.Message)
	require.True(t, res.ElapsedMs > 0)
}

func TestRunRejectsPipelineWithNoNetworkStage(t *testing.T) {
	exec, _ := newTestExecutor(t)
	m := monitor.Monitor{
		ID:  "m5",
		URL: "https://example.com",
		Pipeline: []monitor.StageSpec{
			{"type": "contains", "pattern": "ok"},
		},
	}

	res, err := exec.Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.Equal(t, "pipeline_invalid", res.Message)
}

func TestDetailKeyDisambiguatesCollisions(t *testing.T) {
	seen := make(map[string]int)
	require.Equal(t, "http", detailKey(seen, "http"))
	require.Equal(t, "http#1", detailKey(seen, "http"))
	require.Equal(t, "http#2", detailKey(seen, "http"))
}
