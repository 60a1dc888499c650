package stages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

func TestThresholdStageWithinRange(t *testing.T) {
	s, err := newThresholdStage(map[string]any{"value": "$c", "min": float64(10), "max": float64(100)})
	require.NoError(t, err)

	run := stage.NewContext()
	run.Values["c"] = float64(42)
	res, err := s.Check(context.Background(), "http://x", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
}

func TestThresholdStageOutOfRange(t *testing.T) {
	s, err := newThresholdStage(map[string]any{"value": "$c", "min": float64(100), "max": float64(200)})
	require.NoError(t, err)

	run := stage.NewContext()
	run.Values["c"] = float64(42)
	res, err := s.Check(context.Background(), "http://x", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.Equal(t, "out_of_range", res.Message)
}

func TestThresholdStageRequiresMinOrMax(t *testing.T) {
	_, err := newThresholdStage(map[string]any{"value": "$c"})
	require.Error(t, err)
}

func TestThresholdStageUnresolvedReference(t *testing.T) {
	s, err := newThresholdStage(map[string]any{"value": "$missing", "min": float64(1)})
	require.NoError(t, err)

	run := stage.NewContext()
	_, err = s.Check(context.Background(), "http://x", false, run)
	require.Error(t, err)
}

func TestContainsStageMatch(t *testing.T) {
	s, err := newContainsStage(map[string]any{"pattern": "ok"})
	require.NoError(t, err)

	run := stage.NewContext()
	run.ResponseBody = []byte("status: ok")
	res, err := s.Check(context.Background(), "http://x", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
}

func TestContainsStageNegated(t *testing.T) {
	s, err := newContainsStage(map[string]any{"pattern": "error", "negate": true})
	require.NoError(t, err)

	run := stage.NewContext()
	run.ResponseBody = []byte("status: ok")
	res, err := s.Check(context.Background(), "http://x", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusUp, res.Status)
}

func TestAgeStageFreshDegradedExpired(t *testing.T) {
	s, err := newAgeStage(map[string]any{"value": "$ts", "max_age": float64(60)})
	require.NoError(t, err)

	cases := []struct {
		name   string
		age    time.Duration
		status stage.Status
	}{
		{"fresh", 10 * time.Second, stage.StatusUp},
		{"stale", 90 * time.Second, stage.StatusDegraded},
		{"expired", 200 * time.Second, stage.StatusDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			run := stage.NewContext()
			run.Values["ts"] = time.Now().Add(-tc.age).Format(time.RFC3339)
			res, err := s.Check(context.Background(), "http://x", false, run)
			require.NoError(t, err)
			require.Equal(t, tc.status, res.Status)
		})
	}
}

func TestAgeStageInvalidTimestamp(t *testing.T) {
	s, err := newAgeStage(map[string]any{"value": "$ts", "max_age": float64(60)})
	require.NoError(t, err)

	run := stage.NewContext()
	run.Values["ts"] = "not-a-timestamp"
	res, err := s.Check(context.Background(), "http://x", false, run)
	require.NoError(t, err)
	require.Equal(t, stage.StatusDown, res.Status)
	require.Equal(t, "invalid_timestamp", res.Message)
}
