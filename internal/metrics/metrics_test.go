package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

func TestRecordCheckIncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegisterer(reg)

	c.RecordCheck(stage.StatusUp, 150*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.True(t, containsMetric(families, "uptimer_check_runs_total"))
	require.True(t, containsMetric(families, "uptimer_check_duration_seconds"))
}

func TestRecordOverlapAndScheduledJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegisterer(reg)

	c.RecordOverlap()
	c.SetScheduledJobs(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var gauge *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "uptimer_scheduler_jobs" {
			gauge = f
		}
	}
	require.NotNil(t, gauge)
	require.Equal(t, 3.0, gauge.Metric[0].GetGauge().GetValue())
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegisterer(reg)
	c.RecordCheck(stage.StatusUp, 10*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "uptimer_check_runs_total")
}

func containsMetric(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}
	return false
}
