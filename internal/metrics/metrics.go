// Package metrics exposes prometheus instrumentation for pipeline runs,
// scheduler activity, and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const namespace = "uptimer"

// Collector aggregates every metric the engine, scheduler, and REST
// adapter record.
type Collector struct {
	CheckRunsTotal    *prometheus.CounterVec
	CheckDuration     *prometheus.HistogramVec
	StageRunsTotal    *prometheus.CounterVec
	SchedulerOverlaps prometheus.Counter
	SchedulerJobs     prometheus.Gauge
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New builds a Collector registered against prometheus's default
// registry (promauto's behavior; tests construct their own registry via
// NewWithRegisterer).
func New() *Collector {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer builds a Collector against a caller-supplied
// registerer, so tests don't collide on the global default registry. reg
// must also satisfy prometheus.Gatherer (prometheus.Registry does) for
// Handler to serve its own metrics rather than the default registry's.
func NewWithRegisterer(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Collector{
		gatherer: gatherer,
		CheckRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_runs_total",
				Help:      "Total number of pipeline runs, by final status.",
			},
			[]string{"status"},
		),
		CheckDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Pipeline run duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		StageRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_runs_total",
				Help:      "Total number of individual stage evaluations, by type and status.",
			},
			[]string{"stage_type", "status"},
		),
		SchedulerOverlaps: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_overlaps_total",
				Help:      "Total number of coalesced overlapping scheduler fires.",
			},
		),
		SchedulerJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_jobs",
				Help:      "Current number of monitors scheduled for periodic execution.",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of REST API requests, by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "REST API request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Handler exposes c's metrics in the Prometheus exposition format, for
// mounting at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// RecordCheck records the outcome of one pipeline run.
func (c *Collector) RecordCheck(status stage.Status, elapsed time.Duration) {
	c.CheckRunsTotal.WithLabelValues(string(status)).Inc()
	c.CheckDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// RecordStage records the outcome of one stage evaluation within a run.
func (c *Collector) RecordStage(stageType string, status stage.Status) {
	c.StageRunsTotal.WithLabelValues(stageType, string(status)).Inc()
}

// RecordOverlap records a coalesced overlapping scheduler fire.
func (c *Collector) RecordOverlap() {
	c.SchedulerOverlaps.Inc()
}

// SetScheduledJobs reports the current size of the scheduler's job set.
func (c *Collector) SetScheduledJobs(n int) {
	c.SchedulerJobs.Set(float64(n))
}

// RecordHTTPRequest records one REST API request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	statusStr := statusClass(status)
	c.HTTPRequestsTotal.WithLabelValues(method, route, statusStr).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
