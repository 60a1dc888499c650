// Package engine implements the pipeline evaluation executor (§4.3): it
// instantiates each stage of a monitor's pipeline in order, carries a
// mutable run context between them, and merges their individual verdicts
// into one CheckResult.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/logger"
	"github.com/alexisbeaulieu97/uptimer/internal/metrics"
	"github.com/alexisbeaulieu97/uptimer/internal/registry"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

const (
	defaultStageTimeout = 30 * time.Second
	maxStageTimeout     = 60 * time.Second
	pipelineSlack       = 0.10
)

// Executor evaluates one monitor's pipeline per call. It holds no
// per-run state; a single Executor is safe to share across goroutines
// (the scheduler's worker pool and the HTTP adapter's ad-hoc calls both
// invoke the same instance, per §5).
type Executor struct {
	registry *registry.Registry
	store    ResultStore
	log      *logger.Logger
	metrics  *metrics.Collector
}

// New builds an Executor. store may be nil for dry-run/CLI usage that
// does not persist results. mtr may be nil (e.g. CLI usage), in which
// case per-stage metrics are simply skipped.
func New(reg *registry.Registry, store ResultStore, log *logger.Logger, mtr *metrics.Collector) *Executor {
	return &Executor{registry: reg, store: store, log: log, metrics: mtr}
}

// Run produces exactly one CheckResult for m (§4.3's contract), persisting
// it via the configured ResultStore. The returned error is non-nil only
// when persistence fails (a StorageError); the CheckResult itself is
// always populated and safe to use regardless.
func (e *Executor) Run(ctx context.Context, m monitor.Monitor) (check.Result, error) {
	start := time.Now()
	resultID := uuid.NewString()

	if !e.structurallyValid(m.Pipeline) {
		result := check.Result{
			ID:        resultID,
			MonitorID: m.ID,
			CheckedAt: time.Now().UTC(),
			Status:    stage.StatusDown,
			Message:   "pipeline_invalid",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{},
		}
		return e.persist(ctx, m, result)
	}

	budget := e.pipelineBudget(m.Pipeline)
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	run := stage.NewContext()
	details := make(map[string]any, len(m.Pipeline))
	messages := make([]string, 0, len(m.Pipeline))
	seen := make(map[string]int, len(m.Pipeline))
	aggregate := stage.StatusUp

	for i, spec := range m.Pipeline {
		name := spec.Type()

		s, err := e.registry.Construct(m.ID, i, spec)
		if err != nil {
			messages = append(messages, fmt.Sprintf("%s: config_error", name))
			aggregate = stage.Worse(aggregate, stage.StatusDown)
			break
		}

		stageCtx, stageCancel := context.WithTimeout(runCtx, e.stageTimeout(spec))
		res, err := s.Check(stageCtx, m.URL, false, run)
		stageCancel()

		if runCtx.Err() != nil {
			result := check.Result{
				ID:        resultID,
				MonitorID: m.ID,
				CheckedAt: time.Now().UTC(),
				Status:    stage.StatusDown,
				Message:   "pipeline_timeout",
				ElapsedMs: stage.ElapsedSince(start),
				Details:   details,
			}
			return e.persist(ctx, m, result)
		}

		if err != nil {
			res = convertStageError(err)
		}

		if e.metrics != nil {
			e.metrics.RecordStage(name, res.Status)
		}

		details[detailKey(seen, name)] = res.Details
		messages = append(messages, fmt.Sprintf("%s: %s", name, res.Message))
		aggregate = stage.Worse(aggregate, res.Status)

		if res.Status == stage.StatusDown {
			break
		}
	}

	result := check.Result{
		ID:        resultID,
		MonitorID: m.ID,
		CheckedAt: time.Now().UTC(),
		Status:    aggregate,
		Message:   check.TruncateMessage(strings.Join(messages, "; ")),
		ElapsedMs: stage.ElapsedSince(start),
		Details:   details,
	}
	return e.persist(ctx, m, result)
}

// convertStageError turns a Go error returned from Stage.Check into a
// stage-level down Result, per §4.3's "stage exceptions are caught and
// converted" rule and §7's dedicated UnresolvedValueError message.
func convertStageError(err error) stage.Result {
	var unresolved *uperrors.UnresolvedValueError
	if errors.As(err, &unresolved) {
		return stage.Result{Status: stage.StatusDown, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stage.Result{Status: stage.StatusDown, Message: "timeout"}
	}
	return stage.Result{Status: stage.StatusDown, Message: "error"}
}

// structurallyValid enforces §4.3's pre-flight check: the pipeline must
// contain at least one network stage.
func (e *Executor) structurallyValid(pipeline []monitor.StageSpec) bool {
	if len(pipeline) == 0 {
		return false
	}
	for _, spec := range pipeline {
		if e.registry.IsNetworkStage(spec.Type()) {
			return true
		}
	}
	return false
}

// stageTimeout resolves the per-stage hard timeout: the declared `timeout`
// option when present, capped at 60s, else the 30s default.
func (e *Executor) stageTimeout(spec monitor.StageSpec) time.Duration {
	raw, ok := spec["timeout"]
	if !ok {
		return defaultStageTimeout
	}
	seconds, err := toFloat(raw)
	if err != nil || seconds <= 0 {
		return defaultStageTimeout
	}
	d := time.Duration(seconds * float64(time.Second))
	if d > maxStageTimeout {
		return maxStageTimeout
	}
	return d
}

// pipelineBudget is the sum of every stage's resolved timeout plus a 10%
// slack, per §5's cancellation model.
func (e *Executor) pipelineBudget(pipeline []monitor.StageSpec) time.Duration {
	var total time.Duration
	for _, spec := range pipeline {
		total += e.stageTimeout(spec)
	}
	return total + time.Duration(float64(total)*pipelineSlack)
}

func (e *Executor) persist(ctx context.Context, m monitor.Monitor, result check.Result) (check.Result, error) {
	if e.store == nil {
		return result, nil
	}
	if err := e.store.AppendResult(ctx, result); err != nil {
		wrapped := uperrors.NewStorageError("append_result", err)
		if e.log != nil {
			e.log.Error("failed to persist check result", wrapped)
		}
		return result, wrapped
	}
	if err := e.store.UpdateMonitorMirror(ctx, m.ID, result.CheckedAt, result.Status); err != nil && e.log != nil {
		e.log.Error("failed to update monitor mirror", err)
	}
	return result, nil
}

// detailKey disambiguates the details map key for repeated stage types in
// one pipeline, per §4.3: "stage.name (or stage.name#i on collision)".
func detailKey(seen map[string]int, name string) string {
	count := seen[name]
	seen[name] = count + 1
	if count == 0 {
		return name
	}
	return fmt.Sprintf("%s#%d", name, count)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("value is not numeric")
	}
}
