package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/valueref"
)

type ageStage struct {
	value  any
	maxAge float64
}

func newAgeStage(opts map[string]any) (stage.Stage, error) {
	value, ok := opts["value"]
	if !ok {
		return nil, fmt.Errorf("value is required")
	}
	maxAgeRaw, ok := opts["max_age"]
	if !ok {
		return nil, fmt.Errorf("max_age is required")
	}
	maxAge, err := toFloat(maxAgeRaw)
	if err != nil || maxAge < 0 {
		return nil, fmt.Errorf("max_age must be a non-negative number of seconds")
	}
	return &ageStage{value: value, maxAge: maxAge}, nil
}

func resolveTimestamp(raw any, values map[string]any) (string, error) {
	if s, ok := raw.(string); ok {
		return valueref.ResolveString(s, values)
	}
	return fmt.Sprintf("%v", raw), nil
}

func (s *ageStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	raw, err := resolveTimestamp(s.value, run.Values)
	if err != nil {
		return stage.Result{}, err
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return stage.Result{Status: stage.StatusDown, Message: "invalid_timestamp", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	ageSeconds := time.Since(ts).Seconds()
	details := map[string]any{"checked_at": ts, "age_seconds": ageSeconds}

	switch {
	case ageSeconds <= s.maxAge:
		return stage.Result{Status: stage.StatusUp, Message: "fresh", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	case ageSeconds <= 2*s.maxAge:
		return stage.Result{Status: stage.StatusDegraded, Message: "stale", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	default:
		return stage.Result{Status: stage.StatusDown, Message: "expired", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
	}
}
