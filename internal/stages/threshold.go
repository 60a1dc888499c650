package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	"github.com/alexisbeaulieu97/uptimer/internal/valueref"
)

type thresholdStage struct {
	value  any
	min    any
	max    any
	hasMin bool
	hasMax bool
}

func newThresholdStage(opts map[string]any) (stage.Stage, error) {
	value, ok := opts["value"]
	if !ok {
		return nil, fmt.Errorf("value is required")
	}
	minRaw, hasMin := opts["min"]
	maxRaw, hasMax := opts["max"]
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("min or max is required")
	}
	return &thresholdStage{value: value, min: minRaw, max: maxRaw, hasMin: hasMin, hasMax: hasMax}, nil
}

func resolveNumeric(raw any, values map[string]any) (float64, error) {
	switch v := raw.(type) {
	case string:
		return valueref.ResolveNumber(v, values)
	default:
		return toFloat(raw)
	}
}

func (s *thresholdStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	v, err := resolveNumeric(s.value, run.Values)
	if err != nil {
		return stage.Result{}, err
	}

	details := map[string]any{"value": v}

	if s.hasMin {
		minV, err := resolveNumeric(s.min, run.Values)
		if err != nil {
			return stage.Result{}, err
		}
		details["min"] = minV
		if v < minV {
			return stage.Result{Status: stage.StatusDown, Message: "out_of_range", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
		}
	}
	if s.hasMax {
		maxV, err := resolveNumeric(s.max, run.Values)
		if err != nil {
			return stage.Result{}, err
		}
		details["max"] = maxV
		if v > maxV {
			return stage.Result{Status: stage.StatusDown, Message: "out_of_range", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
		}
	}

	return stage.Result{Status: stage.StatusUp, Message: "within_range", ElapsedMs: stage.ElapsedSince(start), Details: details}, nil
}
