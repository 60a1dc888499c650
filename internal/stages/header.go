package stages

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

type headerStage struct {
	name    string
	storeAs string
}

func newHeaderStage(opts map[string]any) (stage.Stage, error) {
	name, err := optStringRequired(opts, "pattern")
	if err != nil {
		return nil, err
	}
	return &headerStage{name: name, storeAs: optString(opts, "store_as", "")}, nil
}

func (s *headerStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	value, ok := run.ResponseHeaders.Get(s.name)
	if !ok {
		return stage.Result{Status: stage.StatusDown, Message: "header_missing", ElapsedMs: stage.ElapsedSince(start)}, nil
	}
	if s.storeAs != "" {
		run.Values[s.storeAs] = value
	}

	return stage.Result{
		Status:    stage.StatusUp,
		Message:   "found",
		ElapsedMs: stage.ElapsedSince(start),
		Details:   map[string]any{"name": s.name, "value": value},
	}, nil
}
