package stages

import (
	"context"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

type containsStage struct {
	pattern string
	negate  bool
}

func newContainsStage(opts map[string]any) (stage.Stage, error) {
	pattern, err := optStringRequired(opts, "pattern")
	if err != nil {
		return nil, err
	}
	return &containsStage{pattern: pattern, negate: optBool(opts, "negate", false)}, nil
}

func (s *containsStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	found := strings.Contains(string(run.ResponseBody), s.pattern)
	ok := found != s.negate

	if !ok {
		return stage.Result{Status: stage.StatusDown, Message: "no_match", ElapsedMs: stage.ElapsedSince(start)}, nil
	}
	return stage.Result{Status: stage.StatusUp, Message: "match", ElapsedMs: stage.ElapsedSince(start)}, nil
}
