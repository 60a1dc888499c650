package stages

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

type regexStage struct {
	re      *regexp.Regexp
	storeAs string
}

func newRegexStage(opts map[string]any) (stage.Stage, error) {
	pattern, err := optStringRequired(opts, "pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return &regexStage{re: re, storeAs: optString(opts, "store_as", "")}, nil
}

func (s *regexStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	match := s.re.FindStringSubmatch(string(run.ResponseBody))
	if match == nil {
		return stage.Result{Status: stage.StatusDown, Message: "no_match", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	value := match[0]
	if s.re.NumSubexp() > 0 && len(match) > 1 {
		value = match[1]
	}
	if s.storeAs != "" {
		run.Values[s.storeAs] = value
	}

	return stage.Result{
		Status:    stage.StatusUp,
		Message:   "matched",
		ElapsedMs: stage.ElapsedSince(start),
		Details:   map[string]any{"value": value},
	}, nil
}
