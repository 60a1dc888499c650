package stages

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

type jsonpathStage struct {
	expr    string
	storeAs string
}

func newJSONPathStage(opts map[string]any) (stage.Stage, error) {
	expr, err := optStringRequired(opts, "expr")
	if err != nil {
		return nil, err
	}
	return &jsonpathStage{expr: expr, storeAs: optString(opts, "store_as", "")}, nil
}

func (s *jsonpathStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	var doc any
	if err := json.Unmarshal(run.ResponseBody, &doc); err != nil {
		return stage.Result{Status: stage.StatusDown, Message: "invalid_json", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	result, err := jsonpath.Get(s.expr, doc)
	if err != nil {
		return stage.Result{Status: stage.StatusDown, Message: "no_match", ElapsedMs: stage.ElapsedSince(start)}, nil
	}
	if matches, ok := result.([]any); ok && len(matches) == 0 {
		return stage.Result{Status: stage.StatusDown, Message: "no_match", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	if s.storeAs != "" {
		run.Values[s.storeAs] = result
	}

	return stage.Result{
		Status:    stage.StatusUp,
		Message:   "extracted",
		ElapsedMs: stage.ElapsedSince(start),
		Details:   map[string]any{"expr": s.expr, "value": result},
	}, nil
}
