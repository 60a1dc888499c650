package stages

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

// jqStage applies a gjson path expression against the response body. gjson's
// path syntax stands in for a full jq program: dotted field access, array
// indexing, and `#` iteration cover the common extraction cases a monitor
// pipeline needs.
type jqStage struct {
	expr    string
	storeAs string
}

func newJQStage(opts map[string]any) (stage.Stage, error) {
	expr, err := optStringRequired(opts, "expr")
	if err != nil {
		return nil, err
	}
	return &jqStage{expr: expr, storeAs: optString(opts, "store_as", "")}, nil
}

func (s *jqStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	if !json.Valid(run.ResponseBody) {
		return stage.Result{Status: stage.StatusDown, Message: "invalid_json", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	res := gjson.GetBytes(run.ResponseBody, s.expr)
	if !res.Exists() {
		return stage.Result{Status: stage.StatusDown, Message: "no_match", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	value := res.Value()
	if s.storeAs != "" {
		run.Values[s.storeAs] = value
	}

	return stage.Result{
		Status:    stage.StatusUp,
		Message:   "extracted",
		ElapsedMs: stage.ElapsedSince(start),
		Details:   map[string]any{"expr": s.expr, "value": value},
	}, nil
}
