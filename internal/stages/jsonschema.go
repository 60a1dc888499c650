package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
)

const inlineSchemaResource = "inline-schema.json"

type jsonSchemaStage struct {
	schema *jsonschema.Schema
}

func newJSONSchemaStage(opts map[string]any) (stage.Stage, error) {
	raw, ok := opts["schema"]
	if !ok {
		return nil, fmt.Errorf("schema is required")
	}
	schemaMap, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be an object")
	}

	encoded, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(inlineSchemaResource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(inlineSchemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &jsonSchemaStage{schema: compiled}, nil
}

func (s *jsonSchemaStage) Check(ctx context.Context, url string, verbose bool, run *stage.Context) (stage.Result, error) {
	start := time.Now()

	var doc any
	if err := json.Unmarshal(run.ResponseBody, &doc); err != nil {
		return stage.Result{Status: stage.StatusDown, Message: "invalid_json", ElapsedMs: stage.ElapsedSince(start)}, nil
	}

	if err := s.schema.Validate(doc); err != nil {
		return stage.Result{
			Status:    stage.StatusDown,
			Message:   "schema_violation",
			ElapsedMs: stage.ElapsedSince(start),
			Details:   map[string]any{"error": err.Error()},
		}, nil
	}

	return stage.Result{Status: stage.StatusUp, Message: "valid", ElapsedMs: stage.ElapsedSince(start)}, nil
}
