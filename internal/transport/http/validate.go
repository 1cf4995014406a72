package http

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"sentra/internal/backtest"
)

const runRequestSchema = `{
	"type": "object",
	"required": ["assetId", "from", "to", "stepHours"],
	"properties": {
		"assetId": {"type": "string", "minLength": 1},
		"from": {"type": "string", "minLength": 1},
		"to": {"type": "string", "minLength": 1},
		"stepHours": {"type": "number", "exclusiveMinimum": 0},
		"costs": {
			"type": "object",
			"properties": {
				"feeBps": {"type": "number", "minimum": 0},
				"slippageBps": {"type": "number", "minimum": 0}
			},
			"additionalProperties": false
		},
		"exit": {
			"type": "object",
			"properties": {
				"kind": {"type": "string", "enum": ["hold-n-steps"]},
				"holdSteps": {"type": "integer", "minimum": 1},
				"price": {"type": "string", "enum": ["step-open"]}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

var compiledRunSchema = mustCompileSchema(runRequestSchema)

func mustCompileSchema(raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("run-request.json", strings.NewReader(raw)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("run-request.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// DecodeRunRequest validates the raw body against the run-request schema
// before decoding it, so malformed requests fail with a schema error rather
// than a zero-valued struct.
func DecodeRunRequest(raw []byte) (backtest.RunRequest, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return backtest.RunRequest{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := compiledRunSchema.Validate(generic); err != nil {
		return backtest.RunRequest{}, fmt.Errorf("invalid run request: %w", err)
	}
	var req backtest.RunRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return backtest.RunRequest{}, fmt.Errorf("decode run request: %w", err)
	}
	return req, nil
}
