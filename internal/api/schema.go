package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response schemas. The service is the authority for all tutoring state, so
// a payload that fails validation is treated as a transport-level fault
// rather than applied partially.

var sessionStartSchema = map[string]any{
	"type":     "object",
	"required": []any{"session_id", "child_name", "concept", "age_level", "initial_explanation"},
	"properties": map[string]any{
		"session_id":          map[string]any{"type": "string", "minLength": 1},
		"child_name":          map[string]any{"type": "string"},
		"concept":             map[string]any{"type": "string", "minLength": 1},
		"localized_concept":   map[string]any{"type": "string"},
		"age_level":           map[string]any{"type": "integer"},
		"learning_language":   map[string]any{"type": "string"},
		"conversation_phase":  map[string]any{"type": "string"},
		"initial_explanation": map[string]any{"type": "string", "minLength": 1},
	},
}

var interactionSchema = map[string]any{
	"type":     "object",
	"required": []any{"agent_response", "understanding_state"},
	"properties": map[string]any{
		"agent_response":       map[string]any{"type": "string"},
		"transcribed_text":     map[string]any{"type": "string"},
		"understanding_state":  map[string]any{"type": "string"},
		"conversation_phase":   map[string]any{"type": "string"},
		"quiz_question_number": map[string]any{"type": "integer", "minimum": 1},
		"quiz_total_questions": map[string]any{"type": "integer", "minimum": 1},
	},
}

var quizStartSchema = map[string]any{
	"type":     "object",
	"required": []any{"question", "question_number", "total_questions"},
	"properties": map[string]any{
		"question":        map[string]any{"type": "string", "minLength": 1},
		"question_number": map[string]any{"type": "integer", "minimum": 1},
		"total_questions": map[string]any{"type": "integer", "minimum": 1},
	},
}

var quizAnswerSchema = map[string]any{
	"type":     "object",
	"required": []any{"quiz_completed"},
	"properties": map[string]any{
		"quiz_completed": map[string]any{"type": "boolean"},
		"score":          map[string]any{"type": "number"},
		"total_score":    map[string]any{"type": "number"},
		"percentage":     map[string]any{"type": "number", "minimum": 0, "maximum": 100},
	},
}

var endSessionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"evaluation_report": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mastery_percent": map[string]any{
					"type":    []any{"number", "null"},
					"minimum": 0,
					"maximum": 100,
				},
			},
		},
	},
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validatePayload validates raw JSON against the named schema definition.
// Returns *ErrInvalidPayload on failure.
func validatePayload(name string, definition map[string]any, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledSchema(name, definition)
	if err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("compile schema %q: %w", name, err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidPayload{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

// compiledSchema returns a cached compiled schema or compiles and caches it.
func compiledSchema(name string, definition map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw
	// bytes. Round-trip through encoding/json to normalize.
	defBytes, err := json.Marshal(definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
