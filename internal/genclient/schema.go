package genclient

import "github.com/talesin/civics100-sub000/internal/llm"

// DistractorSchema is the strict response shape requested from the model.
var DistractorSchema = &llm.Schema{
	Name:        "civics-distractors",
	Description: "Incorrect but plausible answer options for a civics quiz question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"distractors": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Wrong answers, each written in the same form as the correct answers",
			},
		},
		"required":             []any{"distractors"},
		"additionalProperties": false,
	},
}
