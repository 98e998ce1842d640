package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-lite", "gemini-2.5-flash-lite"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{"type": "string"},
			"count":    map[string]any{"type": "integer"},
			"kind":     map[string]any{"type": "string", "enum": []any{"text", "senator", "capital"}},
			"distractors": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"question", "distractors"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["question"].Type != "STRING" {
		t.Fatalf("expected STRING for question, got %s", schema.Properties["question"].Type)
	}
	if schema.Properties["count"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for count, got %s", schema.Properties["count"].Type)
	}
	if len(schema.Properties["kind"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["kind"].Enum))
	}
	if schema.Properties["distractors"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for distractors, got %s", schema.Properties["distractors"].Type)
	}
	if schema.Properties["distractors"].Items.Type != "STRING" {
		t.Fatalf("expected STRING for distractors items, got %s", schema.Properties["distractors"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiSchema_ItemBounds(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "date"},
		"minItems": 1,
		"maxItems": float64(8),
	})
	if schema.MinItems == nil || *schema.MinItems != 1 {
		t.Errorf("MinItems = %v, want 1", schema.MinItems)
	}
	if schema.MaxItems == nil || *schema.MaxItems != 8 {
		t.Errorf("MaxItems = %v, want 8", schema.MaxItems)
	}
	if schema.Items.Type != "STRING" {
		t.Errorf("unknown item type should fall back to STRING, got %s", schema.Items.Type)
	}
}
