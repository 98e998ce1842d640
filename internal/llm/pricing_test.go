package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	for _, id := range []string{
		anthropicModels["claude-haiku"], anthropicModels["claude-sonnet"],
		openaiModels["gpt-4o-mini"], geminiModels["gemini-flash"],
		DefaultConfig().OpenRouter.Model,
	} {
		if LookupCost(id) == nil {
			t.Errorf("no pricing for default model %q", id)
		}
	}
	for name, route := range openRouterModels {
		if LookupCost(route) == nil {
			t.Errorf("no pricing for openrouter alias %q (%s)", name, route)
		}
	}
	if LookupCost("no-such-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}

func TestModelCost(t *testing.T) {
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	if got := c.Cost(1_000_000, 200_000); math.Abs(got-2) > 1e-9 {
		t.Fatalf("Cost = %v, want 2", got)
	}
	if got := c.PerToken(); math.Abs(got-2e-6) > 1e-12 {
		t.Fatalf("PerToken = %v, want 2e-6", got)
	}
}
