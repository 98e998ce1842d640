package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Complexity
	}{
		{"What is the difference between the House and the Senate?", Comparative},
		{"How do the House and Senate differ?", Comparative},
		{"Compare the powers of the states and the federal government.", Comparative},
		{"What is the supreme law of the land?", SimpleFact},
		{"Who was the first President?", SimpleFact},
		{"When was the Constitution written?", SimpleFact},
		{"Name one branch or part of the government.", Identification},
		{"List two rights in the Declaration of Independence.", Identification},
		{"Why does the flag have 13 stripes?", Conceptual},
		{"How does the Constitution protect rights?", Conceptual},
		{"What does the Constitution do?", Conceptual},
		{"Explain checks and balances.", Conceptual},
		{"The idea of self-government is in the first three words of the Constitution. What are these words?", Analytical},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestSelect(t *testing.T) {
	enabled := NewSelector(SelectorConfig{LLMEnabled: true, CostCeiling: DefaultCostCeiling}, nil)
	disabled := NewSelector(SelectorConfig{LLMEnabled: false}, nil)

	comparative := quiz.Question{Kind: quiz.KindText, Text: "What is the difference between the House and the Senate?"}
	assert.Equal(t, []Strategy{LLMText, SiblingReuse, Hybrid}, enabled.Select(comparative))
	assert.Equal(t, []Strategy{SiblingReuse, Hybrid}, disabled.Select(comparative))

	simple := quiz.Question{Kind: quiz.KindText, Text: "What is the supreme law of the land?"}
	assert.Equal(t, []Strategy{LLMText, SiblingReuse, Hybrid}, enabled.Select(simple))
}

func TestSelect_StructuredKindsNeverUseLLM(t *testing.T) {
	selectors := []*Selector{
		NewSelector(SelectorConfig{LLMEnabled: true}, nil),
		NewSelector(SelectorConfig{LLMEnabled: false}, nil),
	}
	for _, kind := range quiz.Kinds {
		if !kind.Structured() {
			continue
		}
		q := quiz.Question{Kind: kind, Text: "Why does this conceptual question compare things?"}
		for _, s := range selectors {
			assert.Equal(t, []Strategy{PoolLookup, SiblingReuse}, s.Select(q), kind)
		}
	}
}

func TestSelect_CostCeiling(t *testing.T) {
	s := NewSelector(SelectorConfig{LLMEnabled: true, CostCeiling: 0.0004}, nil)

	long := quiz.Question{Kind: quiz.KindText, Text: "What is " + strings.Repeat("very ", 200) + "long?"}
	assert.Greater(t, s.EstimateCost(long.Text), 0.0004)
	assert.Equal(t, []Strategy{SiblingReuse, Hybrid}, s.Select(long))

	// Conceptual questions ignore the ceiling.
	longWhy := quiz.Question{Kind: quiz.KindText, Text: "Why " + strings.Repeat("very ", 200) + "?"}
	assert.Equal(t, LLMText, s.Select(longWhy)[0])
}

func TestEstimateCost(t *testing.T) {
	s := NewSelector(SelectorConfig{CostPerToken: 0.001}, nil)
	assert.InDelta(t, float64(2+promptOverheadTokens)*0.001, s.EstimateCost("12345678"), 1e-9)
}
