// Package sources implements the candidate sources distractors are drawn
// from: curated lists, reference pools and sibling questions.
package sources

import (
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// Candidate is a proposed distractor and the source that produced it.
type Candidate struct {
	Text     string
	Strategy strategy.Strategy
}

// Texts returns the candidate strings in order.
func Texts(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

// FromTexts tags raw strings with the strategy that produced them.
func FromTexts(texts []string, s strategy.Strategy) []Candidate {
	out := make([]Candidate, 0, len(texts))
	for _, t := range texts {
		out = append(out, Candidate{Text: t, Strategy: s})
	}
	return out
}

// exclude drops blanks, case-insensitive duplicates and anything matching a
// correct answer of q, keeping first-seen order.
func exclude(q quiz.Question, texts []string) []string {
	seen := make(map[string]bool, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		n := quiz.Normalize(t)
		if n == "" || seen[n] || q.IsCorrect(t) {
			continue
		}
		seen[n] = true
		out = append(out, t)
	}
	return out
}
