package strategy

import (
	"regexp"
	"strings"
)

// Complexity is the cognitive tier a question's phrasing suggests.
type Complexity string

const (
	Comparative    Complexity = "comparative"
	SimpleFact     Complexity = "simple-fact"
	Identification Complexity = "identification"
	Conceptual     Complexity = "conceptual"
	Analytical     Complexity = "analytical"
)

var (
	comparativeRe    = regexp.MustCompile(`\b(difference|differences|differ|differs|compare|compared|comparison|contrast)\b`)
	simpleFactRe     = regexp.MustCompile(`^(what|who|when|where)\s+(is|was|are|were)\b`)
	identificationRe = regexp.MustCompile(`^(name|identify|list)\b`)
	conceptualRe     = regexp.MustCompile(`^(why\b|how\s+(does|do|did|can|is|are)\b|explain\b|what\s+(do|does|did)\b)`)
)

// Classify derives the complexity tier from question text. Comparison
// keywords win over every other pattern, so "What is the difference
// between..." is comparative rather than a simple fact.
func Classify(text string) Complexity {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case comparativeRe.MatchString(t):
		return Comparative
	case simpleFactRe.MatchString(t):
		return SimpleFact
	case identificationRe.MatchString(t):
		return Identification
	case conceptualRe.MatchString(t):
		return Conceptual
	}
	return Analytical
}
