// Package quiz defines the civics question model and the question-file
// loader.
package quiz

import "strings"

// AnswerKind classifies what a question's answers are.
type AnswerKind string

const (
	KindText           AnswerKind = "text"
	KindSenator        AnswerKind = "senator"
	KindRepresentative AnswerKind = "representative"
	KindGovernor       AnswerKind = "governor"
	KindCapital        AnswerKind = "capital"
	KindPresident      AnswerKind = "president"
)

// Kinds lists every known answer kind.
var Kinds = []AnswerKind{KindText, KindSenator, KindRepresentative, KindGovernor, KindCapital, KindPresident}

// Structured reports whether answers of this kind come from a fixed
// reference pool of names or places rather than free text.
func (k AnswerKind) Structured() bool {
	switch k {
	case KindSenator, KindRepresentative, KindGovernor, KindCapital, KindPresident:
		return true
	}
	return false
}

// Valid reports whether k is a known kind.
func (k AnswerKind) Valid() bool {
	return k == KindText || k.Structured()
}

// Question is a single quiz question. It is created by Load and never
// mutated afterwards.
type Question struct {
	ID             string
	Text           string
	Topic          string
	Section        string
	Kind           AnswerKind
	CorrectAnswers []string
}

// Normalize lower-cases s, trims it and collapses internal whitespace. It is
// the comparison form used for equality checks and cache keys.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// IsCorrect reports whether text matches any correct answer, ignoring case
// and whitespace.
func (q Question) IsCorrect(text string) bool {
	n := Normalize(text)
	for _, a := range q.CorrectAnswers {
		if Normalize(a) == n {
			return true
		}
	}
	return false
}
