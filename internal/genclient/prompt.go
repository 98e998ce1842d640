package genclient

import (
	"fmt"
	"strings"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

const systemPrompt = `You write distractors for the U.S. civics test: answer options that are wrong but plausible.

Rules:
- Every distractor must be factually incorrect for the question asked.
- Never restate, paraphrase or partially repeat a correct answer.
- Match the correct answers' form: same grammatical shape, similar length, same capitalisation style.
- Prefer real civics terms, institutions, documents and people that a test taker might confuse with the right answer.
- Do not number the options or add explanations.
- Return each distractor once.`

// kindGuidance tells the model what shape of answer each kind expects.
var kindGuidance = map[quiz.AnswerKind]string{
	quiz.KindText:           "Short phrases in the style of the correct answers.",
	quiz.KindSenator:        "Full names of real people who are not senators for the state in question.",
	quiz.KindRepresentative: "Full names of real people who are not the representative for the district in question.",
	quiz.KindGovernor:       "Full names of real people who are not the governor of the state in question.",
	quiz.KindCapital:        "Names of real U.S. cities that are not the capital in question.",
	quiz.KindPresident:      "Full names of U.S. presidents other than the correct ones.",
}

// buildUserMessage lays out the per-question context for the model.
func buildUserMessage(q quiz.Question, target, maxAnswers int) string {
	var b strings.Builder

	if q.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", q.Topic)
	}
	if q.Section != "" {
		fmt.Fprintf(&b, "Section: %s\n", q.Section)
	}
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	fmt.Fprintf(&b, "Answer kind: %s\n", q.Kind)
	fmt.Fprintf(&b, "Answer form: %s\n", kindGuidance[q.Kind])

	b.WriteString("\nCorrect answers (do not use any of these):\n")
	b.WriteString(buildList(q.CorrectAnswers, maxAnswers))

	fmt.Fprintf(&b, "\n\nWrite %d distractors.", target)
	return b.String()
}

// buildList numbers items for the prompt, keeping at most max of them.
func buildList(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[:max]
	}

	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
