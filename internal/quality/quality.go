// Package quality scores a final distractor set against its question.
package quality

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/talesin/civics100-sub000/internal/filter"
	"github.com/talesin/civics100-sub000/internal/quiz"
)

// Metrics are per-set averages, each in [0,1].
type Metrics struct {
	Relevance        float64 `json:"relevance"`
	Plausibility     float64 `json:"plausibility"`
	EducationalValue float64 `json:"educational_value"`
}

// The similarity band a good distractor falls in: close enough to need
// real knowledge to rule out, far enough not to be defensible as correct.
const (
	sweetLow  = 0.3
	sweetHigh = 0.6
)

// Plausibility component weights.
const (
	lengthWeight  = 0.3
	wordsWeight   = 0.3
	capsWeight    = 0.2
	articleWeight = 0.2
)

// Educational value components.
const (
	eduBase          = 0.4
	eduKeywordBonus  = 0.3
	eduMisconception = 0.3
)

var questionWords = map[string]bool{
	"what": true, "who": true, "when": true, "where": true, "why": true, "how": true,
	"which": true, "name": true, "one": true, "two": true, "three": true, "is": true,
	"was": true, "are": true, "were": true, "does": true, "do": true, "did": true,
}

// Evaluator computes Metrics. The zero value is not usable; use New.
type Evaluator struct {
	scorer filter.Scorer
}

// New creates an Evaluator. A nil scorer uses filter.WordScorer.
func New(scorer filter.Scorer) *Evaluator {
	if scorer == nil {
		scorer = filter.WordScorer{}
	}
	return &Evaluator{scorer: scorer}
}

// Evaluate scores distractors for q. An empty set scores zero throughout.
func (e *Evaluator) Evaluate(q quiz.Question, distractors []string) Metrics {
	if len(distractors) == 0 {
		return Metrics{}
	}

	shape := shapeOf(q.CorrectAnswers)
	keywords := keywordsOf(q)
	misconceptions := misconceptionsFor(q)

	var m Metrics
	for _, d := range distractors {
		m.Relevance += e.relevance(d, q.CorrectAnswers)
		m.Plausibility += shape.plausibility(d)
		m.EducationalValue += educational(d, keywords, misconceptions)
	}
	n := float64(len(distractors))
	m.Relevance /= n
	m.Plausibility /= n
	m.EducationalValue /= n
	return m
}

// relevance rewards similarity inside the sweet band and falls off
// linearly on either side.
func (e *Evaluator) relevance(d string, correct []string) float64 {
	best := 0.0
	for _, c := range correct {
		best = max(best, e.scorer.Score(d, c))
	}
	switch {
	case best < sweetLow:
		return best / sweetLow
	case best > sweetHigh:
		return (1 - best) / (1 - sweetHigh)
	}
	return 1
}

// shape summarises the form of the correct answers.
type shape struct {
	meanLen     float64
	meanWords   float64
	capitalised bool
	article     bool
}

func shapeOf(correct []string) shape {
	var s shape
	if len(correct) == 0 {
		return s
	}
	caps, arts := 0, 0
	for _, c := range correct {
		c = strings.TrimSpace(c)
		s.meanLen += float64(utf8.RuneCountInString(c))
		s.meanWords += float64(len(strings.Fields(c)))
		if startsUpper(c) {
			caps++
		}
		if hasArticle(c) {
			arts++
		}
	}
	n := float64(len(correct))
	s.meanLen /= n
	s.meanWords /= n
	s.capitalised = caps*2 >= len(correct)
	s.article = arts*2 > len(correct)
	return s
}

func (s shape) plausibility(d string) float64 {
	d = strings.TrimSpace(d)
	score := lengthWeight*ratio(float64(utf8.RuneCountInString(d)), s.meanLen) +
		wordsWeight*ratio(float64(len(strings.Fields(d))), s.meanWords)
	if startsUpper(d) == s.capitalised {
		score += capsWeight
	}
	if hasArticle(d) == s.article {
		score += articleWeight
	}
	return score
}

func ratio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	return min(a, b) / max(a, b)
}

func educational(d string, keywords, misconceptions map[string]bool) float64 {
	score := eduBase
	for _, t := range filter.Tokens(d) {
		if keywords[t] {
			score += eduKeywordBonus
			break
		}
	}
	if misconceptions[bare(d)] {
		score += eduMisconception
	}
	return score
}

// keywordsOf returns the content words of q's text and topic.
func keywordsOf(q quiz.Question) map[string]bool {
	out := make(map[string]bool)
	for _, t := range filter.Tokens(q.Text + " " + q.Topic + " " + q.Section) {
		if !questionWords[t] && utf8.RuneCountInString(t) > 2 {
			out[t] = true
		}
	}
	return out
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func hasArticle(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "the ") || strings.HasPrefix(l, "a ") || strings.HasPrefix(l, "an ")
}

// bare normalises s and drops a leading article.
func bare(s string) string {
	n := quiz.Normalize(s)
	for _, a := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(n, a) {
			return n[len(a):]
		}
	}
	return n
}
