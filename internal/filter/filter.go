// Package filter removes unsuitable distractor candidates: matches and
// near-matches of the correct answers, fragments, duplicates and entries
// whose form would give them away.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

// Mode selects the similarity thresholds.
type Mode int

const (
	// ModeStrict rejects anything more than StrictThreshold similar to a
	// correct answer.
	ModeStrict Mode = iota

	// ModeLenient allows closer matches to the correct answers but also
	// rejects near-duplicates among the accepted distractors.
	ModeLenient
)

// Config controls the filter stages.
type Config struct {
	Mode Mode

	// SimilarityEnabled turns the threshold similarity stage on. The
	// exact-match and overlap stages always run.
	SimilarityEnabled bool

	// Standardize adjusts surface form to match the correct answers.
	Standardize bool

	MinLength        int     // runes, after trimming
	OverlapThreshold float64 // share of significant words

	StrictThreshold         float64
	LenientCorrectThreshold float64
	LenientPeerThreshold    float64
}

// DefaultConfig returns the default filter settings.
func DefaultConfig() Config {
	return Config{
		Mode:                    ModeStrict,
		SimilarityEnabled:       true,
		Standardize:             true,
		MinLength:               2,
		OverlapThreshold:        0.75,
		StrictThreshold:         0.4,
		LenientCorrectThreshold: 0.8,
		LenientPeerThreshold:    0.7,
	}
}

// Filter applies the candidate stages in order. It holds no state between
// calls and is safe for concurrent use.
type Filter struct {
	cfg    Config
	scorer Scorer
}

// New creates a Filter. A nil scorer uses WordScorer.
func New(cfg Config, scorer Scorer) *Filter {
	if scorer == nil {
		scorer = WordScorer{}
	}
	return &Filter{cfg: cfg, scorer: scorer}
}

// Scorer returns the similarity scorer in use.
func (f *Filter) Scorer() Scorer {
	return f.scorer
}

// Apply filters candidates against the correct answers.
func (f *Filter) Apply(candidates, correct []string, kind quiz.AnswerKind) []string {
	return f.ApplyExcluding(candidates, correct, nil, kind)
}

// ApplyExcluding is Apply for a set being extended: candidates that
// duplicate (or, in lenient mode, closely resemble) an entry of existing
// are dropped too. The result never includes existing entries.
func (f *Filter) ApplyExcluding(candidates, correct, existing []string, kind quiz.AnswerKind) []string {
	correctNorm := make(map[string]bool, len(correct))
	for _, c := range correct {
		correctNorm[quiz.Normalize(c)] = true
	}
	lowerOK := anyLeadingLower(correct)

	accepted := make(map[string]bool, len(existing)+len(candidates))
	for _, e := range existing {
		accepted[quiz.Normalize(e)] = true
	}
	peers := append([]string(nil), existing...)

	var out []string
	for _, raw := range candidates {
		c := strings.TrimSpace(raw)

		// 1. Exact match.
		if correctNorm[quiz.Normalize(c)] {
			continue
		}
		// 2. Fragments.
		if f.isFragment(c, lowerOK) {
			continue
		}
		// 3. Whole-answer overlap.
		if f.overlaps(c, correct) {
			continue
		}
		// 4. Similarity threshold.
		if f.cfg.SimilarityEnabled && f.tooSimilar(c, correct, peers) {
			continue
		}
		// 5. Dedup.
		n := quiz.Normalize(c)
		if accepted[n] {
			continue
		}
		accepted[n] = true
		peers = append(peers, c)
		out = append(out, c)
	}

	if !f.cfg.Standardize || kind.Structured() {
		return out
	}

	// 6. Format standardization, then recheck what it may have changed.
	seen := make(map[string]bool, len(existing)+len(out))
	for _, e := range existing {
		seen[quiz.Normalize(e)] = true
	}
	final := out[:0]
	for _, c := range out {
		s := standardize(c, correct)
		n := quiz.Normalize(s)
		if correctNorm[n] || seen[n] || utf8.RuneCountInString(s) < f.cfg.MinLength {
			continue
		}
		seen[n] = true
		final = append(final, s)
	}
	return final
}

// isFragment reports candidates that look like a truncated clause rather
// than a complete answer. A leading lower-case letter only counts when no
// correct answer starts that way.
func (f *Filter) isFragment(c string, lowerOK bool) bool {
	if utf8.RuneCountInString(c) < f.cfg.MinLength {
		return true
	}
	first, _ := utf8.DecodeRuneInString(c)
	if !lowerOK && unicode.IsLower(first) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(c)
	if strings.ContainsRune(",;", first) || strings.ContainsRune(",;", last) {
		return true
	}
	return strings.Count(c, "(") > strings.Count(c, ")")
}

// overlaps reports whether most of the candidate's significant words appear
// in a single correct answer.
func (f *Filter) overlaps(c string, correct []string) bool {
	words := significantWords(c)
	if len(words) == 0 {
		return false
	}
	for _, a := range correct {
		if strings.EqualFold(strings.TrimSpace(a), c) {
			return true
		}
		answerWords := significantWords(a)
		shared := 0
		for w := range words {
			if answerWords[w] {
				shared++
			}
		}
		if float64(shared)/float64(len(words)) > f.cfg.OverlapThreshold {
			return true
		}
	}
	return false
}

func (f *Filter) tooSimilar(c string, correct, peers []string) bool {
	correctLimit := f.cfg.StrictThreshold
	if f.cfg.Mode == ModeLenient {
		correctLimit = f.cfg.LenientCorrectThreshold
	}
	for _, a := range correct {
		if f.scorer.Score(c, a) > correctLimit {
			return true
		}
	}
	if f.cfg.Mode == ModeLenient {
		for _, p := range peers {
			if f.scorer.Score(c, p) > f.cfg.LenientPeerThreshold {
				return true
			}
		}
	}
	return false
}

// significantWords returns the distinct lower-case words longer than two
// letters.
func significantWords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func anyLeadingLower(answers []string) bool {
	for _, a := range answers {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(a))
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
