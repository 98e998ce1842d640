package filter

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Scorer measures how alike two answers are, from 0 (unrelated) to 1
// (identical).
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// Weights of the WordScorer components.
const (
	tokenWeight = 0.5
	orderWeight = 0.3
	sizeWeight  = 0.2
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "and": true,
	"in": true, "for": true, "on": true, "by": true, "or": true, "at": true,
}

// WordScorer is a word-level composite of token similarity (best
// Levenshtein match per word), word order (longest common subsequence) and
// relative size.
type WordScorer struct{}

func (WordScorer) Score(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	s := tokenWeight*tokenSimilarity(ta, tb) +
		orderWeight*orderSimilarity(ta, tb) +
		sizeWeight*sizeSimilarity(ta, tb)
	return min(1, max(0, s))
}

// Tokens splits s into lower-case words with punctuation removed, dropping
// stopwords unless nothing else is left.
func Tokens(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	var out []string
	for _, w := range words {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return words
	}
	return out
}

// tokenSimilarity averages, in both directions, each word's best
// Levenshtein similarity against the other side's words.
func tokenSimilarity(a, b []string) float64 {
	return (bestMatchMean(a, b) + bestMatchMean(b, a)) / 2
}

func bestMatchMean(from, to []string) float64 {
	var sum float64
	for _, x := range from {
		best := 0.0
		for _, y := range to {
			if s := levenshtein.Similarity(x, y, nil); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(from))
}

// orderSimilarity is the longest common subsequence of exact words over the
// longer length.
func orderSimilarity(a, b []string) float64 {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return float64(prev[len(b)]) / float64(max(len(a), len(b)))
}

func sizeSimilarity(a, b []string) float64 {
	return float64(min(len(a), len(b))) / float64(max(len(a), len(b)))
}
