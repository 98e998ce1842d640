package pipeline

import (
	"github.com/talesin/civics100-sub000/internal/quality"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// Result is the outcome of one question's pipeline run.
type Result struct {
	QuestionID string `json:"question_id"`

	// Distractors holds at most the requested number of entries, none of
	// which repeats another or a correct answer. Sources[i] is the strategy
	// that produced Distractors[i].
	Distractors []string            `json:"distractors"`
	Sources     []strategy.Strategy `json:"sources"`

	Strategy          strategy.Strategy `json:"strategy"`
	Metrics           quality.Metrics   `json:"metrics"`
	RawCandidateCount int               `json:"raw_candidate_count"`
	CacheHit          bool              `json:"cache_hit"`
	FellBack          bool              `json:"fell_back"`
	Err               string            `json:"error,omitempty"`
}

// Summary aggregates a batch.
type Summary struct {
	Total       int `json:"total"`
	FellBack    int `json:"fell_back"`
	UnderTarget int `json:"under_target"`
	Errored     int `json:"errored"`
	Cancelled   int `json:"cancelled"`
	CacheHits   int `json:"cache_hits"`

	ByStrategy map[strategy.Strategy]int `json:"by_strategy"`
}

// Summarize counts results against target.
func Summarize(results []Result, target int) Summary {
	s := Summary{Total: len(results), ByStrategy: make(map[strategy.Strategy]int)}
	for _, r := range results {
		s.ByStrategy[r.Strategy]++
		switch r.Strategy {
		case strategy.Error:
			s.Errored++
		case strategy.Cancelled:
			s.Cancelled++
		}
		if r.FellBack {
			s.FellBack++
		}
		if len(r.Distractors) < target {
			s.UnderTarget++
		}
		if r.CacheHit {
			s.CacheHits++
		}
	}
	return s
}

// Batch is the outcome of RunBatch. Results follow the input order.
type Batch struct {
	RunID   string   `json:"run_id"`
	Target  int      `json:"target"`
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}
