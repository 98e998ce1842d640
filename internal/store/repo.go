package store

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	Purpose string // LLM events only
	RunID   string // generation results only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// GenerationResultData captures one question's outcome within a run.
type GenerationResultData struct {
	RunID             string
	QuestionID        string
	Strategy          string
	Target            int
	Distractors       []string
	RawCandidateCount int
	Relevance         float64
	Plausibility      float64
	EducationalValue  float64
	CacheHit          bool
	FellBack          bool
	ErrorMessage      string
}

// GenerationResult is a stored generation result.
type GenerationResult struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationResultData
}

// StrategyStat aggregates results produced by one strategy.
type StrategyStat struct {
	Strategy         string
	Questions        int
	UnderTarget      int
	AvgRelevance     float64
	AvgPlausibility  float64
	AvgEducational   float64
	AvgRawCandidates float64
}

// ResultRecorder persists generation results as they finish.
type ResultRecorder interface {
	AppendResult(ctx context.Context, data GenerationResultData) error
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// applyOpts adds the shared sequence/time window and limit to a selector,
// newest first.
func applyOpts(sel *entsql.Selector, opts QueryOpts) *entsql.Selector {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel
}
