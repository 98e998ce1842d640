package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var resultColumns = []string{
	"id", "sequence", "timestamp", "run_id", "question_id", "strategy",
	"target", "distractor_count", "raw_candidate_count",
	"relevance", "plausibility", "educational_value",
	"cache_hit", "fell_back", "error_message", "distractors",
}

// ResultRepo stores per-question generation results.
type ResultRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// AppendResult records one finished question.
func (r *ResultRepo) AppendResult(ctx context.Context, data GenerationResultData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	distractors := data.Distractors
	if distractors == nil {
		distractors = []string{}
	}
	encoded, err := json.Marshal(distractors)
	if err != nil {
		return fmt.Errorf("encode distractors: %w", err)
	}

	query, args := builder().Insert(resultsTableName).
		Columns(resultColumns[1:]...).
		Values(
			seqNum, time.Now().UTC(), data.RunID, data.QuestionID, data.Strategy,
			data.Target, len(data.Distractors), data.RawCandidateCount,
			data.Relevance, data.Plausibility, data.EducationalValue,
			data.CacheHit, data.FellBack, data.ErrorMessage, string(encoded),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save generation result: %w", err)
	}
	return nil
}

// QueryResults returns results newest first.
func (r *ResultRepo) QueryResults(ctx context.Context, opts QueryOpts) ([]GenerationResult, error) {
	sel := builder().Select(resultColumns...).From(entsql.Table(resultsTableName))
	if opts.RunID != "" {
		sel.Where(entsql.EQ("run_id", opts.RunID))
	}
	query, args := applyOpts(sel, opts).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation results: %w", err)
	}
	defer rows.Close()

	var out []GenerationResult
	for rows.Next() {
		var (
			res     GenerationResult
			count   int
			encoded string
		)
		err := rows.Scan(
			&res.ID, &res.Sequence, &res.Timestamp, &res.RunID, &res.QuestionID, &res.Strategy,
			&res.Target, &count, &res.RawCandidateCount,
			&res.Relevance, &res.Plausibility, &res.EducationalValue,
			&res.CacheHit, &res.FellBack, &res.ErrorMessage, &encoded,
		)
		if err != nil {
			return nil, fmt.Errorf("scan generation result: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &res.Distractors); err != nil {
			return nil, fmt.Errorf("decode distractors for %s: %w", res.QuestionID, err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// LatestRunID returns the run that recorded the most recent result, or ""
// when nothing has been recorded.
func (r *ResultRepo) LatestRunID(ctx context.Context) (string, error) {
	query, args := builder().Select("run_id").
		From(entsql.Table(resultsTableName)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	var runID string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

// StatsByStrategy aggregates one run's results by the strategy that
// produced them.
func (r *ResultRepo) StatsByStrategy(ctx context.Context, runID string) ([]StrategyStat, error) {
	query, args := builder().Select(
		"strategy",
		entsql.As(entsql.Count("*"), "questions"),
		entsql.As("SUM(CASE WHEN distractor_count < target THEN 1 ELSE 0 END)", "under_target"),
		entsql.As(entsql.Avg("relevance"), "avg_relevance"),
		entsql.As(entsql.Avg("plausibility"), "avg_plausibility"),
		entsql.As(entsql.Avg("educational_value"), "avg_educational"),
		entsql.As(entsql.Avg("raw_candidate_count"), "avg_raw"),
	).
		From(entsql.Table(resultsTableName)).
		Where(entsql.EQ("run_id", runID)).
		GroupBy("strategy").
		OrderBy("strategy").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query strategy stats: %w", err)
	}
	defer rows.Close()

	var out []StrategyStat
	for rows.Next() {
		var s StrategyStat
		err := rows.Scan(&s.Strategy, &s.Questions, &s.UnderTarget,
			&s.AvgRelevance, &s.AvgPlausibility, &s.AvgEducational, &s.AvgRawCandidates)
		if err != nil {
			return nil, fmt.Errorf("scan strategy stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
