package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// RunBatch runs every question with at most concurrency in flight. It
// always returns one result per question, in input order. When ctx is
// cancelled, questions not yet started are marked cancelled and ctx's
// error is returned alongside the batch.
func (r *Runner) RunBatch(ctx context.Context, questions []quiz.Question, target, concurrency int) (Batch, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := r.log.With(zap.String("run", runID))
	log.Info("batch started",
		zap.Int("questions", len(questions)),
		zap.Int("target", target),
		zap.Int("concurrency", concurrency))

	var (
		mu       sync.Mutex
		finished = make(map[string]Result, len(questions))
		done     atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, q := range questions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := r.Run(gctx, q, target)
			r.record(ctx, runID, target, res)

			mu.Lock()
			finished[q.ID] = res
			mu.Unlock()

			if r.progress != nil {
				r.progress(int(done.Add(1)), len(questions), res)
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]Result, len(questions))
	for i, q := range questions {
		res, ok := finished[q.ID]
		if !ok {
			res = Result{QuestionID: q.ID, Strategy: strategy.Cancelled, Err: "not started"}
		}
		results[i] = res
	}

	b := Batch{RunID: runID, Target: target, Results: results, Summary: Summarize(results, target)}
	log.Info("batch finished",
		zap.Int("fell_back", b.Summary.FellBack),
		zap.Int("under_target", b.Summary.UnderTarget),
		zap.Int("errored", b.Summary.Errored),
		zap.Int("cancelled", b.Summary.Cancelled),
		zap.Int("cache_hits", b.Summary.CacheHits))
	return b, ctx.Err()
}

func (r *Runner) record(ctx context.Context, runID string, target int, res Result) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.AppendResult(context.WithoutCancel(ctx), store.GenerationResultData{
		RunID:             runID,
		QuestionID:        res.QuestionID,
		Strategy:          string(res.Strategy),
		Target:            target,
		Distractors:       res.Distractors,
		RawCandidateCount: res.RawCandidateCount,
		Relevance:         res.Metrics.Relevance,
		Plausibility:      res.Metrics.Plausibility,
		EducationalValue:  res.Metrics.EducationalValue,
		CacheHit:          res.CacheHit,
		FellBack:          res.FellBack,
		ErrorMessage:      res.Err,
	})
	if err != nil {
		r.log.Warn("recording result failed", zap.String("question", res.QuestionID), zap.Error(err))
	}
}
