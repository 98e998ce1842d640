// Package pipeline drives distractor generation: it selects a strategy
// chain per question, gathers and filters candidates, pads the set to the
// target size and runs many questions with bounded concurrency.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/filter"
	"github.com/talesin/civics100-sub000/internal/genclient"
	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/quality"
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/sources"
	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// DefaultConcurrency is the number of questions in flight at once.
const DefaultConcurrency = 10

var errNoGenerator = errors.New("no generation client configured")

// Generator produces LLM distractors. *genclient.Client implements it.
type Generator interface {
	GenerateWithConfidence(ctx context.Context, q quiz.Question, target int) (genclient.Generation, error)
}

// Source serves the non-LLM strategies. *sources.Set implements it.
type Source interface {
	CuratedFor(q quiz.Question) []sources.Candidate
	Lookup(st strategy.Strategy, q quiz.Question) []sources.Candidate
}

// ProgressFunc is called once per finished question.
type ProgressFunc func(done, total int, res Result)

// Runner runs the per-question pipeline. It is safe for concurrent use.
type Runner struct {
	selector *strategy.Selector
	source   Source
	filter   *filter.Filter
	eval     *quality.Evaluator
	usage    *sources.UsageTracker

	gen      Generator
	recorder store.ResultRecorder
	progress ProgressFunc
	runID    string
	log      *zap.Logger

	// authFailed stops further llm-text attempts once the provider has
	// rejected the credentials.
	authFailed atomic.Bool
}

// Option customises a Runner.
type Option func(*Runner)

// WithGenerator enables the llm-text strategy.
func WithGenerator(g Generator) Option {
	return func(r *Runner) { r.gen = g }
}

// WithRecorder persists every finished result.
func WithRecorder(rec store.ResultRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithProgress registers a progress callback. It may be called from
// several goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithRunID fixes the run id instead of generating one per batch.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithUsage sets the tracker updated with every emitted distractor.
func WithUsage(u *sources.UsageTracker) Option {
	return func(r *Runner) { r.usage = u }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner. A nil filter or evaluator uses the defaults.
func NewRunner(selector *strategy.Selector, source Source, flt *filter.Filter, eval *quality.Evaluator, opts ...Option) *Runner {
	if flt == nil {
		flt = filter.New(filter.DefaultConfig(), nil)
	}
	if eval == nil {
		eval = quality.New(flt.Scorer())
	}
	r := &Runner{
		selector: selector,
		source:   source,
		filter:   flt,
		eval:     eval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.usage == nil {
		if set, ok := source.(*sources.Set); ok {
			r.usage = set.Usage
		}
	}
	r.log = r.log.Named("pipeline")
	return r
}

// Run generates distractors for one question. It never fails: a panic
// inside the pipeline is returned as a result with the error strategy.
func (r *Runner) Run(ctx context.Context, q quiz.Question, target int) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("question pipeline panicked",
				zap.String("question", q.ID),
				zap.Any("panic", p))
			res = Result{
				QuestionID: q.ID,
				Strategy:   strategy.Error,
				Err:        fmt.Sprintf("panic: %v", p),
			}
		}
	}()
	return r.run(ctx, q, target)
}

// pool accumulates accepted candidates for one question.
type pool struct {
	q      quiz.Question
	target int
	texts  []string
	from   []strategy.Strategy
}

func (p *pool) full() bool { return len(p.texts) >= p.target }

func (r *Runner) accept(p *pool, cands []sources.Candidate, st strategy.Strategy) int {
	kept := r.filter.ApplyExcluding(sources.Texts(cands), p.q.CorrectAnswers, p.texts, p.q.Kind)
	for _, t := range kept {
		p.texts = append(p.texts, t)
		p.from = append(p.from, st)
	}
	return len(kept)
}

func (r *Runner) run(ctx context.Context, q quiz.Question, target int) Result {
	if target <= 0 {
		return Result{QuestionID: q.ID, Strategy: strategy.Error, Err: fmt.Sprintf("target must be positive, got %d", target)}
	}

	res := Result{QuestionID: q.ID, Strategy: strategy.None}
	p := &pool{q: q, target: target}

	// Curated distractors come first and end the chain when they suffice.
	if cur := r.source.CuratedFor(q); len(cur) > 0 {
		res.RawCandidateCount += len(cur)
		if r.accept(p, cur, strategy.Curated) > 0 {
			res.Strategy = strategy.Curated
		}
	}

	chainEmpty := false
	if !p.full() {
		chain := r.selector.Select(q)
		chainEmpty = len(chain) > 0
		for i, st := range chain {
			cands, hit, err := r.fetch(ctx, st, q, target)
			if err != nil {
				r.logChainError(q, st, err)
				continue
			}
			if len(cands) == 0 {
				continue
			}
			res.RawCandidateCount += len(cands)
			res.CacheHit = hit
			res.FellBack = i > 0
			res.Strategy = st
			r.accept(p, cands, st)
			chainEmpty = false
			break
		}
	}

	r.pad(p)

	if len(p.texts) > target {
		p.texts, p.from = p.texts[:target], p.from[:target]
	}
	if res.Strategy == strategy.None && len(p.from) > 0 {
		res.Strategy = p.from[0]
	}
	// No chain step produced anything, so whatever was emitted came from
	// curated leftovers or padding rather than the primary strategy.
	if chainEmpty && len(p.texts) > 0 {
		res.FellBack = true
	}
	res.Distractors = p.texts
	res.Sources = p.from
	res.Metrics = r.eval.Evaluate(q, p.texts)
	r.usage.Record(p.texts...)

	if len(p.texts) < target {
		r.log.Debug("question under target",
			zap.String("question", q.ID),
			zap.Int("got", len(p.texts)),
			zap.Int("target", target))
	}
	return res
}

// pad tops the pool up from the sources that need no upstream call.
func (r *Runner) pad(p *pool) {
	steps := []strategy.Strategy{strategy.SiblingReuse, strategy.Hybrid}
	if p.q.Kind.Structured() {
		steps = append(steps, strategy.PoolLookup)
	}
	for _, st := range steps {
		if p.full() {
			return
		}
		r.accept(p, r.source.Lookup(st, p.q), st)
	}
}

func (r *Runner) fetch(ctx context.Context, st strategy.Strategy, q quiz.Question, target int) ([]sources.Candidate, bool, error) {
	if st != strategy.LLMText {
		return r.source.Lookup(st, q), false, nil
	}
	if r.gen == nil {
		return nil, false, errNoGenerator
	}
	if r.authFailed.Load() {
		return nil, false, &llm.ErrAuth{Err: errors.New("credentials rejected earlier in this run")}
	}
	g, err := r.gen.GenerateWithConfidence(ctx, q, target)
	if err != nil {
		return nil, false, err
	}
	return sources.FromTexts(g.Distractors, strategy.LLMText), g.CacheHit, nil
}

func (r *Runner) logChainError(q quiz.Question, st strategy.Strategy, err error) {
	fields := []zap.Field{
		zap.String("question", q.ID),
		zap.String("strategy", string(st)),
		zap.String("kind", string(llm.Classify(err))),
		zap.Error(err),
	}
	if llm.Classify(err) == llm.KindAuth {
		if !r.authFailed.Swap(true) {
			r.log.Warn("generation credentials rejected, skipping llm-text for the rest of the run", fields...)
		}
		return
	}
	r.log.Info("strategy failed, falling back", fields...)
}
