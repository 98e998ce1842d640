package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesin/civics100-sub000/internal/filter"
	"github.com/talesin/civics100-sub000/internal/genclient"
	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/quality"
	"github.com/talesin/civics100-sub000/internal/quiz"
	"github.com/talesin/civics100-sub000/internal/sources"
	"github.com/talesin/civics100-sub000/internal/store"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

type fakeGen struct {
	mu    sync.Mutex
	calls int
	fn    func(q quiz.Question, target int) (genclient.Generation, error)
}

func (f *fakeGen) GenerateWithConfidence(_ context.Context, q quiz.Question, target int) (genclient.Generation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(q, target)
}

func (f *fakeGen) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func failingGen(err error) *fakeGen {
	return &fakeGen{fn: func(quiz.Question, int) (genclient.Generation, error) { return genclient.Generation{}, err }}
}

func fixedGen(texts ...string) *fakeGen {
	return &fakeGen{fn: func(quiz.Question, int) (genclient.Generation, error) {
		return genclient.Generation{Distractors: texts, Confidence: 0.9}, nil
	}}
}

type fakeRecorder struct {
	mu   sync.Mutex
	rows []store.GenerationResultData
}

func (f *fakeRecorder) AppendResult(_ context.Context, d store.GenerationResultData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, d)
	return nil
}

// panicSource panics for one question id.
type panicSource struct {
	Source
	id string
}

func (p panicSource) CuratedFor(q quiz.Question) []sources.Candidate {
	if q.ID == p.id {
		panic("corrupt curated entry")
	}
	return p.Source.CuratedFor(q)
}

var zeroScorer = filter.ScorerFunc(func(a, b string) float64 { return 0 })

func question(id, text, section string, answers ...string) quiz.Question {
	return quiz.Question{
		ID: id, Text: text, Topic: "American Government", Section: section,
		Kind: quiz.KindText, CorrectAnswers: answers,
	}
}

// branchSection has one target question and five siblings.
func branchSection() []quiz.Question {
	return []quiz.Question{
		question("t", "Why does the government have three branches?", "Branches", "Separation of powers"),
		question("s1", "Who makes federal laws?", "Branches", "Congress"),
		question("s2", "Who vetoes bills?", "Branches", "President"),
		question("s3", "Who confirms Supreme Court justices?", "Branches", "Senate"),
		question("s4", "Who advises the President?", "Branches", "Cabinet"),
		question("s5", "What is the highest court?", "Branches", "Supreme Court"),
	}
}

func newRunner(t *testing.T, questions []quiz.Question, curated sources.Curated, llmEnabled bool, opts ...Option) (*Runner, *sources.Set) {
	t.Helper()
	set := sources.NewSet(questions, curated, nil, sources.NewUsageTracker())
	sel := strategy.NewSelector(strategy.SelectorConfig{LLMEnabled: llmEnabled}, nil)
	flt := filter.New(filter.DefaultConfig(), zeroScorer)
	return NewRunner(sel, set, flt, nil, opts...), set
}

func assertSafe(t *testing.T, q quiz.Question, res Result) {
	t.Helper()
	require.Len(t, res.Sources, len(res.Distractors))
	seen := map[string]bool{}
	for _, d := range res.Distractors {
		n := quiz.Normalize(d)
		assert.False(t, seen[n], "%s: duplicate %q", q.ID, d)
		seen[n] = true
		assert.False(t, q.IsCorrect(d), "%s: correct answer %q emitted", q.ID, d)
	}
}

func TestRun_PaddingFromEmpty(t *testing.T) {
	qs := branchSection()
	for _, target := range []int{3, 5, 8} {
		t.Run(fmt.Sprint(target), func(t *testing.T) {
			gen := failingGen(&llm.ErrProviderUnavailable{})
			r, _ := newRunner(t, qs, nil, true, WithGenerator(gen))

			res := r.Run(context.Background(), qs[0], target)
			assert.Len(t, res.Distractors, min(target, 5))
			for _, s := range res.Sources {
				assert.Equal(t, strategy.SiblingReuse, s)
			}
			assert.Equal(t, strategy.SiblingReuse, res.Strategy)
			assert.True(t, res.FellBack)
			assertSafe(t, qs[0], res)
		})
	}
}

func TestRun_LLMFirst(t *testing.T) {
	qs := branchSection()
	gen := fixedGen("Federalism", "Popular sovereignty", "Separation of powers", "Rule of law")
	r, _ := newRunner(t, qs, nil, true, WithGenerator(gen))

	res := r.Run(context.Background(), qs[0], 5)
	require.Len(t, res.Distractors, 5)
	assert.Equal(t, []string{"Federalism", "Popular sovereignty", "Rule of law"}, res.Distractors[:3])
	assert.Equal(t, []strategy.Strategy{strategy.LLMText, strategy.LLMText, strategy.LLMText, strategy.SiblingReuse, strategy.SiblingReuse}, res.Sources)
	assert.Equal(t, strategy.LLMText, res.Strategy)
	assert.False(t, res.FellBack)
	assert.Equal(t, 4, res.RawCandidateCount)
	assert.Equal(t, 1, gen.Calls())
	assertSafe(t, qs[0], res)
}

func TestRun_CuratedShortCircuits(t *testing.T) {
	qs := branchSection()
	curated := sources.Curated{"t": {"Federalism", "Checks and balances", "Popular sovereignty", "Rule of law", "Republicanism", "Judicial review"}}
	gen := fixedGen("Never used")
	r, _ := newRunner(t, qs, curated, true, WithGenerator(gen))

	res := r.Run(context.Background(), qs[0], 5)
	assert.Equal(t, curated["t"][:5], res.Distractors)
	assert.Equal(t, strategy.Curated, res.Strategy)
	assert.Zero(t, gen.Calls())
}

func TestRun_CuratedSeedsChain(t *testing.T) {
	qs := branchSection()
	curated := sources.Curated{"t": {"Federalism", "separation of powers"}}
	gen := fixedGen("Federalism", "Rule of law", "Popular sovereignty", "Checks and balances", "Judicial review")
	r, _ := newRunner(t, qs, curated, true, WithGenerator(gen))

	res := r.Run(context.Background(), qs[0], 4)
	assert.Equal(t, []string{"Federalism", "Rule of law", "Popular sovereignty", "Checks and balances"}, res.Distractors)
	assert.Equal(t, strategy.Curated, res.Sources[0])
	assert.Equal(t, strategy.LLMText, res.Sources[1])
	assert.Equal(t, strategy.LLMText, res.Strategy)
	assert.Equal(t, 1+5, res.RawCandidateCount)
}

func TestRun_StructuredKindNeverUsesLLM(t *testing.T) {
	qs := []quiz.Question{
		{ID: "cap", Text: "What is the capital of California?", Topic: "Geography", Section: "States",
			Kind: quiz.KindCapital, CorrectAnswers: []string{"Sacramento"}},
	}
	gen := fixedGen("Los Angeles")
	r, _ := newRunner(t, qs, nil, true, WithGenerator(gen))

	res := r.Run(context.Background(), qs[0], 6)
	assert.Len(t, res.Distractors, 6)
	assert.Equal(t, strategy.PoolLookup, res.Strategy)
	assert.NotContains(t, res.Sources, strategy.LLMText)
	assert.Zero(t, gen.Calls())
	assertSafe(t, qs[0], res)
}

func TestRun_AuthErrorDisablesLLMForRun(t *testing.T) {
	qs := branchSection()
	gen := failingGen(&llm.ErrAuth{Err: errors.New("401")})
	r, _ := newRunner(t, qs, nil, true, WithGenerator(gen))

	first := r.Run(context.Background(), qs[0], 3)
	second := r.Run(context.Background(), qs[1], 3)
	assert.Len(t, first.Distractors, 3)
	assert.Len(t, second.Distractors, 3)
	assert.True(t, first.FellBack)
	assert.Equal(t, 1, gen.Calls())
}

func TestRun_NoCandidatesAnywhere(t *testing.T) {
	qs := []quiz.Question{question("lonely", "Why vote?", "Alone", "Civic duty")}
	r, _ := newRunner(t, qs, nil, false)

	res := r.Run(context.Background(), qs[0], 5)
	assert.Empty(t, res.Distractors)
	assert.Equal(t, strategy.None, res.Strategy)
	assert.False(t, res.FellBack)
	assert.Equal(t, quality.Metrics{}, res.Metrics)
}

func TestRun_EmptyChainCountsAsFallback(t *testing.T) {
	t.Run("padding only", func(t *testing.T) {
		qs := []quiz.Question{
			{ID: "sen", Text: "Who is one of your state's U.S. Senators now?", Topic: "Congress", Section: "Senate",
				Kind: quiz.KindSenator, CorrectAnswers: []string{"Alex Padilla"}},
			{ID: "sen2", Text: "Name a senator from Texas.", Topic: "Congress", Section: "Texas",
				Kind: quiz.KindSenator, CorrectAnswers: []string{"John Cornyn"}},
		}
		r, _ := newRunner(t, qs, nil, true)

		res := r.Run(context.Background(), qs[0], 3)
		assert.Equal(t, []string{"John Cornyn"}, res.Distractors)
		assert.Equal(t, strategy.Hybrid, res.Strategy)
		assert.True(t, res.FellBack)
	})

	t.Run("curated leftovers", func(t *testing.T) {
		qs := []quiz.Question{question("lonely", "Why is voting important?", "Alone", "Civic duty")}
		curated := sources.Curated{"lonely": {"Tax exemption"}}
		gen := failingGen(&llm.ErrProviderUnavailable{})
		r, _ := newRunner(t, qs, curated, true, WithGenerator(gen))

		res := r.Run(context.Background(), qs[0], 3)
		assert.Equal(t, []string{"Tax exemption"}, res.Distractors)
		assert.Equal(t, strategy.Curated, res.Strategy)
		assert.True(t, res.FellBack)
		assert.Equal(t, 1, Summarize([]Result{res}, 3).FellBack)
	})
}

func TestRun_UpdatesUsage(t *testing.T) {
	qs := branchSection()
	r, set := newRunner(t, qs, nil, false)

	res := r.Run(context.Background(), qs[0], 2)
	require.Len(t, res.Distractors, 2)
	for _, d := range res.Distractors {
		assert.Equal(t, 1, set.Usage.Count(d))
	}
}

func TestRun_InvalidTarget(t *testing.T) {
	qs := branchSection()
	r, _ := newRunner(t, qs, nil, false)
	res := r.Run(context.Background(), qs[0], 0)
	assert.Equal(t, strategy.Error, res.Strategy)
	assert.NotEmpty(t, res.Err)
}

func TestRunBatch_InvariantsAndOrder(t *testing.T) {
	var qs []quiz.Question
	answers := []string{"Congress", "President", "Senate", "Cabinet", "Supreme Court", "Speaker", "Governor", "Mayor"}
	for i, a := range answers {
		qs = append(qs, question(fmt.Sprintf("q%d", i), "Who holds this office?", "Offices", a))
	}
	rec := &fakeRecorder{}
	r, _ := newRunner(t, qs, nil, false, WithRecorder(rec), WithRunID("run-1"))

	b, err := r.RunBatch(context.Background(), qs, 5, 4)
	require.NoError(t, err)
	require.Len(t, b.Results, len(qs))
	for i, res := range b.Results {
		assert.Equal(t, qs[i].ID, res.QuestionID)
		assert.Len(t, res.Distractors, 5)
		assertSafe(t, qs[i], res)
	}
	assert.Equal(t, "run-1", b.RunID)
	assert.Equal(t, len(qs), b.Summary.Total)
	assert.Zero(t, b.Summary.UnderTarget)
	assert.Len(t, rec.rows, len(qs))
	assert.Equal(t, "run-1", rec.rows[0].RunID)
}

func TestRunBatch_PanicIsIsolated(t *testing.T) {
	qs := branchSection()
	set := sources.NewSet(qs, nil, nil, sources.NewUsageTracker())
	sel := strategy.NewSelector(strategy.SelectorConfig{}, nil)
	r := NewRunner(sel, panicSource{Source: set, id: "s2"}, filter.New(filter.DefaultConfig(), zeroScorer), nil)

	b, err := r.RunBatch(context.Background(), qs, 3, 2)
	require.NoError(t, err)
	for _, res := range b.Results {
		if res.QuestionID == "s2" {
			assert.Equal(t, strategy.Error, res.Strategy)
			assert.Empty(t, res.Distractors)
			assert.Contains(t, res.Err, "corrupt curated entry")
			continue
		}
		assert.Len(t, res.Distractors, 3)
	}
	assert.Equal(t, 1, b.Summary.Errored)
	assert.Equal(t, 1, b.Summary.UnderTarget)
}

func TestRunBatch_CancelledBeforeStart(t *testing.T) {
	qs := branchSection()
	r, _ := newRunner(t, qs, nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := r.RunBatch(ctx, qs, 3, 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, b.Results, len(qs))
	for _, res := range b.Results {
		assert.Equal(t, strategy.Cancelled, res.Strategy)
	}
	assert.Equal(t, len(qs), b.Summary.Cancelled)
}

func TestRunBatch_CancelledMidRun(t *testing.T) {
	qs := branchSection()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progressed []string
	r, _ := newRunner(t, qs, nil, false, WithProgress(func(done, total int, res Result) {
		progressed = append(progressed, res.QuestionID)
		assert.Equal(t, len(qs), total)
		cancel()
	}))

	b, err := r.RunBatch(ctx, qs, 3, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"t"}, progressed)
	assert.Len(t, b.Results[0].Distractors, 3)
	for _, res := range b.Results[1:] {
		assert.Equal(t, strategy.Cancelled, res.Strategy)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{QuestionID: "a", Strategy: strategy.LLMText, Distractors: []string{"x", "y"}, CacheHit: true},
		{QuestionID: "b", Strategy: strategy.SiblingReuse, Distractors: []string{"x"}, FellBack: true},
		{QuestionID: "c", Strategy: strategy.Error},
		{QuestionID: "d", Strategy: strategy.Cancelled},
	}
	s := Summarize(results, 2)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.FellBack)
	assert.Equal(t, 3, s.UnderTarget)
	assert.Equal(t, 1, s.Errored)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 1, s.ByStrategy[strategy.LLMText])
}
