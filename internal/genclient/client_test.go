package genclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/quiz"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = llm.RetryConfig{
		MaxAttempts:         3,
		MaxRateLimitRetries: 2,
		InitialWait:         time.Millisecond,
		MaxWait:             5 * time.Millisecond,
		Multiplier:          2,
	}
	cfg.Permits = 0
	cfg.CallTimeout = time.Second
	return cfg
}

func testQuestion() quiz.Question {
	return quiz.Question{
		ID:             "12",
		Text:           "What is the economic system of the United States?",
		Topic:          "American Government",
		Section:        "Principles of American Democracy",
		Kind:           quiz.KindText,
		CorrectAnswers: []string{"capitalist economy", "market economy"},
	}
}

func distractors(items ...string) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"distractors": items})
	return b
}

func slowMock(delay time.Duration, content json.RawMessage) *llm.MockProvider {
	m := llm.NewMockProvider()
	m.Delay = delay
	m.Fallback = func(llm.Request) llm.MockResponse { return llm.MockResponse{Content: content} }
	return m
}

func TestGenerate_CacheIdempotence(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: distractors("socialist economy", "command economy", "barter economy")})
	c := New(mock, testConfig())
	ctx := context.Background()

	first, err := c.GenerateWithConfidence(ctx, testQuestion(), 3)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, []string{"socialist economy", "command economy", "barter economy"}, first.Distractors)

	// Same kind, same normalized text, same target.
	q := testQuestion()
	q.Text = "  what is the economic   system of the United States? "
	second, err := c.GenerateWithConfidence(ctx, q, 3)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Distractors, second.Distractors)
	assert.Equal(t, 1, mock.CallCount())

	// A different target is a different key.
	mock.AddResponse(llm.MockResponse{Content: distractors("a", "b")})
	_, err = c.Generate(ctx, testQuestion(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount())
}

func TestGenerate_ConcurrentMissesShareOneCall(t *testing.T) {
	p := slowMock(50*time.Millisecond, distractors("x", "y"))
	c := New(p, testConfig())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Generate(context.Background(), testQuestion(), 2)
			assert.NoError(t, err)
			assert.Equal(t, []string{"x", "y"}, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, p.CallCount())
}

func TestGenerate_RetryCeiling(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Fallback = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}
	}
	c := New(mock, testConfig())

	_, err := c.Generate(context.Background(), testQuestion(), 5)
	require.Error(t, err)
	assert.Equal(t, llm.KindUpstream, llm.Classify(err))
	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, int64(3), c.Stats().Attempts)
	require.Len(t, mock.Labels, 3)
	for i, l := range mock.Labels {
		assert.Equal(t, llm.CallInfo{Purpose: "distractors", QuestionID: testQuestion().ID, Attempt: i + 1}, l)
	}
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestGenerate_AuthFailsImmediately(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{Err: errors.New("401")}})
	c := New(mock, testConfig())

	_, err := c.Generate(context.Background(), testQuestion(), 5)
	assert.Equal(t, llm.KindAuth, llm.Classify(err))
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_EmptyResponseIsRetried(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: distractors("  ", "")},
		llm.MockResponse{Content: distractors("Theocracy", " theocracy ", "Monarchy")},
	)
	c := New(mock, testConfig())

	g, err := c.GenerateWithConfidence(context.Background(), testQuestion(), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Theocracy", "Monarchy"}, g.Distractors)
	assert.InDelta(t, 0.5, g.Confidence, 1e-9)
	assert.Equal(t, 2, mock.CallCount())
}

func TestGenerate_EmptyAfterAllAttempts(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Fallback = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Content: distractors()}
	}
	c := New(mock, testConfig())

	_, err := c.Generate(context.Background(), testQuestion(), 4)
	var empty *llm.ErrEmptyResponse
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, 0, c.Stats().Cache.Size, "failures are never cached")
}

func TestGenerate_TimeoutIsTransient(t *testing.T) {
	p := slowMock(time.Second, distractors("x"))
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	c := New(p, cfg)

	_, err := c.Generate(context.Background(), testQuestion(), 5)
	var timeout *llm.ErrTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, p.CallCount())
}

func TestGenerate_ParentCancellation(t *testing.T) {
	p := slowMock(time.Second, distractors("x"))
	c := New(p, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Generate(ctx, testQuestion(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGenerate_InvalidTarget(t *testing.T) {
	c := New(llm.NewMockProvider(), testConfig())
	_, err := c.Generate(context.Background(), testQuestion(), 0)
	assert.Error(t, err)
}

func TestGenerate_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: distractors("x")})
	c := New(mock, testConfig())

	_, err := c.Generate(context.Background(), testQuestion(), 6)
	require.NoError(t, err)
	require.Equal(t, 1, mock.CallCount())

	req := mock.Calls[0]
	assert.Equal(t, DistractorSchema, req.Schema)
	assert.Equal(t, systemPrompt, req.System)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Question: What is the economic system of the United States?")
	assert.Contains(t, msg, "1. capitalist economy\n2. market economy")
	assert.Contains(t, msg, "Write 6 distractors.")
}

type fakeShared struct {
	mu   sync.Mutex
	data map[string]SharedEntry
	sets int
}

func (f *fakeShared) Get(_ context.Context, key string) (SharedEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.data[key]
	return e, ok, nil
}

func (f *fakeShared) Set(_ context.Context, key string, entry SharedEntry, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = entry
	f.sets++
	return nil
}

func TestGenerate_SharedCache(t *testing.T) {
	shared := &fakeShared{data: map[string]SharedEntry{}}
	mock := llm.NewMockProvider(llm.MockResponse{Content: distractors("x", "y")})

	writer := New(mock, testConfig(), WithSharedCache(shared))
	_, err := writer.Generate(context.Background(), testQuestion(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, shared.sets)

	// A second process with a cold local cache reads through.
	reader := New(mock, testConfig(), WithSharedCache(shared))
	g, err := reader.GenerateWithConfidence(context.Background(), testQuestion(), 2)
	require.NoError(t, err)
	assert.True(t, g.CacheHit)
	assert.Equal(t, []string{"x", "y"}, g.Distractors)
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_SharedHitKeepsOriginalAge(t *testing.T) {
	clk := newFakeClock()
	cfg := testConfig()
	cfg.CacheTTL = time.Hour

	key := CacheKey(testQuestion().Kind, testQuestion().Text, 2)
	shared := &fakeShared{data: map[string]SharedEntry{
		key: {Distractors: []string{"x", "y"}, Confidence: 0.9, StoredAt: clk.Now().Add(-50 * time.Minute)},
	}}
	mock := llm.NewMockProvider()
	mock.Fallback = func(llm.Request) llm.MockResponse { return llm.MockResponse{Content: distractors("fresh", "call")} }
	c := New(mock, cfg, WithSharedCache(shared), WithClock(clk.Now))

	g, err := c.GenerateWithConfidence(context.Background(), testQuestion(), 2)
	require.NoError(t, err)
	assert.True(t, g.CacheHit)
	assert.Equal(t, 0, mock.CallCount())

	// Eleven minutes later the entry is an hour past its first production,
	// so the local copy has expired along with it.
	clk.Advance(11 * time.Minute)
	shared.mu.Lock()
	shared.data = map[string]SharedEntry{}
	shared.mu.Unlock()
	g, err = c.GenerateWithConfidence(context.Background(), testQuestion(), 2)
	require.NoError(t, err)
	assert.False(t, g.CacheHit)
	assert.Equal(t, []string{"fresh", "call"}, g.Distractors)
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_SharedEntryPastTTLIsIgnored(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.CacheTTL = time.Hour

	key := CacheKey(testQuestion().Kind, testQuestion().Text, 2)
	shared := &fakeShared{data: map[string]SharedEntry{
		key: {Distractors: []string{"stale"}, Confidence: 0.9, StoredAt: now.Add(-2 * time.Hour)},
	}}
	mock := llm.NewMockProvider(llm.MockResponse{Content: distractors("x", "y")})
	c := New(mock, cfg, WithSharedCache(shared), WithClock(func() time.Time { return now }))

	got, err := c.Generate(context.Background(), testQuestion(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, now, shared.data[key].StoredAt)
}

func TestGenerate_WaiterSurvivesOtherCallerCancel(t *testing.T) {
	p := slowMock(200*time.Millisecond, distractors("x", "y"))
	c := New(p, testConfig())

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Generate(first, testQuestion(), 2)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return p.CallCount() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan struct{})
	var got []string
	var secondErr error
	go func() {
		defer close(secondDone)
		got, secondErr = c.Generate(context.Background(), testQuestion(), 2)
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	<-secondDone
	require.NoError(t, secondErr)
	assert.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, 1, p.CallCount())
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		valid, target int
		want          float64
	}{
		{0, 5, 0},
		{1, 10, 0.5},
		{4, 5, 0.72},
		{5, 5, 0.9},
		{10, 5, 0.95},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Confidence(tt.valid, tt.target), 1e-9, "%d/%d", tt.valid, tt.target)
	}
}

func TestParseDistractors_Invalid(t *testing.T) {
	_, err := parseDistractors(json.RawMessage(`not json`))
	var inv *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestBuildList(t *testing.T) {
	assert.Equal(t, "None", buildList(nil, 3))
	assert.Equal(t, "1. a\n2. b", buildList([]string{"a", "b", "c"}, 2))
	assert.True(t, strings.HasPrefix(buildUserMessage(testQuestion(), 5, 0), "Topic: American Government\n"))
}

func TestDistractorSchemaCompiles(t *testing.T) {
	_, err := llm.CompileSchema(DistractorSchema)
	require.NoError(t, err)
}

func TestStats_UsageAcrossAttempts(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: distractors(""), Usage: llm.Usage{InputTokens: 100, OutputTokens: 5, TotalTokens: 105}},
		llm.MockResponse{Content: distractors("Theocracy"), Usage: llm.Usage{InputTokens: 100, OutputTokens: 12, TotalTokens: 112}},
	)
	c := New(mock, testConfig())

	_, err := c.Generate(context.Background(), testQuestion(), 3)
	require.NoError(t, err)
	assert.Equal(t, llm.Usage{InputTokens: 200, OutputTokens: 17, TotalTokens: 217}, c.Stats().Usage)
}
