// Package genclient wraps an LLM provider with the rate limiting, caching
// and retry needed to generate distractors for many questions at once.
package genclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/quiz"
)

const purpose = "distractors"

// Generation is the outcome of one Generate call.
type Generation struct {
	Distractors []string
	Confidence  float64
	CacheHit    bool
}

// Stats is a point-in-time view of the client counters.
type Stats struct {
	Cache    CacheStats `json:"cache"`
	Attempts int64      `json:"upstream_attempts"`
	Failures int64      `json:"failures"`
	InWindow int        `json:"permits_in_window"`
	Usage    llm.Usage  `json:"usage"`
}

// Client is the resilient generation client. It is safe for concurrent use.
type Client struct {
	provider llm.Provider
	cfg      Config
	cache    *Cache
	shared   SharedCache
	limiter  *Limiter
	flights  singleflight.Group
	log      *zap.Logger

	attempts atomic.Int64
	failures atomic.Int64

	usageMu sync.Mutex
	usage   llm.Usage
}

// Option customises a Client.
type Option func(*Client)

// WithSharedCache adds a second cache tier behind the in-process cache.
func WithSharedCache(sc SharedCache) Option {
	return func(c *Client) { c.shared = sc }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock replaces the clock used by the cache and limiter.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.cache = NewCache(c.cfg.CacheCapacity, c.cfg.CacheTTL, now)
		c.limiter = NewLimiter(c.cfg.Permits, c.cfg.Window, now)
	}
}

// New creates a Client around provider.
func New(provider llm.Provider, cfg Config, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		cfg:      cfg,
		cache:    NewCache(cfg.CacheCapacity, cfg.CacheTTL, nil),
		limiter:  NewLimiter(cfg.Permits, cfg.Window, nil),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("genclient")
	return c
}

// Generate returns distractors for q.
func (c *Client) Generate(ctx context.Context, q quiz.Question, target int) ([]string, error) {
	g, err := c.GenerateWithConfidence(ctx, q, target)
	if err != nil {
		return nil, err
	}
	return g.Distractors, nil
}

// GenerateWithConfidence returns distractors for q together with how fully
// the response met target. Fresh cache hits make no upstream call, and
// concurrent misses on one key share a single call.
func (c *Client) GenerateWithConfidence(ctx context.Context, q quiz.Question, target int) (Generation, error) {
	if target <= 0 {
		return Generation{}, fmt.Errorf("target must be positive, got %d", target)
	}

	key := CacheKey(q.Kind, q.Text, target)
	if v, conf, ok := c.cache.Get(key); ok {
		return Generation{Distractors: v, Confidence: conf, CacheHit: true}, nil
	}

	// The flight outlives any one waiter: each waiter gives up on its own
	// context, and the call itself is bounded by the per-attempt timeouts
	// and the retry ceiling.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.fill(flightCtx, key, q, target)
	})
	select {
	case <-ctx.Done():
		return Generation{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Generation{}, r.Err
		}
		g := r.Val.(Generation)
		g.Distractors = append([]string(nil), g.Distractors...)
		return g, nil
	}
}

// fill runs once per key at a time. It rechecks the cache, since a flight
// that finished just before this one started may already have stored it.
func (c *Client) fill(ctx context.Context, key string, q quiz.Question, target int) (Generation, error) {
	if v, conf, ok := c.cache.peek(key); ok {
		return Generation{Distractors: v, Confidence: conf, CacheHit: true}, nil
	}

	if c.shared != nil {
		e, ok, err := c.shared.Get(ctx, key)
		if err != nil {
			c.log.Warn("shared cache read failed", zap.Error(err))
		}
		if ok && c.cache.Now().Sub(e.StoredAt) < c.cfg.CacheTTL {
			c.cache.PutAt(key, e.Distractors, e.Confidence, e.StoredAt)
			return Generation{Distractors: e.Distractors, Confidence: e.Confidence, CacheHit: true}, nil
		}
	}

	distractors, err := c.call(ctx, q, target)
	if err != nil {
		c.failures.Add(1)
		c.log.Debug("generation failed",
			zap.String("question", q.ID),
			zap.String("kind", string(llm.Classify(err))),
			zap.Error(err))
		return Generation{}, err
	}

	conf := Confidence(len(distractors), target)
	c.cache.Put(key, distractors, conf)
	if c.shared != nil {
		entry := SharedEntry{Distractors: distractors, Confidence: conf, StoredAt: c.cache.Now()}
		if err := c.shared.Set(ctx, key, entry, c.cfg.CacheTTL); err != nil {
			c.log.Warn("shared cache write failed", zap.Error(err))
		}
	}
	return Generation{Distractors: distractors, Confidence: conf}, nil
}

// call performs the upstream request under the retry policy. Every attempt
// takes a limiter permit and runs under its own timeout.
func (c *Client) call(ctx context.Context, q quiz.Question, target int) ([]string, error) {
	ctx = llm.WithCall(ctx, llm.CallInfo{Purpose: purpose, QuestionID: q.ID})
	req := llm.Prompt(systemPrompt, buildUserMessage(q, target, c.cfg.MaxPromptAnswers), DistractorSchema)
	req.MaxTokens = c.cfg.MaxTokens
	req.Temperature = c.cfg.Temperature

	var out []string
	err := llm.Do(ctx, c.cfg.Retry, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		c.attempts.Add(1)

		callCtx := llm.WithCall(ctx, llm.CallInfo{Purpose: purpose, QuestionID: q.ID, Attempt: attempt + 1})
		if c.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, c.cfg.CallTimeout)
			defer cancel()
		}

		resp, err := c.provider.Generate(callCtx, req)
		if err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return &llm.ErrTimeout{After: c.cfg.CallTimeout, Err: err}
			}
			return err
		}
		c.addUsage(resp.Usage)

		parsed, err := parseDistractors(resp.Content)
		if err != nil {
			return err
		}
		out = parsed
		return nil
	})
	return out, err
}

type distractorOutput struct {
	Distractors []string `json:"distractors"`
}

// parseDistractors trims, drops empties and dedups case-insensitively.
// A response with no survivors is an error, not an empty success.
func parseDistractors(raw json.RawMessage) ([]string, error) {
	var o distractorOutput
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: raw, Err: fmt.Errorf("parse distractors: %w", err)}
	}

	seen := make(map[string]bool, len(o.Distractors))
	out := make([]string, 0, len(o.Distractors))
	for _, d := range o.Distractors {
		d = strings.TrimSpace(d)
		n := quiz.Normalize(d)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, &llm.ErrEmptyResponse{Content: raw}
	}
	return out, nil
}

// Confidence scores how completely a response met the requested count:
// min(0.95, max(0.5, valid/target*0.9)), and 0 for an empty response.
func Confidence(valid, target int) float64 {
	if valid <= 0 || target <= 0 {
		return 0
	}
	return min(0.95, max(0.5, float64(valid)/float64(target)*0.9))
}

func (c *Client) addUsage(u llm.Usage) {
	c.usageMu.Lock()
	c.usage = c.usage.Add(u)
	c.usageMu.Unlock()
}

// Stats returns the client counters.
func (c *Client) Stats() Stats {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return Stats{
		Cache:    c.cache.Stats(),
		Attempts: c.attempts.Load(),
		Failures: c.failures.Load(),
		InWindow: c.limiter.InWindow(),
		Usage:    c.usage,
	}
}
