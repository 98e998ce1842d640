package genclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(quiz.KindText, "Who makes federal laws?", 5)
	assert.Equal(t, a, CacheKey(quiz.KindText, "  WHO makes   federal laws? ", 5))
	assert.NotEqual(t, a, CacheKey(quiz.KindText, "Who makes federal laws?", 6))
	assert.NotEqual(t, a, CacheKey(quiz.KindSenator, "Who makes federal laws?", 5))
	assert.Len(t, a, 64)
}

func TestCache_TTL(t *testing.T) {
	clk := newFakeClock()
	c := NewCache(10, time.Minute, clk.Now)

	c.Put("k", []string{"a"}, 0.9)
	v, conf, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, v)
	assert.InDelta(t, 0.9, conf, 1e-9)

	clk.Advance(time.Minute)
	_, _, ok = c.Get("k")
	assert.False(t, ok, "entries expire at the TTL")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_ZeroConfidenceNeverStored(t *testing.T) {
	c := NewCache(10, time.Minute, nil)
	c.Put("k", []string{"a"}, 0)
	c.Put("e", nil, 0.9)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_EvictsExpiredThenOldest(t *testing.T) {
	clk := newFakeClock()
	c := NewCache(3, time.Minute, clk.Now)

	c.Put("old", []string{"1"}, 0.9)
	clk.Advance(10 * time.Second)
	c.Put("mid", []string{"2"}, 0.9)
	clk.Advance(10 * time.Second)
	c.Put("new", []string{"3"}, 0.9)

	// Full with nothing expired: the globally oldest goes.
	c.Put("newest", []string{"4"}, 0.9)
	_, _, ok := c.Get("old")
	assert.False(t, ok)
	_, _, ok = c.Get("mid")
	assert.True(t, ok)

	// "mid" (t=10s) expires before "new" (t=20s) and "newest" (t=20s).
	clk.Advance(55 * time.Second)
	c.Put("late", []string{"5"}, 0.9)
	assert.Equal(t, 3, c.Stats().Size)
	_, _, ok = c.Get("new")
	assert.True(t, ok)
	_, _, ok = c.Get("late")
	assert.True(t, ok)

	// Replacing an existing key never evicts.
	before := c.Stats().Evictions
	c.Put("late", []string{"6"}, 0.9)
	assert.Equal(t, before, c.Stats().Evictions)
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(1, time.Minute, nil)
	c.Put("k", []string{"a"}, 0.9)
	v, _, _ := c.Get("k")
	v[0] = "mutated"
	v2, _, _ := c.Get("k")
	assert.Equal(t, "a", v2[0])
}

func TestLimiter_Window(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(2, time.Minute, clk.Now)

	assert.True(t, l.Try())
	clk.Advance(30 * time.Second)
	assert.True(t, l.Try())
	assert.False(t, l.Try())
	assert.Equal(t, 2, l.InWindow())

	// The first permit ages out of the rolling window.
	clk.Advance(30 * time.Second)
	assert.True(t, l.Try())
	assert.False(t, l.Try())
}

func TestLimiter_WaitSuspendsUntilSlotFrees(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond, nil)
	require.NoError(t, l.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiter_WaitHonoursCancellation(t *testing.T) {
	l := NewLimiter(1, time.Hour, nil)
	require.True(t, l.Try())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InWindow(), "a cancelled wait takes no permit")
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0, time.Minute, nil)
	for range 100 {
		require.True(t, l.Try())
	}
}

func TestLimiter_ConcurrentNeverOvershoots(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(10, time.Minute, clk.Now)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Try() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, granted)
}

func TestCache_PutAtAgesFromProduction(t *testing.T) {
	clk := newFakeClock()
	c := NewCache(10, time.Minute, clk.Now)

	c.PutAt("old", []string{"a"}, 0.9, clk.Now().Add(-40*time.Second))
	_, _, ok := c.Get("old")
	require.True(t, ok)

	clk.Advance(20 * time.Second)
	_, _, ok = c.Get("old")
	assert.False(t, ok, "expires a TTL after production, not after insertion")

	c.PutAt("expired", []string{"b"}, 0.9, clk.Now().Add(-2*time.Minute))
	assert.Equal(t, 1, c.Stats().Size, "already-expired results are not stored")
}
