package genclient

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

// CacheKey derives the deterministic key for a generation request.
func CacheKey(kind quiz.AnswerKind, text string, target int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", kind, quiz.Normalize(text), target)))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	key        string
	value      []string
	confidence float64
	insertedAt time.Time
}

// CacheStats is a point-in-time view of cache counters.
type CacheStats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Cache is a bounded TTL cache of generation results. Entries are replaced
// wholesale, never mutated. When full, expired entries are evicted first,
// then the oldest.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits, misses, evictions uint64
}

// NewCache creates a cache. A nil clock uses time.Now, whose readings carry
// a monotonic component.
func NewCache(capacity int, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:  make(map[string]cacheEntry),
		capacity: max(capacity, 1),
		ttl:      ttl,
		now:      now,
	}
}

// Get returns a fresh entry: present, younger than the TTL and with a
// positive confidence.
func (c *Cache) Get(key string) ([]string, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e, c.now()) {
		c.misses++
		return nil, 0, false
	}
	c.hits++
	return slices.Clone(e.value), e.confidence, true
}

// peek is Get without touching the hit and miss counters.
func (c *Cache) peek(key string) ([]string, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e, c.now()) {
		return nil, 0, false
	}
	return slices.Clone(e.value), e.confidence, true
}

// Put stores a result. Zero-confidence results are never cached.
func (c *Cache) Put(key string, value []string, confidence float64) {
	c.PutAt(key, value, confidence, time.Time{})
}

// PutAt stores a result that was first produced at producedAt, so it
// expires a TTL after that moment rather than after now. A zero producedAt
// means now. Results already past the TTL are not stored.
func (c *Cache) PutAt(key string, value []string, confidence float64, producedAt time.Time) {
	if confidence <= 0 || len(value) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if producedAt.IsZero() || producedAt.After(now) {
		producedAt = now
	}
	e := cacheEntry{
		key:        key,
		value:      slices.Clone(value),
		confidence: confidence,
		insertedAt: producedAt,
	}
	if !c.fresh(e, now) {
		return
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evict(now)
	}
	c.entries[key] = e
}

// Now reads the cache clock.
func (c *Cache) Now() time.Time {
	return c.now()
}

// evict frees at least one slot. Called with mu held.
func (c *Cache) evict(now time.Time) {
	for k, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, k)
			c.evictions++
		}
	}
	if len(c.entries) < c.capacity {
		return
	}

	var oldest *cacheEntry
	for _, e := range c.entries {
		if oldest == nil || e.insertedAt.Before(oldest.insertedAt) {
			oldest = &e
		}
	}
	if oldest != nil {
		delete(c.entries, oldest.key)
		c.evictions++
	}
}

func (c *Cache) fresh(e cacheEntry, now time.Time) bool {
	return e.confidence > 0 && now.Sub(e.insertedAt) < c.ttl
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
