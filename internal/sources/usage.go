package sources

import (
	"slices"
	"sync"

	"github.com/talesin/civics100-sub000/internal/quiz"
)

// UsageTracker counts how often each text has been emitted as a distractor
// during a run, so pool and sibling candidates can be spread across
// questions. It is safe for concurrent use; a nil tracker counts nothing.
type UsageTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{counts: make(map[string]int)}
}

// Record increments the count of each text.
func (u *UsageTracker) Record(texts ...string) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, t := range texts {
		u.counts[quiz.Normalize(t)]++
	}
}

// Count returns how often text has been recorded.
func (u *UsageTracker) Count(text string) int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[quiz.Normalize(text)]
}

// Order returns texts sorted by ascending usage. Ties keep their input order.
func (u *UsageTracker) Order(texts []string) []string {
	out := slices.Clone(texts)
	if u == nil {
		return out
	}

	u.mu.Lock()
	counts := make(map[string]int, len(out))
	for _, t := range out {
		counts[t] = u.counts[quiz.Normalize(t)]
	}
	u.mu.Unlock()

	slices.SortStableFunc(out, func(a, b string) int {
		return counts[a] - counts[b]
	})
	return out
}
