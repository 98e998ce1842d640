package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// ShouldRetry reports whether an error of the given kind may be retried.
// rateLimited is the number of rate-limit errors seen so far in this call,
// including the current one.
func ShouldRetry(kind ErrorKind, rateLimited int, cfg RetryConfig) bool {
	switch kind {
	case KindNone, KindConfig, KindAuth, KindCanceled, KindMaxTokens:
		return false
	case KindRateLimit:
		return rateLimited <= cfg.MaxRateLimitRetries
	default:
		// Timeouts, upstream failures, invalid and empty responses.
		return true
	}
}

// Backoff returns the un-jittered wait before the retry that follows the
// given zero-based attempt.
func Backoff(attempt int, err error, cfg RetryConfig) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}
	return time.Duration(wait)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The attempt number passed to fn is zero-based.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	rateLimited := 0
	attempts := max(cfg.MaxAttempts, 1)

	for attempt := range attempts {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := Classify(err)
		if kind == KindRateLimit {
			rateLimited++
		}
		if !ShouldRetry(kind, rateLimited, cfg) {
			return err
		}

		// Last attempt: no sleep.
		if attempt == attempts-1 {
			break
		}

		wait := jitter(Backoff(attempt, err, cfg), cfg.Jitter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

func jitter(wait time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return wait
	}
	w := float64(wait)
	w += w * frac * (2*rand.Float64() - 1)
	if w < 0 {
		w = 0
	}
	return time.Duration(w)
}
