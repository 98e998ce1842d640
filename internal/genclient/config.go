package genclient

import (
	"time"

	"github.com/talesin/civics100-sub000/internal/llm"
)

// Config controls the generation client.
type Config struct {
	// CacheCapacity bounds the in-process cache.
	CacheCapacity int

	// CacheTTL is how long a cached result stays fresh.
	CacheTTL time.Duration

	// Permits is the number of upstream attempts admitted per Window.
	// Retries take permits too.
	Permits int
	Window  time.Duration

	// CallTimeout bounds a single upstream attempt.
	CallTimeout time.Duration

	Retry llm.RetryConfig

	// MaxTokens is the token budget for the model response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// MaxPromptAnswers caps how many correct answers are listed in the
	// prompt for questions with long answer lists.
	MaxPromptAnswers int
}

// DefaultConfig returns the recommended client settings.
func DefaultConfig() Config {
	return Config{
		CacheCapacity:    1000,
		CacheTTL:         24 * time.Hour,
		Permits:          60,
		Window:           time.Minute,
		CallTimeout:      20 * time.Second,
		Retry:            llm.DefaultRetryConfig(),
		MaxTokens:        512,
		Temperature:      0.7,
		MaxPromptAnswers: 12,
	}
}
