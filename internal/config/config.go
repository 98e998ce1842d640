// Package config assembles the application settings from a .env file,
// CIVICS_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/talesin/civics100-sub000/internal/filter"
	"github.com/talesin/civics100-sub000/internal/genclient"
	"github.com/talesin/civics100-sub000/internal/llm"
	"github.com/talesin/civics100-sub000/internal/strategy"
)

// Config holds every setting a run consumes.
type Config struct {
	Target      int `validate:"min=5,max=20"`
	Concurrency int `validate:"min=1,max=100"`

	LLMEnabled        bool
	SimilarityEnabled bool
	Standardize       bool
	FilterMode        string  `validate:"oneof=strict lenient"`
	CostCeiling       float64 `validate:"gte=0"`

	CacheCapacity int           `validate:"min=1"`
	CacheTTL      time.Duration `validate:"gt=0"`
	Permits       int           `validate:"min=1"`
	RetryAttempts int           `validate:"min=1,max=10"`
	RetryBaseWait time.Duration `validate:"gt=0"`
	CallTimeout   time.Duration `validate:"gt=0"`
	RedisURL      string        `validate:"omitempty,url"`

	QuestionsPath string
	CuratedPath   string
	PoolsPath     string
	OutputPath    string

	ListenAddr string `validate:"required"`

	LLM llm.Config `validate:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	gc := genclient.DefaultConfig()
	return Config{
		Target:            8,
		Concurrency:       10,
		LLMEnabled:        true,
		SimilarityEnabled: true,
		Standardize:       true,
		FilterMode:        "strict",
		CostCeiling:       strategy.DefaultCostCeiling,
		CacheCapacity:     gc.CacheCapacity,
		CacheTTL:          gc.CacheTTL,
		Permits:           gc.Permits,
		RetryAttempts:     gc.Retry.MaxAttempts,
		RetryBaseWait:     gc.Retry.InitialWait,
		CallTimeout:       gc.CallTimeout,
		QuestionsPath:     "questions.json",
		OutputPath:        "distractors.json",
		ListenAddr:        ":8080",
		LLM:               llm.DefaultConfig(),
	}
}

// Load reads envFile (when it exists) into the process environment and
// builds a Config from it. An empty envFile means ".env". The result is
// not validated, so callers can apply flag overrides first.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, &llm.ErrConfig{Field: envFile, Err: err}
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment over the defaults.
func FromEnv() (Config, error) {
	c := Defaults()
	e := envReader{}

	c.Target = e.getInt("CIVICS_TARGET", c.Target)
	c.Concurrency = e.getInt("CIVICS_CONCURRENCY", c.Concurrency)
	c.LLMEnabled = e.getBool("CIVICS_LLM_ENABLED", c.LLMEnabled)
	c.SimilarityEnabled = e.getBool("CIVICS_SIMILARITY_ENABLED", c.SimilarityEnabled)
	c.Standardize = e.getBool("CIVICS_STANDARDIZE", c.Standardize)
	c.FilterMode = e.getString("CIVICS_FILTER_MODE", c.FilterMode)
	c.CostCeiling = e.getFloat("CIVICS_COST_CEILING", c.CostCeiling)
	c.CacheCapacity = e.getInt("CIVICS_CACHE_CAPACITY", c.CacheCapacity)
	c.CacheTTL = e.getDuration("CIVICS_CACHE_TTL", c.CacheTTL)
	c.Permits = e.getInt("CIVICS_RATE_PERMITS", c.Permits)
	c.RetryAttempts = e.getInt("CIVICS_RETRY_ATTEMPTS", c.RetryAttempts)
	c.RetryBaseWait = e.getDuration("CIVICS_RETRY_BASE_WAIT", c.RetryBaseWait)
	c.CallTimeout = e.getDuration("CIVICS_CALL_TIMEOUT", c.CallTimeout)
	c.RedisURL = e.getString("CIVICS_REDIS_URL", c.RedisURL)
	c.QuestionsPath = e.getString("CIVICS_QUESTIONS", c.QuestionsPath)
	c.CuratedPath = e.getString("CIVICS_CURATED", c.CuratedPath)
	c.PoolsPath = e.getString("CIVICS_POOLS", c.PoolsPath)
	c.OutputPath = e.getString("CIVICS_OUTPUT", c.OutputPath)
	c.ListenAddr = e.getString("CIVICS_LISTEN", c.ListenAddr)
	if err := e.err(); err != nil {
		return Config{}, err
	}

	// An explicit provider wins; otherwise use the first standard API key
	// found.
	if os.Getenv("CIVICS_LLM_PROVIDER") != "" {
		c.LLM = llm.ConfigFromEnv()
	} else if discovered, ok := llm.DiscoverConfig(); ok {
		c.LLM = discovered
	} else {
		c.LLM = llm.ConfigFromEnv()
	}
	return c, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and, when generation is enabled, the provider
// credentials. Failures are *llm.ErrConfig.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return &llm.ErrConfig{Field: verrs[0].Field(), Err: errors.New(strings.Join(msgs, "; "))}
		}
		return &llm.ErrConfig{Err: err}
	}
	if c.LLMEnabled {
		llmCfg := c.LLM
		llmCfg.Retry = c.GenClient().Retry
		if err := llmCfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be positive", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL", fe.Field())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// GenClient returns the generation client settings.
func (c Config) GenClient() genclient.Config {
	gc := genclient.DefaultConfig()
	gc.CacheCapacity = c.CacheCapacity
	gc.CacheTTL = c.CacheTTL
	gc.Permits = c.Permits
	gc.CallTimeout = c.CallTimeout
	gc.Retry.MaxAttempts = c.RetryAttempts
	gc.Retry.InitialWait = c.RetryBaseWait
	return gc
}

// Filter returns the filter settings.
func (c Config) Filter() filter.Config {
	fc := filter.DefaultConfig()
	fc.SimilarityEnabled = c.SimilarityEnabled
	fc.Standardize = c.Standardize
	if c.FilterMode == "lenient" {
		fc.Mode = filter.ModeLenient
	}
	return fc
}

// Selector returns the strategy selector settings.
func (c Config) Selector() strategy.SelectorConfig {
	return strategy.SelectorConfig{LLMEnabled: c.LLMEnabled, CostCeiling: c.CostCeiling}
}

// envReader parses typed variables and keeps the first malformed one.
type envReader struct {
	first error
}

func (e *envReader) err() error { return e.first }

func (e *envReader) fail(key, val string, err error) {
	if e.first == nil {
		e.first = &llm.ErrConfig{Field: key, Err: fmt.Errorf("invalid value %q: %w", val, err)}
	}
}

func (e *envReader) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *envReader) getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}
