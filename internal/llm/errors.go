package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrConfig indicates missing or malformed provider settings. It is detected
// once at startup and is fatal to the run.
type ErrConfig struct {
	Field string
	Err   error
}

func (e *ErrConfig) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("llm configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("llm configuration: %v", e.Err)
}

func (e *ErrConfig) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected the credentials (401/403).
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM provider rejected credentials: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTimeout indicates a single upstream call exceeded its deadline.
type ErrTimeout struct {
	After time.Duration
	Err   error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM call timed out after %s", e.After)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates a schema-valid response that carried no usable
// strings after trimming. It counts as a failed call, not an empty success.
type ErrEmptyResponse struct {
	Content json.RawMessage
}

func (e *ErrEmptyResponse) Error() string {
	return "LLM response contained no usable distractors"
}

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrorKind is the retry-relevant classification of an error.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindConfig    ErrorKind = "config"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindTimeout   ErrorKind = "timeout"
	KindUpstream  ErrorKind = "upstream"
	KindInvalid   ErrorKind = "invalid_response"
	KindEmpty     ErrorKind = "empty_response"
	KindMaxTokens ErrorKind = "max_tokens"
	KindCanceled  ErrorKind = "canceled"
)

// Classify maps an error onto its ErrorKind. Unknown errors are treated as
// generic upstream failures.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		cfgErr   *ErrConfig
		authErr  *ErrAuth
		rlErr    *ErrRateLimit
		toErr    *ErrTimeout
		invErr   *ErrInvalidResponse
		emptyErr *ErrEmptyResponse
		maxErr   *ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfig
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &toErr):
		return KindTimeout
	case errors.As(err, &rlErr):
		return KindRateLimit
	case errors.As(err, &emptyErr):
		return KindEmpty
	case errors.As(err, &invErr):
		return KindInvalid
	case errors.As(err, &maxErr):
		return KindMaxTokens
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindUpstream
}
