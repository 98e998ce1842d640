package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a model.
//
// When Request.Schema is set the returned Content has already been
// validated against it.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single model call.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the provider's native structured output. Nil means
	// free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero is deterministic.
	Temperature float64
}

// Prompt builds a single-turn request: one system prompt and one user
// message answered against schema.
func Prompt(system, user string, schema *Schema) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
		Schema:   schema,
	}
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name is kebab-case and doubles as the
// OpenAI schema name and the compile cache key.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completed call.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the call, which may differ
	// from the configured alias.
	Model string

	// StopReason is "end", "max_tokens" or "error".
	StopReason string
}

// Usage is the token count for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}
