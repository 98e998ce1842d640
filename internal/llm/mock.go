package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for tests and offline runs.
// Canned responses are served in FIFO order, then Fallback answers every
// request. With neither, calls fail as an unavailable provider, so the
// "mock" provider name runs the pipeline on its non-LLM sources.
type MockProvider struct {
	// Delay is waited out before answering. A context that ends first fails
	// the call the way a dropped connection would.
	Delay time.Duration

	Fallback func(Request) MockResponse

	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
	Labels    []CallInfo
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, ok := m.next(ctx, req)

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, &ErrProviderUnavailable{Err: ctx.Err()}
		case <-t.C:
		}
	}

	if !ok {
		return nil, &ErrProviderUnavailable{}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) next(ctx context.Context, req Request) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	m.Labels = append(m.Labels, CallFrom(ctx))

	switch {
	case len(m.responses) > 0:
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, true
	case m.Fallback != nil:
		return m.Fallback(req), true
	}
	return MockResponse{}, false
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
