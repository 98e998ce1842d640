package llm

import "net/http"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// Attribution headers OpenRouter shows on its usage dashboards.
	openRouterReferer = "https://github.com/talesin/civics100-sub000"
	openRouterTitle   = "civics distractors"
)

// openRouterModels maps the friendly names used by the other providers to
// OpenRouter routes, so one CIVICS_OPENROUTER_MODEL value works across
// providers.
var openRouterModels = map[string]string{
	"gemini-flash": "google/gemini-2.5-flash",
	"gpt-4o-mini":  "openai/gpt-4o-mini",
	"claude-haiku": "anthropic/claude-haiku-4.5",
	"llama":        "meta-llama/llama-3.3-70b-instruct",
}

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter's
// OpenAI-compatible API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ErrConfig{Field: "openrouter API key", Err: errMissingKey}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	hc := &http.Client{Transport: attributionTransport{base: http.DefaultTransport}}
	inner := newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, openRouterModels, hc)

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// attributionTransport adds the OpenRouter attribution headers.
type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", openRouterReferer)
	req.Header.Set("X-Title", openRouterTitle)
	return t.base.RoundTrip(req)
}
