package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrCitationLeak is returned when a generation cites a source ID that was
// not part of the numbered context.
var ErrCitationLeak = errors.New("citation leak")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces one answer at the requested temperature
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one generation
type GenerateRequest struct {
	// Prompt is the user message, usually built by BuildAnswerPrompt
	Prompt string

	// System overrides the default system prompt
	System string

	// Temperature is passed through unchanged; callers vary it per sample
	Temperature float64

	// AllowedCitations is the STRICT allowlist of citation IDs (N1..Nk)
	// the model may cite. Empty disables the check for this request.
	AllowedCitations []string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// GenerateResponse contains one generated answer
type GenerateResponse struct {
	// Text is the generated answer
	Text string

	// CitedIDs are the citation IDs the answer contains, in order of first use
	CitedIDs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictCitations enforces the citation allowlist
	StrictCitations bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:        "", // Disabled by default
		Timeout:         30,
		StrictCitations: true,
		MaxTokens:       1000,
	}
}

// maxTokens resolves the token limit for a request.
func (c Config) maxTokens(req GenerateRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func systemPrompt(req GenerateRequest) string {
	if req.System != "" {
		return req.System
	}
	return DefaultSystemPrompt
}

// checkCitations extracts the cited IDs from text and, in strict mode,
// rejects any ID outside the allowlist.
func checkCitations(text string, allowed []string, strict bool) ([]string, error) {
	cited := citedIDs(text)
	if !strict || len(allowed) == 0 {
		return cited, nil
	}
	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}
	for _, id := range cited {
		if !allow[id] {
			return cited, fmt.Errorf("%w: model cited unknown source %s", ErrCitationLeak, id)
		}
	}
	return cited, nil
}
