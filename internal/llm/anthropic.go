package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	anthropicURL     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	anthropicModel   = "claude-3-5-haiku-20241022"
)

// AnthropicProvider generates answers with the Anthropic Messages API.
type AnthropicProvider struct {
	api    *jsonAPI
	config Config
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Model   string           `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// text concatenates the text blocks of a reply.
func (r *anthropicResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func describeAnthropicError(body []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil || e.Error.Message == "" {
		return ""
	}
	return e.Error.Type + " - " + e.Error.Message
}

// NewAnthropicProvider creates an Anthropic provider. An API key is required.
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	base := config.BaseURL
	if base == "" {
		base = anthropicURL
	}

	api := newJSONAPI(newHTTPClient(config, 30*time.Second), base, describeAnthropicError)
	api.headers.Set("x-api-key", config.APIKey)
	api.headers.Set("anthropic-version", anthropicVersion)

	return &AnthropicProvider{api: api, config: config}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable sends a one-word message and reports whether it succeeded.
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	probe := anthropicRequest{
		Model:     p.modelFor(""),
		MaxTokens: 10,
		Messages:  []anthropicMessage{{Role: "user", Content: "Hi"}},
	}
	var resp anthropicResponse
	return p.api.post(ctx, "/v1/messages", probe, &resp) == nil
}

// Generate produces one answer at req.Temperature.
func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	call := anthropicRequest{
		Model:       p.modelFor(req.Model),
		MaxTokens:   p.config.maxTokens(req),
		System:      systemPrompt(req),
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}

	var resp anthropicResponse
	if err := p.api.post(ctx, "/v1/messages", call, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("anthropic: reply has no content")
	}

	text := resp.text()
	cited, err := checkCitations(text, req.AllowedCitations, p.config.StrictCitations)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{
		Text:       text,
		CitedIDs:   cited,
		Model:      resp.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (p *AnthropicProvider) modelFor(override string) string {
	for _, m := range []string{override, p.config.Model} {
		if m != "" {
			return m
		}
	}
	return anthropicModel
}
