package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider generates answers with the Chat Completions API. BaseURL
// may point at any OpenAI-compatible server.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates an OpenAI provider. An API key is required.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	cc := openai.DefaultConfig(config.APIKey)
	cc.HTTPClient = newHTTPClient(config, 30*time.Second)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cc), config: config}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable lists models, the cheapest authenticated call.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Generate produces one answer at req.Temperature.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	name := openai.GPT4oMini
	if req.Model != "" {
		name = req.Model
	} else if p.config.Model != "" {
		name = p.config.Model
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       name,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: chatTemperature(req.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: reply has no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	cited, err := checkCitations(text, req.AllowedCitations, p.config.StrictCitations)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{
		Text:       text,
		CitedIDs:   cited,
		Model:      name,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// chatTemperature maps 0 to the smallest positive float32. The request field
// is omitempty, so a literal 0 would fall back to the API default of 1.
func chatTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
