package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/ragcore/internal/model"
)

const ollamaURL = "http://localhost:11434"

// OllamaProvider generates answers with a local Ollama server.
type OllamaProvider struct {
	api    *jsonAPI
	config Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	// Reported once done is true.
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

func describeOllamaError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}

// NewOllamaProvider creates an Ollama provider. No key is needed.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	base := config.BaseURL
	if base == "" {
		base = ollamaURL
	}
	// Local models load slowly on first use.
	client := newHTTPClient(config, 60*time.Second)
	return &OllamaProvider{
		api:    newJSONAPI(client, base, describeOllamaError),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the server answers its model listing.
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.api.ping(ctx, "/api/tags")
}

// Generate produces one answer at req.Temperature.
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	name := req.Model
	if name == "" {
		name = p.config.Model
	}
	if name == "" {
		return nil, errors.New("ollama: model must be specified (e.g. llama3.1:8b)")
	}

	call := ollamaRequest{
		Model:  name,
		Prompt: req.Prompt,
		System: systemPrompt(req),
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  p.config.maxTokens(req),
		},
	}

	var resp ollamaResponse
	if err := p.api.post(ctx, "/api/generate", call, &resp); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(resp.Response)
	cited, err := checkCitations(text, req.AllowedCitations, p.config.StrictCitations)
	if err != nil {
		return nil, err
	}

	used := resp.PromptEvalCount + resp.EvalCount
	if used == 0 {
		// Some models omit the counters.
		used = model.EstimateTokens(req.Prompt) + model.EstimateTokens(text)
	}
	return &GenerateResponse{Text: text, CitedIDs: cited, Model: resp.Model, TokensUsed: used}, nil
}
