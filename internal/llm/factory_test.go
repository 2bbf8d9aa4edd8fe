package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/ragcore/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "disabled", config: Config{}, wantNil: true},
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}, wantName: "openai"},
		{name: "claude alias", config: Config{Provider: "Claude", APIKey: "k"}, wantName: "anthropic"},
		{name: "ollama", config: Config{Provider: "ollama"}, wantName: "ollama"},
		{name: "openai without key", config: Config{Provider: "openai"}, wantErr: true},
		{name: "unknown", config: Config{Provider: "bard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Fatalf("Expected nil provider, got %T", p)
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	mc := model.DefaultConfig().LLM
	mc.Provider = "openai"
	mc.APIKey = "secret"

	c := ConfigFromModel(mc)
	if c.Provider != "openai" || c.APIKey != "secret" || !c.StrictCitations {
		t.Errorf("Unexpected config: %+v", c)
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	sources := []model.Citation{
		{CID: "N1", Snippet: "Chunks overlap by fifty characters."},
		{CID: "N2", Snippet: "The cache sweeps every minute."},
	}

	prompt := BuildAnswerPrompt("  How big is the overlap? ", sources)

	for _, want := range []string{"[N1] Chunks overlap", "[N2] The cache sweeps", "Question: How big is the overlap?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q:\n%s", want, prompt)
		}
	}
	if got := AllowedCitations(sources); len(got) != 2 || got[1] != "N2" {
		t.Errorf("Unexpected allowed citations: %v", got)
	}

	if !strings.Contains(BuildAnswerPrompt("q", nil), "No sources available") {
		t.Error("Expected placeholder for empty sources")
	}
}
