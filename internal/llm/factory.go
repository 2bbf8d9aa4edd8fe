package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

type constructor func(Config) (Provider, error)

// constructors maps provider names, including aliases, to their constructors.
var constructors = map[string]constructor{
	"openai":    func(c Config) (Provider, error) { return NewOpenAIProvider(c) },
	"anthropic": func(c Config) (Provider, error) { return NewAnthropicProvider(c) },
	"claude":    func(c Config) (Provider, error) { return NewAnthropicProvider(c) },
	"ollama":    func(c Config) (Provider, error) { return NewOllamaProvider(c) },
}

// NewProvider builds the provider named by config.Provider. An empty name
// disables generation and yields a nil Provider with no error.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if name == "" {
		return nil, nil
	}
	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q (supported: %s)", config.Provider, strings.Join(providerNames(), ", "))
	}
	return build(config)
}

func providerNames() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigFromModel maps the file config onto provider settings.
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:        c.Provider,
		Model:           c.Model,
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		Timeout:         c.Timeout,
		StrictCitations: c.StrictCitations,
		MaxTokens:       c.MaxTokens,
		HTTPProxy:       c.HTTPProxy,
		HTTPSProxy:      c.HTTPSProxy,
	}
}
