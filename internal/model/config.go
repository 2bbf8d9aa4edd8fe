package model

import (
	"fmt"
	"time"
)

// Config is the root ragcore configuration
type Config struct {
	Chunking    ChunkingConfig    `yaml:"chunking" mapstructure:"chunking"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Matching    MatchingConfig    `yaml:"matching" mapstructure:"matching"`
	Consistency ConsistencyConfig `yaml:"consistency" mapstructure:"consistency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// ChunkingConfig holds the chunk size constants (characters).
type ChunkingConfig struct {
	TargetSize     int `yaml:"target_size" mapstructure:"target_size"`
	MinSize        int `yaml:"min_size" mapstructure:"min_size"`
	MaxSize        int `yaml:"max_size" mapstructure:"max_size"`
	Overlap        int `yaml:"overlap" mapstructure:"overlap"`
	MaxNoteChars   int `yaml:"max_note_chars" mapstructure:"max_note_chars"`     // Input ceiling; longer notes are truncated
	EmbedBatchSize int `yaml:"embed_batch_size" mapstructure:"embed_batch_size"` // Texts per EmbedBatch call
	WriteBatchSize int `yaml:"write_batch_size" mapstructure:"write_batch_size"` // Chunks per SaveChunks call
}

// CacheConfig configures the chunk-document and retrieval-result caches.
type CacheConfig struct {
	Enabled              bool          `yaml:"enabled" mapstructure:"enabled"`
	ChunkTTL             time.Duration `yaml:"chunk_ttl" mapstructure:"chunk_ttl"`
	ChunkMaxSize         int           `yaml:"chunk_max_size" mapstructure:"chunk_max_size"`
	RetrievalTTL         time.Duration `yaml:"retrieval_ttl" mapstructure:"retrieval_ttl"`
	RetrievalMaxSize     int           `yaml:"retrieval_max_size" mapstructure:"retrieval_max_size"`
	BatchEvictionPercent float64       `yaml:"batch_eviction_percent" mapstructure:"batch_eviction_percent"`
	FrequencyWeight      float64       `yaml:"frequency_weight" mapstructure:"frequency_weight"`
	RecencyWeight        float64       `yaml:"recency_weight" mapstructure:"recency_weight"`
	SweepInterval        time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	EmbeddingMemoTTL     time.Duration `yaml:"embedding_memo_ttl" mapstructure:"embedding_memo_ttl"`
}

// MatchingConfig configures claim-to-source matching.
type MatchingConfig struct {
	SemanticEnabled         bool    `yaml:"semantic_enabled" mapstructure:"semantic_enabled"`
	SemanticWeight          float64 `yaml:"semantic_weight" mapstructure:"semantic_weight"`
	LexicalWeight           float64 `yaml:"lexical_weight" mapstructure:"lexical_weight"`
	SupportThreshold        float64 `yaml:"support_threshold" mapstructure:"support_threshold"`
	WeakConfidenceThreshold float64 `yaml:"weak_confidence_threshold" mapstructure:"weak_confidence_threshold"`
	MaxResponseChars        int     `yaml:"max_response_chars" mapstructure:"max_response_chars"`
	MaxAlternatives         int     `yaml:"max_alternatives" mapstructure:"max_alternatives"`
}

// ConsistencyConfig configures self-consistency sampling and scoring.
type ConsistencyConfig struct {
	NumSamples            int     `yaml:"num_samples" mapstructure:"num_samples"`
	BaseTemperature       float64 `yaml:"base_temperature" mapstructure:"base_temperature"`
	TemperatureVariance   float64 `yaml:"temperature_variance" mapstructure:"temperature_variance"`
	MinConsensusThreshold float64 `yaml:"min_consensus_threshold" mapstructure:"min_consensus_threshold"`
	CitationWeight        float64 `yaml:"citation_weight" mapstructure:"citation_weight"`
	SimilarityWeight      float64 `yaml:"similarity_weight" mapstructure:"similarity_weight"`
	PresenceWeight        float64 `yaml:"presence_weight" mapstructure:"presence_weight"`
}

// LLMConfig configures the answer-generation provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// StrictCitations rejects generations that cite a source ID outside the
	// numbered context handed to the model.
	StrictCitations bool   `yaml:"strict_citations" mapstructure:"strict_citations"`
	HTTPProxy       string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy      string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, "" (disabled)
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimensions int    `yaml:"dimensions,omitempty" mapstructure:"dimensions"`
}

// StoreConfig selects the chunk store.
type StoreConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"` // memory, sqlite
	DataDir string `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// ConcurrencyConfig bounds outbound calls.
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			TargetSize:     500,
			MinSize:        100,
			MaxSize:        800,
			Overlap:        50,
			MaxNoteChars:   200_000,
			EmbedBatchSize: 16,
			WriteBatchSize: 100,
		},
		Cache: CacheConfig{
			Enabled:              true,
			ChunkTTL:             5 * time.Minute,
			ChunkMaxSize:         1000,
			RetrievalTTL:         2 * time.Minute,
			RetrievalMaxSize:     500,
			BatchEvictionPercent: 0.1,
			FrequencyWeight:      0.4,
			RecencyWeight:        0.6,
			SweepInterval:        time.Minute,
			EmbeddingMemoTTL:     10 * time.Minute,
		},
		Matching: MatchingConfig{
			SemanticEnabled:         true,
			SemanticWeight:          0.6,
			LexicalWeight:           0.4,
			SupportThreshold:        InferredMatchThreshold,
			WeakConfidenceThreshold: 0.5,
			MaxResponseChars:        50_000,
			MaxAlternatives:         3,
		},
		Consistency: ConsistencyConfig{
			NumSamples:            3,
			BaseTemperature:       0.7,
			TemperatureVariance:   0.1,
			MinConsensusThreshold: 0.6,
			CitationWeight:        0.5,
			SimilarityWeight:      0.3,
			PresenceWeight:        0.2,
		},
		LLM: LLMConfig{
			Provider:        "",
			Timeout:         30,
			MaxTokens:       1000,
			StrictCitations: true,
		},
		Embedding: EmbeddingConfig{
			Provider: "",
			Model:    "text-embedding-3-small",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 5,
			Burst:             5,
		},
	}
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Chunking.TargetSize == 0 {
		c.Chunking.TargetSize = d.Chunking.TargetSize
	}
	if c.Chunking.MinSize == 0 {
		c.Chunking.MinSize = d.Chunking.MinSize
	}
	if c.Chunking.MaxSize == 0 {
		c.Chunking.MaxSize = d.Chunking.MaxSize
	}
	if c.Chunking.MaxNoteChars == 0 {
		c.Chunking.MaxNoteChars = d.Chunking.MaxNoteChars
	}
	if c.Chunking.EmbedBatchSize == 0 {
		c.Chunking.EmbedBatchSize = d.Chunking.EmbedBatchSize
	}
	if c.Chunking.WriteBatchSize == 0 {
		c.Chunking.WriteBatchSize = d.Chunking.WriteBatchSize
	}
	if c.Cache.ChunkTTL == 0 {
		c.Cache.ChunkTTL = d.Cache.ChunkTTL
	}
	if c.Cache.ChunkMaxSize == 0 {
		c.Cache.ChunkMaxSize = d.Cache.ChunkMaxSize
	}
	if c.Cache.RetrievalTTL == 0 {
		c.Cache.RetrievalTTL = d.Cache.RetrievalTTL
	}
	if c.Cache.RetrievalMaxSize == 0 {
		c.Cache.RetrievalMaxSize = d.Cache.RetrievalMaxSize
	}
	if c.Cache.BatchEvictionPercent == 0 {
		c.Cache.BatchEvictionPercent = d.Cache.BatchEvictionPercent
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = d.Cache.SweepInterval
	}
	if c.Cache.EmbeddingMemoTTL == 0 {
		c.Cache.EmbeddingMemoTTL = d.Cache.EmbeddingMemoTTL
	}
	if c.Matching.SupportThreshold == 0 {
		c.Matching.SupportThreshold = d.Matching.SupportThreshold
	}
	if c.Matching.MaxResponseChars == 0 {
		c.Matching.MaxResponseChars = d.Matching.MaxResponseChars
	}
	if c.Matching.MaxAlternatives == 0 {
		c.Matching.MaxAlternatives = d.Matching.MaxAlternatives
	}
	if c.Consistency.NumSamples == 0 {
		c.Consistency.NumSamples = d.Consistency.NumSamples
	}
	if c.Consistency.MinConsensusThreshold == 0 {
		c.Consistency.MinConsensusThreshold = d.Consistency.MinConsensusThreshold
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Concurrency.Workers == 0 {
		c.Concurrency.Workers = d.Concurrency.Workers
	}
}

// Validate checks the relationships between configuration values.
func (c *Config) Validate() error {
	ch := c.Chunking
	if ch.MinSize <= 0 || ch.TargetSize <= 0 || ch.MaxSize <= 0 {
		return fmt.Errorf("%w: chunk sizes must be positive", ErrInvalidInput)
	}
	if ch.MinSize > ch.TargetSize || ch.TargetSize > ch.MaxSize {
		return fmt.Errorf("%w: chunk sizes must satisfy min <= target <= max (got %d/%d/%d)",
			ErrInvalidInput, ch.MinSize, ch.TargetSize, ch.MaxSize)
	}
	if ch.Overlap < 0 || ch.Overlap >= ch.MinSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, min_size)", ErrInvalidInput)
	}

	weights := map[string]float64{
		"cache.batch_eviction_percent":        c.Cache.BatchEvictionPercent,
		"cache.frequency_weight":              c.Cache.FrequencyWeight,
		"cache.recency_weight":                c.Cache.RecencyWeight,
		"matching.semantic_weight":            c.Matching.SemanticWeight,
		"matching.lexical_weight":             c.Matching.LexicalWeight,
		"matching.support_threshold":          c.Matching.SupportThreshold,
		"matching.weak_confidence_threshold":  c.Matching.WeakConfidenceThreshold,
		"consistency.min_consensus_threshold": c.Consistency.MinConsensusThreshold,
		"consistency.temperature_variance":    c.Consistency.TemperatureVariance,
		"consistency.base_temperature":        c.Consistency.BaseTemperature,
		"consistency.citation_weight":         c.Consistency.CitationWeight,
		"consistency.similarity_weight":       c.Consistency.SimilarityWeight,
		"consistency.presence_weight":         c.Consistency.PresenceWeight,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %s must be in [0,1] (got %v)", ErrInvalidInput, name, w)
		}
	}
	// A claim below the inferred band is never supported, whatever the config says.
	if c.Matching.SupportThreshold < InferredMatchThreshold {
		return fmt.Errorf("%w: matching.support_threshold must be >= %v (got %v)",
			ErrInvalidInput, InferredMatchThreshold, c.Matching.SupportThreshold)
	}

	if c.Consistency.NumSamples < 1 {
		return fmt.Errorf("%w: consistency.num_samples must be >= 1", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown store driver %q (supported: memory, sqlite)", ErrInvalidInput, c.Store.Driver)
	}
	return nil
}
