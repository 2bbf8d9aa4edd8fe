package model

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min above target", func(c *Config) { c.Chunking.MinSize = 600 }},
		{"target above max", func(c *Config) { c.Chunking.TargetSize = 900 }},
		{"overlap equals min", func(c *Config) { c.Chunking.Overlap = c.Chunking.MinSize }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"zero size", func(c *Config) { c.Chunking.MaxSize = 0 }},
		{"threshold above one", func(c *Config) { c.Consistency.MinConsensusThreshold = 1.5 }},
		{"negative weight", func(c *Config) { c.Matching.LexicalWeight = -0.1 }},
		{"no samples", func(c *Config) { c.Consistency.NumSamples = 0 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"negative frequency weight", func(c *Config) { c.Cache.FrequencyWeight = -0.2 }},
		{"recency weight above one", func(c *Config) { c.Cache.RecencyWeight = 1.2 }},
		{"negative citation weight", func(c *Config) { c.Consistency.CitationWeight = -1 }},
		{"negative presence weight", func(c *Config) { c.Consistency.PresenceWeight = -0.5 }},
		{"support threshold below inferred band", func(c *Config) { c.Matching.SupportThreshold = 0.3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Chunking.TargetSize = 400
	cfg.Cache.ChunkTTL = time.Minute
	cfg.ApplyDefaults()

	d := DefaultConfig()
	if cfg.Chunking.TargetSize != 400 {
		t.Errorf("explicit target size overwritten: %d", cfg.Chunking.TargetSize)
	}
	if cfg.Cache.ChunkTTL != time.Minute {
		t.Errorf("explicit chunk ttl overwritten: %v", cfg.Cache.ChunkTTL)
	}
	if cfg.Chunking.MaxSize != d.Chunking.MaxSize {
		t.Errorf("expected max size %d, got %d", d.Chunking.MaxSize, cfg.Chunking.MaxSize)
	}
	if cfg.Consistency.NumSamples != d.Consistency.NumSamples {
		t.Errorf("expected %d samples, got %d", d.Consistency.NumSamples, cfg.Consistency.NumSamples)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory driver, got %q", cfg.Store.Driver)
	}
}

func TestFindCitationIDs(t *testing.T) {
	got := FindCitationIDs("Rust [N2] has no GC [n1]. Ownership [N2][N10].")
	want := []string{"N2", "N1", "N10"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if ids := FindCitationIDs("no markers [X1] here"); ids != nil {
		t.Errorf("expected nil, got %v", ids)
	}
}

func TestStripCitations(t *testing.T) {
	if got := StripCitations("A[N1] b [N22]."); got != "A b ." {
		t.Errorf("unexpected result %q", got)
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("note", 7); got != "note_chunk_0007" {
		t.Errorf("unexpected chunk id %q", got)
	}
	if got := EstimateTokens("abcde"); got != 2 {
		t.Errorf("expected 2 tokens, got %d", got)
	}
}

func TestMatchTypeFor(t *testing.T) {
	tests := []struct {
		score float64
		want  MatchType
	}{
		{0.9, MatchTypeExact},
		{0.85, MatchTypeExact},
		{0.7, MatchTypeParaphrase},
		{0.45, MatchTypeInferred},
		{0.44, MatchTypeWeak},
		{0, MatchTypeWeak},
	}
	for _, tt := range tests {
		if got := MatchTypeFor(tt.score); got != tt.want {
			t.Errorf("MatchTypeFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
