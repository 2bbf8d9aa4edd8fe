package extract

import (
	"context"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/ppiankov/ragcore/internal/embedding"
	"github.com/ppiankov/ragcore/internal/model"
)

const maxSnippetChars = 200

// SourceMatcher scores claims against retrieved chunks.
type SourceMatcher struct {
	embedder        embedding.Embedder
	semantic        bool
	semanticWeight  float64
	lexicalWeight   float64
	threshold       float64
	maxAlternatives int
	logger          *slog.Logger
}

// NewSourceMatcher creates a matcher. A nil embedder makes every score lexical-only.
func NewSourceMatcher(cfg model.MatchingConfig, embedder embedding.Embedder, logger *slog.Logger) *SourceMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	m := &SourceMatcher{
		embedder:        embedder,
		semantic:        cfg.SemanticEnabled && embedder != nil,
		semanticWeight:  cfg.SemanticWeight,
		lexicalWeight:   cfg.LexicalWeight,
		threshold:       cfg.SupportThreshold,
		maxAlternatives: cfg.MaxAlternatives,
		logger:          logger,
	}
	if m.semanticWeight == 0 && m.lexicalWeight == 0 {
		m.semanticWeight, m.lexicalWeight = 0.6, 0.4
	}
	if m.threshold == 0 {
		m.threshold = model.InferredMatchThreshold
	}
	if m.maxAlternatives <= 0 {
		m.maxAlternatives = 3
	}
	return m
}

// MatchClaim ranks every retrieved chunk that has a citation against claim.
// Chunks without a citation cannot be cited and are skipped.
func (m *SourceMatcher) MatchClaim(ctx context.Context, claim model.ExtractedClaim, chunks []model.ScoredChunk, citations []model.Citation) model.ClaimSourceMatch {
	result := model.ClaimSourceMatch{Claim: claim}
	if len(chunks) == 0 || len(citations) == 0 {
		return result
	}

	byChunk := make(map[string]model.Citation, len(citations))
	for _, c := range citations {
		if _, ok := byChunk[c.ChunkID]; !ok {
			byChunk[c.ChunkID] = c
		}
	}

	claimVec := m.embedClaim(ctx, claim)
	claimWords := Tokens(claim.Text)

	var matches []model.SourceMatch
	for _, chunk := range chunks {
		cit, ok := byChunk[chunk.ChunkID]
		if !ok {
			continue
		}

		lexical := overlap(claimWords, Tokens(chunk.Text))
		semantic := 0.0
		score := lexical
		if claimVec != nil && len(chunk.Embedding) > 0 {
			semantic = embedding.Clamp01(embedding.Cosine(claimVec, chunk.Embedding))
			score = m.semanticWeight*semantic + m.lexicalWeight*lexical
		}

		matches = append(matches, model.SourceMatch{
			CID:            cit.CID,
			ChunkID:        chunk.ChunkID,
			NoteID:         chunk.NoteID,
			Snippet:        snippet(cit, chunk),
			MatchScore:     score,
			SemanticScore:  semantic,
			LexicalOverlap: lexical,
			MatchType:      model.MatchTypeFor(score),
		})
	}
	if len(matches) == 0 {
		return result
	}

	// Stable so equal scores keep retrieval order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	best := matches[0]
	result.BestMatch = &best
	rest := matches[1:]
	if len(rest) > m.maxAlternatives {
		rest = rest[:m.maxAlternatives]
	}
	if len(rest) > 0 {
		result.AlternativeMatches = append([]model.SourceMatch(nil), rest...)
	}
	result.SupportConfidence = best.MatchScore
	result.IsSupported = best.MatchScore >= m.threshold
	return result
}

// embedClaim returns nil when semantic scoring is off or the embedder fails.
func (m *SourceMatcher) embedClaim(ctx context.Context, claim model.ExtractedClaim) []float32 {
	if !m.semantic {
		return nil
	}
	vec, err := m.embedder.Embed(ctx, claim.Text)
	if err != nil {
		m.logger.Warn("claim embedding failed, using lexical overlap only",
			"claim", claim.ID, "error", err)
		return nil
	}
	return vec
}

func snippet(cit model.Citation, chunk model.ScoredChunk) string {
	text := cit.Snippet
	if text == "" {
		text = chunk.Text
	}
	if len(text) <= maxSnippetChars {
		return text
	}
	cut := maxSnippetChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
