package model

import "time"

// ScoredChunk is a retrieved chunk as produced by the retrieval collaborator.
type ScoredChunk struct {
	ChunkID      string    `json:"chunk_id"`
	NoteID       string    `json:"note_id"`
	Text         string    `json:"text"`
	Score        float64   `json:"score"`
	VectorScore  *float64  `json:"vector_score,omitempty"`
	KeywordScore *float64  `json:"keyword_score,omitempty"`
	Embedding    []float32 `json:"embedding,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Citation links a citation id (e.g. "N3") to the retrieved chunk it refers to.
type Citation struct {
	CID     string  `json:"cid"`
	NoteID  string  `json:"note_id"`
	ChunkID string  `json:"chunk_id"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// SourceMatch scores one retrieved chunk against a claim.
type SourceMatch struct {
	CID            string    `json:"cid"`
	ChunkID        string    `json:"chunk_id"`
	NoteID         string    `json:"note_id"`
	Snippet        string    `json:"snippet"`
	MatchScore     float64   `json:"match_score"`
	SemanticScore  float64   `json:"semantic_score"`
	LexicalOverlap float64   `json:"lexical_overlap"`
	MatchType      MatchType `json:"match_type"`
}

// ClaimSourceMatch is the support verdict for a single claim. Never persisted.
type ClaimSourceMatch struct {
	Claim              ExtractedClaim `json:"claim"`
	BestMatch          *SourceMatch   `json:"best_match,omitempty"`
	AlternativeMatches []SourceMatch  `json:"alternative_matches,omitempty"`
	IsSupported        bool           `json:"is_supported"`
	SupportConfidence  float64        `json:"support_confidence"`
}

// MatchType bands a match score
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"      // score >= 0.85
	MatchTypeParaphrase MatchType = "paraphrase" // score >= 0.65
	MatchTypeInferred   MatchType = "inferred"   // score >= 0.45
	MatchTypeWeak       MatchType = "weak"       // anything lower
)

// Match type thresholds, evaluated from the highest band down.
const (
	ExactMatchThreshold      = 0.85
	ParaphraseMatchThreshold = 0.65
	InferredMatchThreshold   = 0.45
)

// MatchTypeFor returns the band for a match score.
func MatchTypeFor(score float64) MatchType {
	switch {
	case score >= ExactMatchThreshold:
		return MatchTypeExact
	case score >= ParaphraseMatchThreshold:
		return MatchTypeParaphrase
	case score >= InferredMatchThreshold:
		return MatchTypeInferred
	default:
		return MatchTypeWeak
	}
}
