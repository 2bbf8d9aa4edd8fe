package model

// ExtractedClaim is one declarative sentence taken from a generated answer.
// Offsets are byte positions in the exact response text it was extracted from.
type ExtractedClaim struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`                    // Claim text with citation markers stripped
	SentenceIndex int       `json:"sentence_index"`          // Sentence index in the response (0-based)
	StartOffset   int       `json:"start_offset"`            // Inclusive
	EndOffset     int       `json:"end_offset"`              // Exclusive
	ClaimType     ClaimType `json:"claim_type"`              // Classification rule that matched first
	CitedSources  []string  `json:"cited_sources,omitempty"` // Normalized citation ids (e.g. "N1")
	Confidence    float64   `json:"confidence"`
}

// HasCitations reports whether the claim carried at least one inline citation.
func (c ExtractedClaim) HasCitations() bool {
	return len(c.CitedSources) > 0
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeDefinitional ClaimType = "definitional" // is / are / means / refers to
	ClaimTypeProcedural   ClaimType = "procedural"   // to / by / steps / process
	ClaimTypeComparative  ClaimType = "comparative"  // more / less / than / versus
	ClaimTypeOpinion      ClaimType = "opinion"      // may / might / could / suggests
	ClaimTypeFactual      ClaimType = "factual"      // default
)
