package model

// ResponseCandidate is one sampled LLM answer for a chat turn.
type ResponseCandidate struct {
	Answer           string   `json:"answer"`
	Citations        []string `json:"citations"` // Unique citation ids in order of first appearance
	Temperature      float64  `json:"temperature"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
}

// ConsistencyResult is the arbitration output of one chat turn.
// Callers must check CandidateCount before trusting SelectedAnswer.
type ConsistencyResult struct {
	SelectedAnswer        string          `json:"selected_answer"`
	ConsensusCitations    []string        `json:"consensus_citations"`
	InconsistentCitations []string        `json:"inconsistent_citations"`
	ConsensusScore        float64         `json:"consensus_score"`
	CandidateCount        int             `json:"candidate_count"`
	SelectionReason       SelectionReason `json:"selection_reason"`
}

// SelectionReason explains how the selected answer was chosen
type SelectionReason string

const (
	SelectionNoCandidates    SelectionReason = "no_candidates"
	SelectionSingleCandidate SelectionReason = "single_candidate"
	SelectionHighestScore    SelectionReason = "highest_consistency_score"
)
