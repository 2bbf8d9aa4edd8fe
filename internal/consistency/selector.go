package consistency

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

// Weights are the candidate scoring weights. They are policy, not calibrated
// constants.
type Weights struct {
	Citation   float64 // share of the candidate's citations that reached consensus
	Similarity float64 // mean 3-gram similarity to the other candidates
	Presence   float64 // 1 when the candidate cites anything
}

// DefaultWeights returns 0.5 / 0.3 / 0.2.
func DefaultWeights() Weights {
	return Weights{Citation: 0.5, Similarity: 0.3, Presence: 0.2}
}

// Selector picks the most citation-consistent answer among candidates.
type Selector struct {
	threshold float64
	weights   Weights
}

// NewSelector creates a selector from consistency config. Zero weights in
// config fall back to the defaults as a set.
func NewSelector(cfg model.ConsistencyConfig) *Selector {
	w := Weights{
		Citation:   cfg.CitationWeight,
		Similarity: cfg.SimilarityWeight,
		Presence:   cfg.PresenceWeight,
	}
	if w.Citation == 0 && w.Similarity == 0 && w.Presence == 0 {
		w = DefaultWeights()
	}
	threshold := cfg.MinConsensusThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Selector{threshold: threshold, weights: w}
}

// CandidateScore is the transparent score of one candidate.
type CandidateScore struct {
	Index             int
	CitationAlignment float64
	AverageSimilarity float64
	HasCitation       float64
	Score             float64
}

// ScoreCandidate scores all[index] against the other candidates.
func (s *Selector) ScoreCandidate(index int, all []model.ResponseCandidate, consensus Consensus) CandidateScore {
	c := all[index]
	cs := CandidateScore{Index: index}

	cites := candidateCitations(c)
	if len(cites) > 0 {
		cs.HasCitation = 1
		agreed := 0
		for _, id := range cites {
			if consensus.Contains(id) {
				agreed++
			}
		}
		cs.CitationAlignment = float64(agreed) / float64(len(cites))
	}

	if len(all) > 1 {
		self := ngrams(c.Answer)
		var sum float64
		for j, other := range all {
			if j == index {
				continue
			}
			sum += jaccard(self, ngrams(other.Answer))
		}
		cs.AverageSimilarity = sum / float64(len(all)-1)
	}

	cs.Score = s.weights.Citation*cs.CitationAlignment +
		s.weights.Similarity*cs.AverageSimilarity +
		s.weights.Presence*cs.HasCitation
	return cs
}

// SelectBestResponse arbitrates between candidates. Zero candidates yield an
// empty result with CandidateCount 0. One candidate is accepted verbatim with
// ConsensusScore 1. Otherwise the highest-scoring candidate wins (the earliest
// on ties), ConsensusScore is the mean candidate score, and inconsistent
// citation markers are removed from the selected answer.
func (s *Selector) SelectBestResponse(candidates []model.ResponseCandidate) model.ConsistencyResult {
	switch len(candidates) {
	case 0:
		return model.ConsistencyResult{
			ConsensusCitations:    []string{},
			InconsistentCitations: []string{},
			SelectionReason:       model.SelectionNoCandidates,
		}
	case 1:
		cites := candidateCitations(candidates[0])
		if cites == nil {
			cites = []string{}
		}
		return model.ConsistencyResult{
			SelectedAnswer:        candidates[0].Answer,
			ConsensusCitations:    cites,
			InconsistentCitations: []string{},
			ConsensusScore:        1,
			CandidateCount:        1,
			SelectionReason:       model.SelectionSingleCandidate,
		}
	}

	consensus := CalculateCitationConsensus(candidates, s.threshold)

	best := CandidateScore{Index: -1}
	var total float64
	for i := range candidates {
		cs := s.ScoreCandidate(i, candidates, consensus)
		total += cs.Score
		if best.Index < 0 || cs.Score > best.Score {
			best = cs
		}
	}

	return model.ConsistencyResult{
		SelectedAnswer:        FilterInconsistentCitations(candidates[best.Index].Answer, consensus.Inconsistent),
		ConsensusCitations:    nonNil(consensus.Consensus),
		InconsistentCitations: nonNil(consensus.Inconsistent),
		ConsensusScore:        total / float64(len(candidates)),
		CandidateCount:        len(candidates),
		SelectionReason:       model.SelectionHighestScore,
	}
}

var (
	horizontalSpace  = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunct = regexp.MustCompile(`[ \t]+([.,;:!?])`)
	trailingSpace    = regexp.MustCompile(`[ \t]+\n`)
)

// FilterInconsistentCitations removes every marker of the given citation IDs
// from answer and collapses the whitespace left behind.
func FilterInconsistentCitations(answer string, inconsistent []string) string {
	if len(inconsistent) == 0 {
		return answer
	}
	out := answer
	for _, id := range inconsistent {
		marker := regexp.MustCompile(`(?i)\[` + regexp.QuoteMeta(id) + `\]`)
		out = marker.ReplaceAllString(out, "")
	}
	out = horizontalSpace.ReplaceAllString(out, " ")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = trailingSpace.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}

// InconsistencySignal describes the citations dropped from the selected
// answer, or returns nil when none were.
func InconsistencySignal(result model.ConsistencyResult) *model.Signal {
	if len(result.InconsistentCitations) == 0 {
		return nil
	}
	return &model.Signal{
		Type:     model.SignalInconsistentCites,
		Severity: model.SeverityWarning,
		Description: fmt.Sprintf("%d citation(s) were not agreed on by the sampled answers and were removed: %s",
			len(result.InconsistentCitations), strings.Join(result.InconsistentCitations, ", ")),
		Data: map[string]interface{}{
			"inconsistent":    result.InconsistentCitations,
			"consensus":       result.ConsensusCitations,
			"candidates":      result.CandidateCount,
			"consensus_score": result.ConsensusScore,
			"formula":         "consensus if cited by >= ceil(candidates * min_consensus_threshold)",
		},
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
