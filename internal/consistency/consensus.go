package consistency

import (
	"math"

	"github.com/ppiankov/ragcore/internal/model"
)

// Consensus is the cross-candidate agreement on citations.
type Consensus struct {
	// Consensus holds citations cited by at least MinCount candidates.
	Consensus []string
	// Inconsistent holds every other cited citation.
	Inconsistent []string
	// Counts is the number of candidates citing each citation.
	Counts   map[string]int
	MinCount int
}

// Contains reports whether id reached consensus.
func (c Consensus) Contains(id string) bool {
	return c.Counts[id] >= c.MinCount && c.MinCount > 0
}

// ExtractCitationIDs returns the unique [N<digits>] citation IDs in answer in
// order of first appearance.
func ExtractCitationIDs(answer string) []string {
	return model.FindCitationIDs(answer)
}

// CalculateCitationConsensus counts how many candidates cite each ID. An ID
// is consensus when at least ceil(len(candidates) * threshold) candidates cite
// it. Both lists keep the order in which IDs were first seen.
func CalculateCitationConsensus(candidates []model.ResponseCandidate, threshold float64) Consensus {
	c := Consensus{Counts: make(map[string]int)}
	if len(candidates) == 0 {
		return c
	}

	c.MinCount = int(math.Ceil(float64(len(candidates)) * threshold))
	if c.MinCount < 1 {
		c.MinCount = 1
	}

	var order []string
	for _, cand := range candidates {
		for _, id := range candidateCitations(cand) {
			if _, seen := c.Counts[id]; !seen {
				order = append(order, id)
			}
			c.Counts[id]++
		}
	}

	for _, id := range order {
		if c.Counts[id] >= c.MinCount {
			c.Consensus = append(c.Consensus, id)
		} else {
			c.Inconsistent = append(c.Inconsistent, id)
		}
	}
	return c
}

// candidateCitations prefers the IDs recorded on the candidate and falls back
// to parsing the answer. Duplicates never count twice.
func candidateCitations(c model.ResponseCandidate) []string {
	if len(c.Citations) == 0 {
		return ExtractCitationIDs(c.Answer)
	}
	seen := make(map[string]bool, len(c.Citations))
	ids := make([]string, 0, len(c.Citations))
	for _, id := range c.Citations {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
