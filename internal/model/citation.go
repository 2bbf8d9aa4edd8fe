package model

import (
	"fmt"
	"regexp"
	"strings"
)

// CitationMarker matches an inline citation such as [N3], in either case. The bracket
// contents are the citation ID.
var CitationMarker = regexp.MustCompile(`(?i)\[(N\d+)\]`)

// CitationID returns the ID of the i-th numbered source (1-based), e.g. "N1".
func CitationID(i int) string {
	return fmt.Sprintf("N%d", i)
}

// FindCitationIDs returns the unique citation IDs in text, in order of first appearance.
func FindCitationIDs(text string) []string {
	matches := CitationMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToUpper(m[1])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// StripCitations removes every citation marker from text.
func StripCitations(text string) string {
	return CitationMarker.ReplaceAllString(text, "")
}
