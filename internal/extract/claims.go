// Package extract splits generated answers into checkable claims and
// verifies each claim against the retrieved sources it could rest on.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/ragcore/internal/model"
)

const (
	minClaimChars = 15

	citedConfidence   = 0.8
	uncitedConfidence = 0.5
)

// metaPhrases mark sentences about the answer itself rather than about the notes.
var metaPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(note|disclaimer|summary|tl;dr)\s*:`),
	regexp.MustCompile(`(?i)^(however|additionally|furthermore|moreover|overall|in summary|in conclusion|in short),`),
	regexp.MustCompile(`(?i)^based on (the|your) (notes|sources|context)\b`),
	regexp.MustCompile(`(?i)^(i|we) (don't|do not|cannot|can't) (know|find|have|see)\b`),
	regexp.MustCompile(`(?i)^(the|your) (notes|sources) (do not|don't) (mention|say|contain|cover)\b`),
	regexp.MustCompile(`(?i)^(let me know|i hope|feel free)\b`),
}

// claimTypeRules are evaluated in order; the first match wins.
var claimTypeRules = []struct {
	claimType model.ClaimType
	pattern   *regexp.Regexp
}{
	{model.ClaimTypeDefinitional, regexp.MustCompile(`\b(is|are|means|refers to)\b`)},
	{model.ClaimTypeProcedural, regexp.MustCompile(`\b(to|by|steps?|process)\b`)},
	{model.ClaimTypeComparative, regexp.MustCompile(`\b(more|less|than|versus|vs)\b`)},
	{model.ClaimTypeOpinion, regexp.MustCompile(`\b(may|might|could|suggests?)\b`)},
}

// ClaimExtractor extracts claims from generated answer text
type ClaimExtractor struct {
	maxChars int
}

// NewClaimExtractor creates a new claim extractor. Answers longer than
// maxChars are truncated first; 0 means no limit.
func NewClaimExtractor(maxChars int) *ClaimExtractor {
	return &ClaimExtractor{maxChars: maxChars}
}

// Extract splits response into sentences and keeps those that make a claim.
// Offsets refer to byte positions in response.
func (e *ClaimExtractor) Extract(response string) []model.ExtractedClaim {
	if e.maxChars > 0 && len(response) > e.maxChars {
		cut := e.maxChars
		for cut > 0 && !utf8.RuneStart(response[cut]) {
			cut--
		}
		response = response[:cut]
	}

	var claims []model.ExtractedClaim
	for i, s := range splitSentences(response) {
		raw := response[s.start:s.end]
		text := collapseSpace(model.StripCitations(raw))
		if len(text) < minClaimChars || isMetaSentence(text) {
			continue
		}

		cited := model.FindCitationIDs(raw)
		confidence := uncitedConfidence
		if len(cited) > 0 {
			confidence = citedConfidence
		}

		claims = append(claims, model.ExtractedClaim{
			ID:            fmt.Sprintf("claim_%d", len(claims)),
			Text:          text,
			SentenceIndex: i,
			StartOffset:   s.start,
			EndOffset:     s.end,
			ClaimType:     classifyClaim(text),
			CitedSources:  cited,
			Confidence:    confidence,
		})
	}
	return claims
}

type span struct{ start, end int }

// splitSentences splits text after '.', '!' or '?' when followed by
// whitespace or the end of text. Citation markers that trail the terminator
// ("... done. [N2]") stay with the sentence they follow.
func splitSentences(text string) []span {
	var spans []span
	start := 0

	emit := func(end int) {
		s, e := trimSpan(text, start, end)
		if s < e {
			spans = append(spans, span{s, e})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i + 1
		if end < len(text) && !isSpace(text[end]) {
			continue
		}
		end = absorbTrailingCitations(text, end)
		emit(end)
		i = end - 1
	}
	if start < len(text) {
		emit(len(text))
	}
	return spans
}

func absorbTrailingCitations(text string, end int) int {
	for {
		j := end
		for j < len(text) && isSpace(text[j]) && text[j] != '\n' {
			j++
		}
		loc := model.CitationMarker.FindStringIndex(text[j:])
		if loc == nil || loc[0] != 0 {
			return end
		}
		end = j + loc[1]
	}
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func classifyClaim(text string) model.ClaimType {
	lower := strings.ToLower(text)
	for _, rule := range claimTypeRules {
		if rule.pattern.MatchString(lower) {
			return rule.claimType
		}
	}
	return model.ClaimTypeFactual
}

func isMetaSentence(text string) bool {
	for _, re := range metaPhrases {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var spaceBeforePunct = regexp.MustCompile(` ([.,;:!?])`)

// collapseSpace folds whitespace runs to single spaces and drops the space a
// removed citation marker leaves before punctuation.
func collapseSpace(s string) string {
	return spaceBeforePunct.ReplaceAllString(strings.Join(strings.Fields(s), " "), "$1")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
