package consistency

import (
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

const ngramSize = 3

// AnswerSimilarity is the Jaccard similarity of the character 3-gram sets of
// two answers, computed on lowercase text with citation markers removed and
// whitespace collapsed.
func AnswerSimilarity(a, b string) float64 {
	return jaccard(ngrams(a), ngrams(b))
}

func ngrams(text string) map[string]struct{} {
	text = strings.ToLower(model.StripCitations(text))
	runes := []rune(strings.Join(strings.Fields(text), " "))

	set := make(map[string]struct{})
	if len(runes) == 0 {
		return set
	}
	if len(runes) < ngramSize {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+ngramSize <= len(runes); i++ {
		set[string(runes[i:i+ngramSize])] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for g := range small {
		if _, ok := large[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
