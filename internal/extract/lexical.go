package extract

import (
	"strings"
	"unicode"
)

// Tokens returns the distinct lowercase words of text longer than two
// characters, with punctuation stripped.
func Tokens(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len([]rune(w)) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

// LexicalOverlap is |claimWords ∩ sourceWords| / |claimWords|. A claim
// without qualifying words scores 0.
func LexicalOverlap(claim, source string) float64 {
	return overlap(Tokens(claim), Tokens(source))
}

func overlap(claimWords, sourceWords map[string]struct{}) float64 {
	if len(claimWords) == 0 {
		return 0
	}
	shared := 0
	for w := range claimWords {
		if _, ok := sourceWords[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(claimWords))
}
