package extract

import (
	"strings"
	"testing"

	"github.com/ppiankov/ragcore/internal/model"
)

func TestClaimExtractor_BasicExtraction(t *testing.T) {
	extractor := NewClaimExtractor(0)

	answer := "Goroutines are lightweight threads managed by the Go runtime [N1]. " +
		"Note: this is from your notes. " +
		"Use channels to pass data between goroutines [N2][N3]. " +
		"Ok. " +
		"Buffered channels may block less often than unbuffered ones."

	claims := extractor.Extract(answer)
	if len(claims) != 3 {
		t.Fatalf("Expected 3 claims, got %d: %+v", len(claims), claims)
	}

	first := claims[0]
	if first.ID != "claim_0" || first.SentenceIndex != 0 {
		t.Errorf("Unexpected id/index: %s/%d", first.ID, first.SentenceIndex)
	}
	if first.ClaimType != model.ClaimTypeDefinitional {
		t.Errorf("Expected definitional, got %s", first.ClaimType)
	}
	if first.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8 for cited claim, got %v", first.Confidence)
	}
	if strings.Contains(first.Text, "[N1]") {
		t.Errorf("Citation marker should be stripped from text: %q", first.Text)
	}
	if got := answer[first.StartOffset:first.EndOffset]; !strings.HasPrefix(got, "Goroutines are") || !strings.HasSuffix(got, "[N1].") {
		t.Errorf("Offsets do not cover the sentence: %q", got)
	}

	second := claims[1]
	if second.ClaimType != model.ClaimTypeProcedural {
		t.Errorf("Expected procedural, got %s", second.ClaimType)
	}
	if len(second.CitedSources) != 2 || second.CitedSources[0] != "N2" || second.CitedSources[1] != "N3" {
		t.Errorf("Unexpected cited sources: %v", second.CitedSources)
	}

	third := claims[2]
	if third.ClaimType != model.ClaimTypeComparative {
		t.Errorf("Expected comparative, got %s", third.ClaimType)
	}
	if third.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5 for uncited claim, got %v", third.Confidence)
	}
	if third.SentenceIndex != 4 {
		t.Errorf("Expected sentence index 4, got %d", third.SentenceIndex)
	}
}

func TestClaimExtractor_Classification(t *testing.T) {
	tests := []struct {
		text string
		want model.ClaimType
	}{
		{"A chunk refers to a slice of a note.", model.ClaimTypeDefinitional},
		{"Reindexing happens by comparing hashes.", model.ClaimTypeProcedural},
		{"Sampling three answers costs more tokens than one.", model.ClaimTypeComparative},
		{"This approach might reduce latency.", model.ClaimTypeOpinion},
		{"Go shipped generics in 2022.", model.ClaimTypeFactual},
		// Definitional wins over every later rule.
		{"Caching is faster than recomputing.", model.ClaimTypeDefinitional},
	}

	extractor := NewClaimExtractor(0)
	for _, tt := range tests {
		claims := extractor.Extract(tt.text)
		if len(claims) != 1 {
			t.Fatalf("%q: expected 1 claim, got %d", tt.text, len(claims))
		}
		if claims[0].ClaimType != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.text, tt.want, claims[0].ClaimType)
		}
	}
}

func TestClaimExtractor_TrailingCitation(t *testing.T) {
	claims := NewClaimExtractor(0).Extract("Channels are typed conduits for values. [n4] They block.")
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if len(claims[0].CitedSources) != 1 || claims[0].CitedSources[0] != "N4" {
		t.Errorf("Expected trailing marker normalized to N4, got %v", claims[0].CitedSources)
	}
}

func TestClaimExtractor_DedupesCitations(t *testing.T) {
	claims := NewClaimExtractor(0).Extract("The cache sweeps expired entries [N2] every minute [N2][N1].")
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	got := claims[0].CitedSources
	if len(got) != 2 || got[0] != "N2" || got[1] != "N1" {
		t.Errorf("Expected [N2 N1], got %v", got)
	}
}

func TestClaimExtractor_MetaPhrases(t *testing.T) {
	answer := "However, the notes are incomplete here. " +
		"Based on the notes, nothing else applies here. " +
		"I don't know the exact release date of it. " +
		"Let me know if you need more detail on this."
	if claims := NewClaimExtractor(0).Extract(answer); len(claims) != 0 {
		t.Errorf("Expected meta sentences to be discarded, got %+v", claims)
	}
}

func TestClaimExtractor_EmptyAndTruncated(t *testing.T) {
	if claims := NewClaimExtractor(0).Extract(""); len(claims) != 0 {
		t.Errorf("Expected no claims for empty answer")
	}

	long := strings.Repeat("Chunks are bounded by the maximum size. ", 100)
	claims := NewClaimExtractor(200).Extract(long)
	if len(claims) == 0 || len(claims) > 5 {
		t.Errorf("Expected truncation to bound claims, got %d", len(claims))
	}
	for _, c := range claims {
		if c.EndOffset > 200 {
			t.Errorf("Claim offset %d beyond truncation", c.EndOffset)
		}
	}
}

func TestLexicalOverlap(t *testing.T) {
	if got := LexicalOverlap("The cache, evicts!", "the CACHE evicts entries"); got != 1 {
		t.Errorf("Expected 1, got %v", got)
	}
	if got := LexicalOverlap("go is ok", "anything"); got != 0 {
		t.Errorf("Expected 0 for claim without long words, got %v", got)
	}
	if got := LexicalOverlap("alpha beta", "alpha gamma"); got != 0.5 {
		t.Errorf("Expected 0.5, got %v", got)
	}
}

func TestClaimExtractor_StripsMarkerSpacing(t *testing.T) {
	claims := NewClaimExtractor(0).Extract("The sky over the bay is blue [N1]. Rents went up sharply last year [N2]!")
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d: %+v", len(claims), claims)
	}

	want := []string{"The sky over the bay is blue.", "Rents went up sharply last year!"}
	for i, c := range claims {
		if c.Text != want[i] {
			t.Errorf("claim %d: expected %q, got %q", i, want[i], c.Text)
		}
	}
}
