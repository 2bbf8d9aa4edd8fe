package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

// HashText returns the hex SHA-256 of a chunk's text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashSequence joins per-chunk hashes in position order. Two chunk sets are
// the same exactly when their sequences are equal.
func HashSequence(hashes []string) string {
	return strings.Join(hashes, "")
}

// HashTexts hashes every chunk text.
func HashTexts(texts []string) []string {
	hashes := make([]string, len(texts))
	for i, t := range texts {
		hashes[i] = HashText(t)
	}
	return hashes
}

// storedSequence returns the hash sequence of persisted chunks. ok is false
// when any chunk predates text hashing, which forces regeneration.
func storedSequence(chunks []model.Chunk) (seq string, ok bool) {
	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		if c.TextHash == "" || c.Version < model.ChunkDocVersionCurrent {
			return "", false
		}
		hashes[i] = c.TextHash
	}
	return HashSequence(hashes), true
}
