package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const keyVersion = "ragcore:v1:"

// segmentEscaper keeps a tenant ID from spilling into the next key segment,
// so the prefix of tenant "a" never matches keys of tenant "a:b".
var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func segment(s string) string {
	return segmentEscaper.Replace(s)
}

// ChunkKey builds the cache key for a chunk document.
func ChunkKey(tenantID, chunkID string) string {
	return keyVersion + "chunk:" + segment(tenantID) + ":" + chunkID
}

// NoteChunkPrefix matches every chunk key of a note. Chunk IDs are derived
// from the note ID, see model.ChunkID.
func NoteChunkPrefix(tenantID, noteID string) string {
	return keyVersion + "chunk:" + segment(tenantID) + ":" + noteID + "_chunk_"
}

// RetrievalKey builds the cache key for a retrieval result. The query is
// hashed after whitespace and case normalization.
func RetrievalKey(tenantID, query string, topK int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	hash := sha256.Sum256([]byte(normalized + "\x00" + strconv.Itoa(topK)))
	return keyVersion + "retrieval:" + segment(tenantID) + ":" + hex.EncodeToString(hash[:])
}

// TenantRetrievalPrefix matches every retrieval key of a tenant.
func TenantRetrievalPrefix(tenantID string) string {
	return keyVersion + "retrieval:" + segment(tenantID) + ":"
}

// EmbeddingKey builds the memo key for a text embedding.
func EmbeddingKey(model, text string) string {
	hash := sha256.Sum256([]byte(text))
	return keyVersion + "embedding:" + model + ":" + hex.EncodeToString(hash[:])
}
