package model

import "errors"

var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllSamplesFailed indicates every self-consistency sample errored.
	// The chat turn fails; partial failures never surface this error.
	ErrAllSamplesFailed = errors.New("all samples failed")

	// ErrEmbeddingUnavailable indicates no embedding service is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates no LLM provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStoreClosed indicates the chunk store was used after Close.
	ErrStoreClosed = errors.New("store closed")
)
