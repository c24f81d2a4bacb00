package domain

import (
	"errors"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCollectionNotFound signals a query or write against a collection that was never created.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidRequest signals a malformed tool request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidMetadata signals a non-scalar or reserved metadata entry.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrInvalidFilter signals a filter the backend cannot evaluate.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrLengthMismatch signals parallel input slices of different lengths.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrDuplicateID signals a repeated record id inside one batch.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
