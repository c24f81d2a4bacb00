package careerdex

import "github.com/kailas-cloud/careerdex/internal/domain"

// Sentinel errors re-exported from the domain layer. Use errors.Is to check.
var (
	ErrCollectionNotFound     = domain.ErrCollectionNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidFilter          = domain.ErrInvalidFilter
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrRateLimited            = domain.ErrRateLimited
	ErrNotFound               = domain.ErrNotFound
)
