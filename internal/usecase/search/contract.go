package search

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Store runs nearest-neighbour queries.
type Store interface {
	Query(ctx context.Context, collection string, q record.Query) ([]record.Match, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
