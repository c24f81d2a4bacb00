// Package search answers semantic queries against one collection.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
	"github.com/kailas-cloud/careerdex/internal/domain/search/result"
	"github.com/kailas-cloud/careerdex/internal/logger"
)

// Service embeds queries and ranks stored records by similarity.
type Service struct {
	store Store
	embed Embedder
}

// New creates a search service.
func New(store Store, embed Embedder) *Service {
	return &Service{store: store, embed: embed}
}

// Search fetches the top_k nearest records, then drops those under the
// similarity threshold unless the request keeps all. The threshold never
// widens the candidate pool.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.store.Query(ctx, req.Collection(), record.Query{
		Vector: emb.Embedding,
		TopK:   req.TopK(),
		Filter: req.Filters(),
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", req.Collection(), err)
	}

	results := make([]result.Result, 0, len(matches))
	for _, m := range matches {
		sim := m.Similarity()
		if !req.KeepAll() && sim < req.Threshold() {
			continue
		}
		md := m.Metadata
		if md == nil {
			md = metadata.Metadata{}
		}
		r := result.New(m.ID, m.Document, md, sim)
		if !req.IncludeMetadata() {
			r = r.WithoutMetadata()
		}
		results = append(results, r)
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("collection", req.Collection()),
		zap.Int("candidates", len(matches)),
		zap.Int("results", len(results)),
	)
	return results, nil
}
