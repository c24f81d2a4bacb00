// Package index chunks, embeds and stores documents.
package index

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/ingest/chunker"
	"github.com/kailas-cloud/careerdex/internal/logger"
)

// Request is one indexing call.
type Request struct {
	Collection   string
	Documents    []string
	Metadata     []metadata.Metadata
	ChunkSize    int
	ChunkOverlap int
}

// Result reports what was written.
type Result struct {
	OriginalDocuments int
	ChunksCreated     int
	IDs               []string
}

// Service turns documents into stored records.
type Service struct {
	store Store
	embed domain.Embedder
	ids   *IDGenerator
}

// New creates an indexing service. embed should apply the document-side instruction.
func New(store Store, embed domain.Embedder, ids *IDGenerator) *Service {
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &Service{store: store, embed: embed, ids: ids}
}

// Index chunks documents, embeds every chunk in one batch and adds them to the collection.
func (s *Service) Index(ctx context.Context, req Request) (Result, error) {
	if err := collection.ValidateName(req.Collection); err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if len(req.Documents) == 0 {
		return Result{}, fmt.Errorf("%w: no documents to index", domain.ErrInvalidRequest)
	}
	for i, doc := range req.Documents {
		if strings.TrimSpace(doc) == "" {
			return Result{}, fmt.Errorf("%w: documents[%d] is empty", domain.ErrInvalidRequest, i)
		}
	}
	for i, md := range req.Metadata {
		if err := md.Validate(); err != nil {
			return Result{}, fmt.Errorf("metadata[%d]: %w", i, err)
		}
	}

	docs, metas, err := chunker.Chunk(req.Documents, req.Metadata, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		return Result{}, err
	}

	emb, err := domain.EmbedAll(ctx, s.embed, docs)
	if err != nil {
		return Result{}, fmt.Errorf("vectorize documents: %w", err)
	}

	ids := s.ids.Next(req.Collection, len(docs))
	records, err := record.Zip(ids, docs, emb.Embeddings, metas)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Add(ctx, req.Collection, records); err != nil {
		return Result{}, fmt.Errorf("add records %s: %w", req.Collection, err)
	}

	logger.FromContext(ctx).Info("Indexed documents",
		zap.String("collection", req.Collection),
		zap.Int("documents", len(req.Documents)),
		zap.Int("chunks", len(docs)),
		zap.Int("tokens", emb.TotalTokens),
	)
	return Result{OriginalDocuments: len(req.Documents), ChunksCreated: len(docs), IDs: ids}, nil
}
