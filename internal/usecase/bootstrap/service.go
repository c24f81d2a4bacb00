// Package bootstrap prepares the store: fixed collections, status, reset and
// loading the portfolio data files.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/ingest/loader"
	"github.com/kailas-cloud/careerdex/internal/usecase/index"
)

// DefaultBatchDocs is how many source documents go into one indexing call.
const DefaultBatchDocs = 16

// ErrNoDocuments marks a kind whose data files produced nothing to index.
var ErrNoDocuments = errors.New("no documents to index")

// Config tunes loading.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	BatchDocs    int
}

// Status is the per-collection record count.
type Status struct {
	Counts    map[string]int
	Populated bool
}

// Outcome is the result of loading one kind.
type Outcome struct {
	Kind       loader.Kind
	Collection string
	Documents  int
	Chunks     int
	Err        error
}

// ProgressFunc is told how many source documents of a kind have been indexed.
type ProgressFunc func(kind loader.Kind, done, total int)

// Service coordinates the store, loader and indexer.
type Service struct {
	store   Store
	indexer Indexer
	loader  Loader
	cfg     Config
	logger  *zap.Logger
}

// New creates a bootstrap service.
func New(store Store, indexer Indexer, ldr Loader, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchDocs <= 0 {
		cfg.BatchDocs = DefaultBatchDocs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, indexer: indexer, loader: ldr, cfg: cfg, logger: logger}
}

// EnsureCollections creates the fixed collections. Existing ones are left alone.
func (s *Service) EnsureCollections(ctx context.Context) error {
	for _, name := range collection.Defaults() {
		if err := s.store.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}
	return nil
}

// Status counts the fixed collections. The store is populated when experience
// or projects holds at least one record.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st := Status{Counts: make(map[string]int, len(collection.Defaults()))}
	for _, name := range collection.Defaults() {
		n, err := s.store.Count(ctx, name)
		if err != nil {
			return Status{}, fmt.Errorf("count %s: %w", name, err)
		}
		st.Counts[name] = n
	}
	st.Populated = st.Counts[collection.Experience] > 0 || st.Counts[collection.Projects] > 0
	return st, nil
}

// Reset drops everything and recreates the fixed collections.
func (s *Service) Reset(ctx context.Context) error {
	s.logger.Warn("Resetting document store")
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return s.EnsureCollections(ctx)
}

// Load indexes the given kinds. A failing kind does not stop the others.
func (s *Service) Load(ctx context.Context, kinds []loader.Kind, progress ProgressFunc) []Outcome {
	out := make([]Outcome, 0, len(kinds))
	for _, kind := range kinds {
		o := s.LoadKind(ctx, kind, progress)
		if o.Err != nil {
			s.logger.Error("Failed to load data",
				zap.String("kind", string(kind)),
				zap.String("collection", o.Collection),
				zap.Error(o.Err),
			)
		} else {
			s.logger.Info("Loaded data",
				zap.String("kind", string(kind)),
				zap.String("collection", o.Collection),
				zap.Int("documents", o.Documents),
				zap.Int("chunks", o.Chunks),
			)
		}
		out = append(out, o)
	}
	return out
}

// LoadKind renders one kind and indexes it in batches of Config.BatchDocs documents.
func (s *Service) LoadKind(ctx context.Context, kind loader.Kind, progress ProgressFunc) Outcome {
	o := Outcome{Kind: kind, Collection: kind.Collection()}

	batch, err := s.loader.Load(kind)
	if err != nil {
		o.Err = err
		return o
	}
	total := len(batch.Documents)
	if total == 0 {
		o.Err = fmt.Errorf("%s: %w", kind, ErrNoDocuments)
		return o
	}

	for start := 0; start < total; start += s.cfg.BatchDocs {
		end := min(start+s.cfg.BatchDocs, total)
		res, err := s.indexer.Index(ctx, index.Request{
			Collection:   batch.Collection,
			Documents:    batch.Documents[start:end],
			Metadata:     sliceMeta(batch.Metadata, start, end),
			ChunkSize:    s.cfg.ChunkSize,
			ChunkOverlap: s.cfg.ChunkOverlap,
		})
		if err != nil {
			o.Err = err
			return o
		}
		o.Documents += res.OriginalDocuments
		o.Chunks += res.ChunksCreated
		if progress != nil {
			progress(kind, end, total)
		}
	}
	return o
}

// Init loads every kind when the store is empty, or unconditionally after a reset when force is set.
// It reports whether a load ran.
func (s *Service) Init(ctx context.Context, force bool, progress ProgressFunc) ([]Outcome, bool, error) {
	if force {
		if err := s.Reset(ctx); err != nil {
			return nil, false, err
		}
	} else {
		if err := s.EnsureCollections(ctx); err != nil {
			return nil, false, err
		}
		st, err := s.Status(ctx)
		if err != nil {
			return nil, false, err
		}
		if st.Populated {
			s.logger.Info("Document store already populated, skipping load", zap.Any("counts", st.Counts))
			return nil, false, nil
		}
	}
	return s.Load(ctx, loader.Kinds(), progress), true, nil
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func sliceMeta(mds []metadata.Metadata, start, end int) []metadata.Metadata {
	if start >= len(mds) {
		return nil
	}
	return mds[start:min(end, len(mds))]
}
