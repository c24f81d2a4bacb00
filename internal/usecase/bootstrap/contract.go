package bootstrap

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/ingest/loader"
	"github.com/kailas-cloud/careerdex/internal/usecase/index"
)

// Store manages collections.
type Store interface {
	CreateCollection(ctx context.Context, name string) error
	Count(ctx context.Context, collection string) (int, error)
	Reset(ctx context.Context) error
}

// Indexer writes documents into a collection.
type Indexer interface {
	Index(ctx context.Context, req index.Request) (index.Result, error)
}

// Loader renders source data files.
type Loader interface {
	Load(kind loader.Kind) (loader.Batch, error)
}
