package index

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Store persists embedded records.
type Store interface {
	Add(ctx context.Context, collection string, records []record.Record) error
}
