package skills

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Store reads whole collections.
type Store interface {
	GetAll(ctx context.Context, collection string, include record.Include) ([]record.Record, error)
}
