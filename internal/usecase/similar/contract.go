package similar

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
	"github.com/kailas-cloud/careerdex/internal/domain/search/result"
)

// Searcher runs semantic searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}
