package tool

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
	"github.com/kailas-cloud/careerdex/internal/domain/search/result"
	"github.com/kailas-cloud/careerdex/internal/usecase/index"
	"github.com/kailas-cloud/careerdex/internal/usecase/skills"
)

// Searcher answers semantic queries.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// Indexer writes documents.
type Indexer interface {
	Index(ctx context.Context, req index.Request) (index.Result, error)
}

// SimilarFinder finds projects near a named one.
type SimilarFinder interface {
	Similar(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error)
}

// SkillAnalyzer aggregates skills.
type SkillAnalyzer interface {
	Analyze(ctx context.Context) (skills.Analysis, error)
}
