// Package tool exposes the four retrieval operations as tool calls: inputs
// with defaults, a per-call deadline and status envelopes instead of errors.
package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/search/filter"
	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
	"github.com/kailas-cloud/careerdex/internal/logger"
	"github.com/kailas-cloud/careerdex/internal/metrics"
	"github.com/kailas-cloud/careerdex/internal/usecase/index"
	"github.com/kailas-cloud/careerdex/internal/usecase/skills"
)

// Tool names, also used as metric labels.
const (
	OpSearch  = "search_experience"
	OpIndex   = "index_documents"
	OpSimilar = "get_similar_projects"
	OpSkills  = "analyze_skills"
)

// DefaultCallTimeout bounds a single tool call.
const DefaultCallTimeout = 30 * time.Second

// Config holds call defaults.
type Config struct {
	CallTimeout  time.Duration
	ChunkSize    int
	ChunkOverlap int
}

// Facade runs tool calls against the use cases.
type Facade struct {
	search  Searcher
	index   Indexer
	similar SimilarFinder
	skills  SkillAnalyzer
	cfg     Config
}

// New creates a facade. Zero config values take the package defaults.
func New(search Searcher, idx Indexer, similar SimilarFinder, sk SkillAnalyzer, cfg Config) *Facade {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = request.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = request.DefaultChunkOverlap
	}
	return &Facade{search: search, index: idx, similar: similar, skills: sk, cfg: cfg}
}

// SearchExperience runs search_experience.
func (f *Facade) SearchExperience(ctx context.Context, in SearchInput) SearchResponse {
	ctx, done := f.begin(ctx, OpSearch)

	req, err := buildSearchRequest(in)
	if err != nil {
		done(err)
		return SearchResponse{Status: StatusError, Message: failure(OpSearch, err), Results: []ResultView{}}
	}

	results, err := f.search.Search(ctx, &req)
	done(err)
	if err != nil {
		return SearchResponse{Status: StatusError, Message: failure(OpSearch, err), Results: []ResultView{}}
	}

	metrics.SearchResults.WithLabelValues(req.Collection()).Observe(float64(len(results)))
	total := len(results)
	return SearchResponse{
		Status:       StatusSuccess,
		Query:        req.Query(),
		Collection:   req.Collection(),
		TotalResults: &total,
		Results:      views(results),
	}
}

// IndexDocuments runs index_documents.
func (f *Facade) IndexDocuments(ctx context.Context, in IndexInput) IndexResponse {
	ctx, done := f.begin(ctx, OpIndex)

	req := index.Request{
		Collection:   valueOr(in.Collection, request.DefaultCollection),
		Documents:    in.Documents,
		Metadata:     in.Metadata,
		ChunkSize:    valueOr(in.ChunkSize, f.cfg.ChunkSize),
		ChunkOverlap: valueOr(in.ChunkOverlap, f.cfg.ChunkOverlap),
	}
	res, err := f.index.Index(ctx, req)
	done(err)
	if err != nil {
		return IndexResponse{Status: StatusError, Message: failure(OpIndex, err)}
	}

	metrics.IndexedChunksTotal.WithLabelValues(req.Collection).Add(float64(res.ChunksCreated))
	return IndexResponse{
		Status:            StatusSuccess,
		Message:           fmt.Sprintf("Indexed %d document chunks", res.ChunksCreated),
		Collection:        req.Collection,
		OriginalDocuments: &res.OriginalDocuments,
		ChunksCreated:     &res.ChunksCreated,
	}
}

// GetSimilarProjects runs get_similar_projects.
func (f *Facade) GetSimilarProjects(ctx context.Context, in SimilarInput) SimilarResponse {
	ctx, done := f.begin(ctx, OpSimilar)

	req, err := request.NewSimilar(in.ProjectName, valueOr(in.TopK, request.DefaultSimilarTopK))
	if err != nil {
		done(err)
		return SimilarResponse{Status: StatusError, Message: failure(OpSimilar, err)}
	}

	found, err := f.similar.Similar(ctx, &req)
	done(err)
	if err != nil {
		return SimilarResponse{Status: StatusError, Message: failure(OpSimilar, err)}
	}
	return SimilarResponse{
		Status:          StatusSuccess,
		OriginalProject: req.ProjectName(),
		SimilarProjects: views(found),
	}
}

// AnalyzeSkills runs analyze_skills.
func (f *Facade) AnalyzeSkills(ctx context.Context) SkillsResponse {
	ctx, done := f.begin(ctx, OpSkills)

	a, err := f.skills.Analyze(ctx)
	done(err)
	if err != nil {
		return SkillsResponse{Status: StatusError, Message: failure(OpSkills, err)}
	}

	categories := make(map[string][]string, len(skills.Categories))
	for _, c := range skills.Categories {
		categories[c] = []string{}
	}
	view := SkillAnalysisView{SkillDiversity: a.TotalUnique, AverageSkillFrequency: a.AverageFrequency}
	if a.HasSkills {
		mostUsed := a.MostUsed
		view.MostUsed = &mostUsed
	}
	top := RankedCounts(a.Top)
	if top == nil {
		top = RankedCounts{}
	}
	return SkillsResponse{
		Status:            StatusSuccess,
		TotalUniqueSkills: a.TotalUnique,
		TopSkills:         top,
		SkillCategories:   categories,
		Analysis:          view,
	}
}

// begin applies the call deadline and returns a finisher that records metrics and logs failures.
// The finisher also releases the deadline.
func (f *Facade) begin(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	start := time.Now()
	return ctx, func(err error) {
		cancel()
		status := StatusSuccess
		if err != nil {
			status = StatusError
			logger.FromContext(ctx).Warn("Tool call failed", zap.String("tool", op), zap.Error(err))
		}
		metrics.ToolCallsTotal.WithLabelValues(op, status).Inc()
		metrics.ToolCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func buildSearchRequest(in SearchInput) (request.Request, error) {
	f, err := filter.FromMap(in.Filters)
	if err != nil {
		return request.Request{}, err
	}
	return request.New(
		in.Query,
		valueOr(in.Collection, request.DefaultCollection),
		f,
		valueOr(in.TopK, request.DefaultTopK),
		valueOr(in.SimilarityThreshold, request.DefaultThreshold),
		valueOr(in.IncludeMetadata, request.DefaultIncludeMeta),
	)
}

var failurePrefix = map[string]string{
	OpSearch:  "Search failed",
	OpIndex:   "Indexing failed",
	OpSimilar: "Failed to find similar projects",
	OpSkills:  "Failed to analyze skills",
}

// failure renders an error for the envelope.
func failure(op string, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return op + " timed out"
	case errors.Is(err, context.Canceled):
		return op + " cancelled"
	case errors.Is(err, domain.ErrNotFound):
		return err.Error()
	}
	return failurePrefix[op] + ": " + err.Error()
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
