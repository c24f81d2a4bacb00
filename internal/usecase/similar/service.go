// Package similar finds projects that resemble a named one.
package similar

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
	"github.com/kailas-cloud/careerdex/internal/domain/search/result"
)

// NotFoundError reports an anchor project with no match.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("Project '%s' not found", e.Name) }

// Is matches domain.ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == domain.ErrNotFound }

// Service locates an anchor project by name and searches with its text.
type Service struct {
	search Searcher
}

// New creates a similar-projects service.
func New(search Searcher) *Service {
	return &Service{search: search}
}

// Similar returns up to TopK projects closest to the anchor, excluding the anchor itself.
// Neither hop applies a similarity threshold. An anchor that cannot be found is a *NotFoundError.
func (s *Service) Similar(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error) {
	anchorReq, err := request.NewUnfiltered(req.ProjectName(), request.SimilarCollection, 1)
	if err != nil {
		return nil, err
	}
	anchors, err := s.search.Search(ctx, &anchorReq)
	if err != nil {
		return nil, fmt.Errorf("find anchor: %w", err)
	}
	if len(anchors) == 0 {
		return nil, &NotFoundError{Name: req.ProjectName()}
	}
	anchor := anchors[0]

	nearReq, err := request.NewUnfiltered(anchor.Document(), request.SimilarCollection, req.TopK()+1)
	if err != nil {
		return nil, err
	}
	near, err := s.search.Search(ctx, &nearReq)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	out := make([]result.Result, 0, req.TopK())
	for _, r := range near {
		if r.ID() == anchor.ID() {
			continue
		}
		out = append(out, r)
		if len(out) == req.TopK() {
			break
		}
	}
	return out, nil
}
