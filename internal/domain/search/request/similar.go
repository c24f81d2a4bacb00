package request

import (
	"fmt"

	"github.com/kailas-cloud/careerdex/internal/domain"
)

// SimilarRequest is a validated "find similar projects" query.
type SimilarRequest struct {
	projectName string
	topK        int
}

// NewSimilar validates similar request parameters.
func NewSimilar(projectName string, topK int) (SimilarRequest, error) {
	if projectName == "" {
		return SimilarRequest{}, fmt.Errorf("%w: project_name is required", domain.ErrInvalidRequest)
	}
	if len(projectName) > MaxQueryLength {
		return SimilarRequest{}, fmt.Errorf("%w: project_name too long (max %d bytes)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if topK <= 0 {
		return SimilarRequest{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidRequest, topK)
	}
	if topK >= MaxTopK {
		topK = MaxTopK - 1
	}
	return SimilarRequest{projectName: projectName, topK: topK}, nil
}

// ProjectName returns the anchor project name.
func (r *SimilarRequest) ProjectName() string { return r.projectName }

// TopK returns the number of similar projects to return.
func (r *SimilarRequest) TopK() int { return r.topK }
