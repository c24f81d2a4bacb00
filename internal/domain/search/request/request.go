package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/careerdex/internal/domain"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/search/filter"
)

// Search parameter defaults and limits.
const (
	// MaxChunkSize is the largest chunk_size, in characters.
	MaxChunkSize        = 4096
	// MaxQueryLength is the maximum query length in bytes. Any stored chunk fits.
	MaxQueryLength      = utf8.UTFMax * MaxChunkSize
	DefaultTopK         = 5
	MaxTopK             = 500
	DefaultThreshold    = 0.7
	DefaultCollection   = collection.Experience
	DefaultSimilarTopK  = 3
	SimilarCollection   = collection.Projects
	DefaultIncludeMeta  = true
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Request is a validated semantic search query.
type Request struct {
	query           string
	collection      string
	filters         filter.Expression
	topK            int
	threshold       float64
	includeMetadata bool
	keepAll         bool
}

// New validates search parameters. Defaults are applied by the caller.
func New(
	query, coll string,
	filters filter.Expression,
	topK int,
	threshold float64,
	includeMetadata bool,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if err := collection.ValidateName(coll); err != nil {
		return Request{}, err
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidRequest, topK)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if threshold < 0 || threshold > 1 {
		return Request{}, fmt.Errorf("%w: similarity_threshold must be between 0 and 1", domain.ErrInvalidRequest)
	}

	return Request{
		query:           query,
		collection:      coll,
		filters:         filters,
		topK:            topK,
		threshold:       threshold,
		includeMetadata: includeMetadata,
	}, nil
}

// NewUnfiltered builds a request that keeps every top_k match whatever its
// similarity, including negative ones.
func NewUnfiltered(query, coll string, topK int) (Request, error) {
	r, err := New(query, coll, filter.Expression{}, topK, 0, true)
	if err != nil {
		return Request{}, err
	}
	r.keepAll = true
	return r, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Collection returns the collection to search.
func (r *Request) Collection() string { return r.collection }

// Filters returns the metadata pre-filter.
func (r *Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of nearest neighbours to fetch.
func (r *Request) TopK() int { return r.topK }

// Threshold returns the minimum similarity a result must reach.
func (r *Request) Threshold() float64 { return r.threshold }

// KeepAll reports whether the similarity threshold is skipped.
func (r *Request) KeepAll() bool { return r.keepAll }

// IncludeMetadata reports whether results carry metadata.
func (r *Request) IncludeMetadata() bool { return r.includeMetadata }
