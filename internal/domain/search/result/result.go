package result

import "github.com/kailas-cloud/careerdex/internal/domain/metadata"

// Result is a single retrieval hit.
type Result struct {
	id         string
	document   string
	metadata   metadata.Metadata
	similarity float64
}

// New creates a search result.
func New(id, document string, md metadata.Metadata, similarity float64) Result {
	return Result{id: id, document: document, metadata: md, similarity: similarity}
}

// ID returns the record identifier.
func (r *Result) ID() string { return r.id }

// Document returns the record text.
func (r *Result) Document() string { return r.document }

// Metadata returns the record metadata, nil when stripped.
func (r *Result) Metadata() metadata.Metadata { return r.metadata }

// Similarity returns 1 - cosine distance.
func (r *Result) Similarity() float64 { return r.similarity }

// WithoutMetadata returns a copy with metadata stripped.
func (r Result) WithoutMetadata() Result {
	r.metadata = nil
	return r
}
