package record

import (
	"fmt"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/search/filter"
)

// Record is one stored document with its embedding.
type Record struct {
	ID        string
	Document  string
	Embedding []float32
	Metadata  metadata.Metadata
}

// Zip assembles records from parallel slices. metas may be nil; otherwise all
// slices must have the same length. Ids must be non-empty and unique.
func Zip(ids, docs []string, embeddings [][]float32, metas []metadata.Metadata) ([]Record, error) {
	n := len(ids)
	if len(docs) != n || len(embeddings) != n || (metas != nil && len(metas) != n) {
		return nil, fmt.Errorf("%w: ids=%d documents=%d embeddings=%d metadata=%d",
			domain.ErrLengthMismatch, n, len(docs), len(embeddings), len(metas))
	}

	seen := make(map[string]struct{}, n)
	out := make([]Record, n)
	for i := range ids {
		if ids[i] == "" {
			return nil, fmt.Errorf("record %d: id is required", i)
		}
		if _, dup := seen[ids[i]]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, ids[i])
		}
		seen[ids[i]] = struct{}{}

		var md metadata.Metadata
		if metas != nil {
			md = metas[i]
		}
		if err := md.Validate(); err != nil {
			return nil, fmt.Errorf("record %s: %w", ids[i], err)
		}
		out[i] = Record{ID: ids[i], Document: docs[i], Embedding: embeddings[i], Metadata: md}
	}
	return out, nil
}

// CheckDim verifies that every record embedding has dimension dim.
func CheckDim(records []Record, dim int) error {
	for _, r := range records {
		if len(r.Embedding) != dim {
			return fmt.Errorf("%w: record %s has %d, collection expects %d",
				domain.ErrVectorDimMismatch, r.ID, len(r.Embedding), dim)
		}
	}
	return nil
}

// Include selects the parts of a record a read returns. Ids are always returned.
type Include struct {
	Documents  bool
	Metadata   bool
	Embeddings bool
}

// IncludeAll returns every part.
var IncludeAll = Include{Documents: true, Metadata: true, Embeddings: true}

// IncludeMetadata returns ids and metadata only.
var IncludeMetadata = Include{Metadata: true}

// Apply clears the parts of r not selected by inc.
func (inc Include) Apply(r Record) Record {
	if !inc.Documents {
		r.Document = ""
	}
	if !inc.Metadata {
		r.Metadata = nil
	}
	if !inc.Embeddings {
		r.Embedding = nil
	}
	return r
}

// Query is a nearest-neighbour request against one collection.
type Query struct {
	Vector []float32
	TopK   int
	Filter filter.Expression
}

// Match is a query hit. Distance is cosine distance.
type Match struct {
	ID       string
	Document string
	Metadata metadata.Metadata
	Distance float64
}

// Similarity converts cosine distance into similarity.
func (m Match) Similarity() float64 { return 1 - m.Distance }
