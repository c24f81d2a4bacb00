// Package chunker splits long documents into overlapping character windows.
package chunker

import (
	"fmt"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
)

// IndexKey is the metadata key holding a chunk's position in its source document.
const IndexKey = "chunk_index"

// Validate checks a size/overlap pair. Size is capped so every chunk is also a valid query.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrInvalidRequest, size)
	}
	if size > request.MaxChunkSize {
		return fmt.Errorf("%w: chunk_size must be at most %d, got %d", domain.ErrInvalidRequest, request.MaxChunkSize, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", domain.ErrInvalidRequest, overlap)
	}
	return nil
}

// Split cuts text into windows of size runes advancing by size-overlap.
// Text no longer than size comes back as a single chunk. The last window may be shorter.
func Split(text string, size, overlap int) ([]string, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// Chunk splits every document. metas may be shorter than docs or nil; missing
// entries are empty. Chunks of a split document get a copy of its metadata
// with IndexKey set; unsplit documents keep their metadata as is.
func Chunk(docs []string, metas []metadata.Metadata, size, overlap int) ([]string, []metadata.Metadata, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, nil, err
	}

	outDocs := make([]string, 0, len(docs))
	outMetas := make([]metadata.Metadata, 0, len(docs))
	for i, doc := range docs {
		var md metadata.Metadata
		if i < len(metas) {
			md = metas[i]
		}

		parts, err := Split(doc, size, overlap)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 1 {
			outDocs = append(outDocs, doc)
			outMetas = append(outMetas, md)
			continue
		}

		for j, part := range parts {
			cm := md.Clone()
			cm[IndexKey] = j
			outDocs = append(outDocs, part)
			outMetas = append(outMetas, cm)
		}
	}
	return outDocs, outMetas, nil
}
