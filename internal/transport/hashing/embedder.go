// Package hashing is an offline embedder: word tokens are hashed into a fixed
// number of buckets and the count vector is L2-normalised.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/kailas-cloud/careerdex/internal/domain"
)

// Embedder produces deterministic bag-of-words vectors.
type Embedder struct {
	dim int
}

// NewEmbedder creates an embedder with dim buckets.
func NewEmbedder(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing embedder: dimension must be positive, got %d", dim)
	}
	return &Embedder{dim: dim}, nil
}

// Dimension returns the vector size.
func (e *Embedder) Dimension() int { return e.dim }

// Embed vectorizes one text. Token usage is the number of tokens seen.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	vec, n := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: n, TotalTokens: n}, nil
}

// BatchEmbed vectorizes texts in order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		vec, n := e.vector(text)
		out.Embeddings[i] = vec
		out.PromptTokens += n
		out.TotalTokens += n
	}
	return out, nil
}

func (e *Embedder) vector(text string) ([]float32, int) {
	vec := make([]float32, e.dim)
	tokens := Tokenize(text)
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum64()%uint64(e.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, 0
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, len(tokens)
}

// Tokenize lower-cases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
