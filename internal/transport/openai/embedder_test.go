package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type embeddingsCall struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
	Dimensions     int      `json:"dimensions"`
	User           string   `json:"user"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// fakeProvider answers /embeddings with one vector per input, {len(text), index},
// written in reverse index order. drop removes that many trailing items.
type fakeProvider struct {
	hits atomic.Int32
	last embeddingsCall
	drop int
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	if r.URL.Path != "/embeddings" || r.Header.Get("Authorization") != "Bearer test-key" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&f.last); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items := make([]embeddingItem, 0, len(f.last.Input))
	for i := len(f.last.Input) - 1; i >= 0; i-- {
		items = append(items, embeddingItem{
			Object:    "embedding",
			Embedding: []float32{float32(len(f.last.Input[i])), float32(i)},
			Index:     i,
		})
	}
	items = items[:len(items)-min(f.drop, len(items))]

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"model":  f.last.Model,
		"data":   items,
		"usage":  map[string]int{"prompt_tokens": 7 * len(f.last.Input), "total_tokens": 7 * len(f.last.Input)},
	})
}

func newTestEmbedder(t *testing.T, h http.Handler) *Embedder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		User:       "careerdex",
		Provider:   "fake",
	})
}

func TestBatchEmbed_OrdersByIndex(t *testing.T) {
	fp := &fakeProvider{}
	emb := newTestEmbedder(t, fp)
	texts := []string{"go", "python backend", "rust"}

	res, err := emb.BatchEmbed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, res.Embeddings, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float32{float32(len(text)), float32(i)}, res.Embeddings[i], "input %d", i)
	}
	assert.Equal(t, 21, res.PromptTokens)
	assert.Equal(t, 21, res.TotalTokens)

	assert.Equal(t, texts, fp.last.Input)
	assert.Equal(t, "text-embedding-3-small", fp.last.Model)
	assert.Equal(t, "float", fp.last.EncodingFormat)
	assert.Equal(t, 2, fp.last.Dimensions)
	assert.Equal(t, "careerdex", fp.last.User)
}

func TestBatchEmbed_CountMismatch(t *testing.T) {
	fp := &fakeProvider{drop: 1}
	emb := newTestEmbedder(t, fp)
	mismatches := metrics.EmbeddingErrorsTotal.WithLabelValues("fake", "text-embedding-3-small", "count_mismatch")
	before := testutil.ToFloat64(mismatches)

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b", "c"})

	require.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	assert.Contains(t, err.Error(), "got 2 embeddings for 3 inputs")
	assert.Nil(t, res.Embeddings)
	assert.Equal(t, before+1, testutil.ToFloat64(mismatches))
}

func TestBatchEmbed_EmptyInputSkipsProvider(t *testing.T) {
	fp := &fakeProvider{}
	emb := newTestEmbedder(t, fp)

	for _, in := range [][]string{nil, {}} {
		res, err := emb.BatchEmbed(context.Background(), in)
		require.NoError(t, err)
		assert.Nil(t, res.Embeddings)
		assert.Zero(t, res.TotalTokens)
	}
	assert.Zero(t, fp.hits.Load())
}

func TestEmbed_SingleInput(t *testing.T) {
	fp := &fakeProvider{}
	emb := newTestEmbedder(t, fp)

	res, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, res.Embedding)
	assert.Equal(t, 7, res.PromptTokens)
	assert.Equal(t, []string{"hello"}, fp.last.Input)
}

func TestEmbed_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "openai error body",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`,
			wantMsg: "rate limit exceeded",
		},
		{
			name:    "detail body",
			status:  http.StatusBadRequest,
			body:    `{"detail":"model not found"}`,
			wantMsg: "model not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
			require.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "boom", extractDetail([]byte(`{"detail":"boom"}`)))
	assert.Empty(t, extractDetail([]byte(`not json`)))
}
