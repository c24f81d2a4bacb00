package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/config"
	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/ingest/chunker"
	"github.com/kailas-cloud/careerdex/internal/repository/bolt"
	"github.com/kailas-cloud/careerdex/internal/usecase/skills"
	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Config{}
	cfg.Database.Path = filepath.Join(dir, "careerdex.db")
	cfg.Ingest.DataDir = filepath.Join(dir, "experience")
	cfg.Embedding.Cache = true
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Bootstrap.EnsureCollections(context.Background()))
	return a
}

func addWithIDs(t *testing.T, a *App, coll string, ids, docs []string, metas []metadata.Metadata) {
	t.Helper()
	ctx := context.Background()
	emb, err := domain.EmbedAll(ctx, a.DocEmbedder, docs)
	require.NoError(t, err)
	recs, err := record.Zip(ids, docs, emb.Embeddings, metas)
	require.NoError(t, err)
	require.NoError(t, a.Store.Add(ctx, coll, recs))
}

func ptr[T any](v T) *T { return &v }

func TestScenario_BasicSearch(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	addWithIDs(t, a, collection.Experience,
		[]string{"d1", "d2"},
		[]string{"Python backend engineer, 5 years", "Java enterprise developer"},
		nil)

	resp := a.Tools.SearchExperience(context.Background(), tool.SearchInput{
		Query:               "python backend",
		TopK:                ptr(2),
		SimilarityThreshold: ptr(0.0),
	})

	require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "d1", resp.Results[0].ID)
	if len(resp.Results) == 2 {
		assert.Equal(t, "d2", resp.Results[1].ID)
		assert.Greater(t, resp.Results[0].Similarity, resp.Results[1].Similarity)
	}
}

func TestScenario_ThresholdExclusion(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	addWithIDs(t, a, collection.Experience,
		[]string{"d1", "d2"},
		[]string{"Python backend engineer, 5 years", "Java enterprise developer"},
		nil)

	resp := a.Tools.SearchExperience(context.Background(), tool.SearchInput{
		Query:               "python developer",
		TopK:                ptr(2),
		SimilarityThreshold: ptr(0.99),
	})

	require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
	require.NotNil(t, resp.TotalResults)
	assert.Zero(t, *resp.TotalResults)
	assert.Empty(t, resp.Results)
}

func TestScenario_Chunking(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	doc := strings.Repeat("abcdefghij", 120)

	resp := a.Tools.IndexDocuments(context.Background(), tool.IndexInput{
		Documents: []string{doc},
		Metadata:  []metadata.Metadata{{"type": "work_experience", "company": "Acme"}},
	})
	require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
	require.NotNil(t, resp.ChunksCreated)
	assert.Equal(t, 3, *resp.ChunksCreated)
	assert.Equal(t, 1, *resp.OriginalDocuments)

	recs, err := a.Store.GetAll(context.Background(), collection.Experience, record.IncludeMetadata)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	indexes := make([]string, 0, len(recs))
	for _, r := range recs {
		assert.Equal(t, "Acme", r.Metadata.String("company"))
		assert.Equal(t, "work_experience", r.Metadata.String("type"))
		indexes = append(indexes, r.Metadata.String(chunker.IndexKey))
	}
	assert.ElementsMatch(t, []string{"0", "1", "2"}, indexes)
}

func TestScenario_LargeChunkIsSearchable(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()
	doc := "Led the platform migration. " + strings.Repeat("é", 3000)

	resp := a.Tools.IndexDocuments(ctx, tool.IndexInput{
		Documents:  []string{doc, "Small CLI for dotfiles"},
		Collection: ptr(collection.Projects),
		Metadata:   []metadata.Metadata{{"name": "Migration"}, {"name": "Dotfiles"}},
		ChunkSize:  ptr(4000),
	})
	require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
	require.Equal(t, 2, *resp.ChunksCreated)
	require.Greater(t, len(doc), 4096)

	found := a.Tools.SearchExperience(ctx, tool.SearchInput{
		Query:               doc,
		Collection:          ptr(collection.Projects),
		TopK:                ptr(1),
		SimilarityThreshold: ptr(0.0),
	})
	require.Equal(t, tool.StatusSuccess, found.Status, found.Message)
	require.Len(t, found.Results, 1)
	assert.Equal(t, doc, found.Results[0].Document)

	similar := a.Tools.GetSimilarProjects(ctx, tool.SimilarInput{ProjectName: "Dotfiles", TopK: ptr(1)})
	require.Equal(t, tool.StatusSuccess, similar.Status, similar.Message)
}

func writeData(t *testing.T, dir, name string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o600))
}

func TestScenario_SkillAggregationFromDataFiles(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg.Ingest.DataDir, "work_history.json", map[string]any{
		"work_history": []map[string]any{{
			"company": "Acme", "title": "Engineer", "duration": "2020-2023",
			"responsibilities": []string{"Built APIs"},
			"skills":           []string{"Python", "SQL"},
		}},
	})
	writeData(t, cfg.Ingest.DataDir, "projects.json", map[string]any{
		"projects": []map[string]any{{
			"name": "Atlas", "description": "Search engine", "role": "Lead",
			"technologies": []string{"Python", "Docker"},
		}},
	})

	a := newTestApp(t, cfg)
	ctx := context.Background()

	outcomes, loaded, err := a.Bootstrap.Init(ctx, false, nil)
	require.NoError(t, err)
	assert.True(t, loaded)
	for _, o := range outcomes {
		if o.Kind != "skills" {
			assert.NoError(t, o.Err, o.Kind)
		}
	}

	st, err := a.Bootstrap.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Populated)
	assert.Equal(t, 1, st.Counts[collection.Experience])
	assert.Equal(t, 1, st.Counts[collection.Projects])

	resp := a.Tools.AnalyzeSkills(ctx)
	require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
	assert.Equal(t, 3, resp.TotalUniqueSkills)
	require.NotEmpty(t, resp.TopSkills)
	assert.Equal(t, skills.SkillCount{Skill: "Python", Count: 2}, resp.TopSkills[0])

	similar := a.Tools.GetSimilarProjects(ctx, tool.SimilarInput{ProjectName: "Atlas"})
	require.Equal(t, tool.StatusSuccess, similar.Status, similar.Message)

	_, loaded, err = a.Bootstrap.Init(ctx, false, nil)
	require.NoError(t, err)
	assert.False(t, loaded, "populated store should not be reloaded")
}

func TestHandler_EndToEnd(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	addWithIDs(t, a, collection.Experience,
		[]string{"d1"}, []string{"Python backend engineer"}, nil)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/tool/search_experience", "application/json",
		strings.NewReader(`{"query":"python backend","similarity_threshold":0}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Status       string `json:"status"`
		TotalResults int    `json:"total_results"`
		Results      []struct {
			ID       string         `json:"id"`
			Metadata map[string]any `json:"metadata"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "success", body.Status)
	require.Equal(t, 1, body.TotalResults)
	assert.Equal(t, "d1", body.Results[0].ID)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestTablePrefix(t *testing.T) {
	assert.Equal(t, "careerdex_", tablePrefix("careerdex:"))
	assert.Equal(t, "my_app_", tablePrefix("my-app."))
}

func TestWire_InstructionEmbedders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.QueryInstruction = "query: "
	cfg.Embedding.DocumentInstruction = "passage: "

	a := newTestApp(t, cfg)
	assert.IsType(t, &domain.InstructionEmbedder{}, a.QueryEmbedder)
	assert.IsType(t, &domain.InstructionEmbedder{}, a.DocEmbedder)
}

type countingProvider struct{ calls int }

func (c *countingProvider) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	c.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

func TestBuildEmbedder_CacheHitSkipsRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.Dimensions = 2
	cfg.Embedding.RateLimitRPS = 0.001
	cfg.Embedding.RateLimitBurst = 1

	kv, err := bolt.Open(cfg.Database.Path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	provider := &countingProvider{}
	emb, err := buildEmbedder(cfg, kv, provider, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = emb.Embed(ctx, "python backend")
	require.NoError(t, err)

	// the only token is spent, so a limited call would fail against the deadline
	again, err := emb.Embed(ctx, "python backend")
	require.NoError(t, err)
	assert.Equal(t, []float32{14, 1}, again.Embedding)
	assert.Equal(t, 1, provider.calls)

	_, err = emb.Embed(ctx, "go services")
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, provider.calls)
}

func TestProperties_Retrieval(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	docs := []string{
		"Python backend engineer building payment APIs",
		"Java enterprise developer on banking middleware",
		"Kubernetes platform team lead running observability",
		"Data scientist training recommendation models",
		"Frontend developer shipping React design systems",
	}
	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	addWithIDs(t, a, collection.Experience, ids, docs, nil)

	t.Run("document is found by its own text", func(t *testing.T) {
		for i, doc := range docs {
			resp := a.Tools.SearchExperience(ctx, tool.SearchInput{
				Query: doc, TopK: ptr(1), SimilarityThreshold: ptr(0.0),
			})
			require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
			require.Len(t, resp.Results, 1)
			assert.Equal(t, ids[i], resp.Results[0].ID)
		}
	})

	t.Run("higher threshold returns a subset", func(t *testing.T) {
		resultIDs := func(threshold float64) []string {
			resp := a.Tools.SearchExperience(ctx, tool.SearchInput{
				Query: "backend developer", TopK: ptr(5), SimilarityThreshold: ptr(threshold),
			})
			require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
			out := make([]string, len(resp.Results))
			for i, r := range resp.Results {
				out[i] = r.ID
			}
			return out
		}
		loose, strict := resultIDs(0.05), resultIDs(0.3)
		assert.Subset(t, loose, strict)
	})

	t.Run("never more than top_k", func(t *testing.T) {
		for k := 1; k <= 6; k++ {
			resp := a.Tools.SearchExperience(ctx, tool.SearchInput{
				Query: "developer", TopK: ptr(k), SimilarityThreshold: ptr(0.0),
			})
			require.Equal(t, tool.StatusSuccess, resp.Status, resp.Message)
			assert.LessOrEqual(t, len(resp.Results), k)
		}
	})
}
