package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/careerdex/internal/db"
	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/domain/search/filter"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "careerdex.db")
	s, err := Open(path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func addTwo(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "experience"))
	recs, err := record.Zip(
		[]string{"d1", "d2"},
		[]string{"Python developer", "Go developer"},
		[][]float32{{1, 0}, {0, 1}},
		[]metadata.Metadata{{"type": "work_history"}, {"type": "project"}},
	)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, "experience", recs))
}

func TestOpen_RejectsZeroDim(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), 0)
	require.Error(t, err)
}

func TestCreateCollection_Idempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCollection(ctx, "projects"))
	require.NoError(t, s.CreateCollection(ctx, "projects"))

	names, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, names)
}

func TestQuery_NearestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	addTwo(t, s)

	matches, err := s.Query(context.Background(), "experience", record.Query{Vector: []float32{1, 0}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "d1", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
	assert.InDelta(t, 1, matches[0].Similarity(), 1e-9)
}

func TestQuery_FilterBeforeRanking(t *testing.T) {
	s, _ := openTestStore(t)
	addTwo(t, s)

	f, err := filter.FromMap(map[string]any{"type": "project"})
	require.NoError(t, err)

	matches, err := s.Query(context.Background(), "experience", record.Query{Vector: []float32{1, 0}, TopK: 5, Filter: f})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "d2", matches[0].ID)
	assert.InDelta(t, 1, matches[0].Distance, 1e-9)
}

func TestQuery_EmptyCollection(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "skills"))

	matches, err := s.Query(ctx, "skills", record.Query{Vector: []float32{1, 0}, TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestQuery_Errors(t *testing.T) {
	s, _ := openTestStore(t)
	addTwo(t, s)
	ctx := context.Background()

	_, err := s.Query(ctx, "nope", record.Query{Vector: []float32{1, 0}, TopK: 1})
	assert.True(t, errors.Is(err, domain.ErrCollectionNotFound))

	_, err = s.Query(ctx, "experience", record.Query{Vector: []float32{1, 0, 0}, TopK: 1})
	assert.True(t, errors.Is(err, domain.ErrVectorDimMismatch))
}

func TestAdd_Errors(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	err := s.Add(ctx, "nope", []record.Record{{ID: "a", Embedding: []float32{1, 0}}})
	assert.True(t, errors.Is(err, domain.ErrCollectionNotFound))

	require.NoError(t, s.CreateCollection(ctx, "projects"))
	err = s.Add(ctx, "projects", []record.Record{{ID: "a", Embedding: []float32{1}}})
	assert.True(t, errors.Is(err, domain.ErrVectorDimMismatch))
}

func TestGetAll_InsertionOrderAndInclude(t *testing.T) {
	s, _ := openTestStore(t)
	addTwo(t, s)
	ctx := context.Background()

	// overwrite keeps position
	require.NoError(t, s.Add(ctx, "experience", []record.Record{
		{ID: "d1", Document: "Python engineer", Embedding: []float32{1, 0}},
	}))

	all, err := s.GetAll(ctx, "experience", record.IncludeAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d1", all[0].ID)
	assert.Equal(t, "Python engineer", all[0].Document)
	assert.Equal(t, "d2", all[1].ID)

	metaOnly, err := s.GetAll(ctx, "experience", record.IncludeMetadata)
	require.NoError(t, err)
	assert.Empty(t, metaOnly[1].Document)
	assert.Nil(t, metaOnly[1].Embedding)
	assert.Equal(t, "project", metaOnly[1].Metadata["type"])
}

func TestPersistence_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careerdex.db")
	s, err := Open(path, 2)
	require.NoError(t, err)
	addTwo(t, s)
	require.NoError(t, s.Close())

	reopened, err := Open(path, 2)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(context.Background(), "experience")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := reopened.GetAll(context.Background(), "experience", record.IncludeAll)
	require.NoError(t, err)
	assert.Equal(t, "d1", all[0].ID)
	assert.Equal(t, []float32{1, 0}, all[0].Embedding)
}

func TestReset(t *testing.T) {
	s, _ := openTestStore(t)
	addTwo(t, s)
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))
	names, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = s.Count(ctx, "experience")
	assert.True(t, errors.Is(err, domain.ErrCollectionNotFound))

	require.NoError(t, s.CreateCollection(ctx, "experience"))
	n, err := s.Count(ctx, "experience")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmbeddingCache(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, db.ErrKeyNotFound))

	require.NoError(t, s.Set(ctx, "k", []byte{1, 2, 3, 4}))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, v)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1, cosineSimilarity([]float32{1, 1}, []float32{2, 2}), 1e-9)
	assert.InDelta(t, 0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestPing(t *testing.T) {
	s, _ := openTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
