package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
)

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks, err := Split("short", 500, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, chunks)

	exact := strings.Repeat("a", 500)
	chunks, err = Split(exact, 500, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{exact}, chunks)
}

func TestSplit_1200Chars(t *testing.T) {
	text := strings.Repeat("a", 450) + strings.Repeat("b", 450) + strings.Repeat("c", 300)

	chunks, err := Split(text, 500, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, text[0:500], chunks[0])
	assert.Equal(t, text[450:950], chunks[1])
	assert.Equal(t, text[900:1200], chunks[2])
	// adjacent windows share overlap characters
	assert.Equal(t, chunks[0][450:], chunks[1][:50])
}

func TestSplit_StopsWhenWindowReachesEnd(t *testing.T) {
	chunks, err := Split(strings.Repeat("x", 950), 500, 50)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[1], 500)
}

func TestSplit_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 12)

	chunks, err := Split(text, 5, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("é", 5), chunks[0])
	assert.Equal(t, strings.Repeat("é", 4), chunks[2])
}

func TestSplit_ReassemblesOriginal(t *testing.T) {
	var b strings.Builder
	for i := range 997 {
		b.WriteRune(rune('a' + i%26))
	}
	text := b.String()

	for _, tc := range []struct{ size, overlap int }{{500, 50}, {100, 0}, {64, 63}, {333, 100}} {
		chunks, err := Split(text, tc.size, tc.overlap)
		require.NoError(t, err)

		rebuilt := chunks[0]
		for _, c := range chunks[1:] {
			assert.LessOrEqual(t, len(c), tc.size)
			rebuilt += c[tc.overlap:]
		}
		assert.Equal(t, text, rebuilt, "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestSplit_InvalidParams(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{0, 0}, {10, 10}, {10, -1}, {request.MaxChunkSize + 1, 0}} {
		_, err := Split("abc", tc.size, tc.overlap)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestSplit_MaxChunkIsValidQuery(t *testing.T) {
	text := strings.Repeat("é", request.MaxChunkSize+300)

	chunks, err := Split(text, request.MaxChunkSize, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), request.MaxQueryLength)
	}
}

func TestChunk_MetadataPerChunk(t *testing.T) {
	long := strings.Repeat("z", 1200)
	metas := []metadata.Metadata{{"type": "project", "name": "A"}}

	docs, outMetas, err := Chunk([]string{long, "tiny"}, metas, 500, 50)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	require.Len(t, outMetas, 4)

	for i := 0; i < 3; i++ {
		assert.Equal(t, i, outMetas[i][IndexKey])
		assert.Equal(t, "project", outMetas[i]["type"])
	}
	assert.Equal(t, "tiny", docs[3])
	assert.Nil(t, outMetas[3])

	// the caller's metadata is not modified
	_, ok := metas[0][IndexKey]
	assert.False(t, ok)
}

func TestChunk_UnsplitKeepsMetadata(t *testing.T) {
	md := metadata.Metadata{"type": "work_history"}

	docs, metas, err := Chunk([]string{"one"}, []metadata.Metadata{md}, 500, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, docs)
	assert.Equal(t, md, metas[0])
	assert.NotContains(t, metas[0], IndexKey)
}

func TestChunk_SplitWithoutMetadata(t *testing.T) {
	_, metas, err := Chunk([]string{strings.Repeat("q", 20)}, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, metadata.Metadata{IndexKey: 1}, metas[1])
}
