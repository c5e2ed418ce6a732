package rag

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/embedding"
	"voice-assistant-be/pkg/vectorindex"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: s.vector},
	}, nil
}

func writeKB(t *testing.T, indicesDir, kbID string, vectors [][]float32, chunks []string, files []string) {
	t.Helper()
	dir := filepath.Join(indicesDir, kbID)
	require.NoError(t, os.MkdirAll(dir, 0755))

	ix := vectorindex.New()
	for _, v := range vectors {
		ix.Add(v)
	}
	require.NoError(t, ix.Persist(filepath.Join(dir, "index.json")))

	chunkData, err := json.Marshal(chunks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), chunkData, 0644))

	meta := map[string]interface{}{
		"ntotal":      len(vectors),
		"chunk_count": len(chunks),
		"files":       files,
	}
	metaData, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), metaData, 0644))
}

func TestSearchNoKnowledgeBase(t *testing.T) {
	r := NewRetriever(t.TempDir(), NoKnowledgeBase, &stubEmbedder{err: errors.New("must not be called")}, nil, logger.NopLogger{})

	contextStr, citations, err := r.Search(context.Background(), "anything", 3)

	assert.NoError(t, err)
	assert.Equal(t, "I don't have access to a knowledge base.", contextStr)
	assert.Empty(t, citations)
	assert.False(t, r.HasKnowledgeBase())
}

func TestSearchMissingIndex(t *testing.T) {
	indicesDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(indicesDir, "docs"), 0755))

	r := NewRetriever(indicesDir, "docs", &stubEmbedder{vector: []float32{1, 0}}, nil, logger.NopLogger{})
	contextStr, citations, err := r.Search(context.Background(), "query", 3)

	assert.NoError(t, err)
	assert.Equal(t, "No relevant info found in knowledge base.", contextStr)
	assert.Empty(t, citations)
}

func TestSearchReturnsRankedCitations(t *testing.T) {
	indicesDir := t.TempDir()
	writeKB(t, indicesDir, "docs",
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
		[]string{"chunk zero", "chunk one", "chunk two"},
		[]string{"report.pdf"},
	)

	r := NewRetriever(indicesDir, "docs", &stubEmbedder{vector: []float32{1, 0}}, nil, logger.NopLogger{})
	contextStr, citations, err := r.Search(context.Background(), "What is the revenue?", 2)

	require.NoError(t, err)
	require.Len(t, citations, 2)
	assert.Equal(t, 0, citations[0].ChunkID)
	assert.Equal(t, 2, citations[1].ChunkID)
	for _, c := range citations {
		assert.Equal(t, "report.pdf", c.File)
		assert.GreaterOrEqual(t, c.ChunkID, 0)
		assert.Less(t, c.ChunkID, 3)
	}
	assert.Contains(t, contextStr, "chunk zero")
	assert.Contains(t, contextStr, "chunk two")
	assert.Contains(t, contextStr, "\n\n---\n\n")
}

func TestSearchClampsTopK(t *testing.T) {
	indicesDir := t.TempDir()
	writeKB(t, indicesDir, "docs",
		[][]float32{{1, 0}, {0, 1}},
		[]string{"a", "b"},
		nil,
	)

	r := NewRetriever(indicesDir, "docs", &stubEmbedder{vector: []float32{1, 0}}, nil, logger.NopLogger{})
	_, citations, err := r.Search(context.Background(), "q", 50)

	require.NoError(t, err)
	assert.Len(t, citations, 2)
}

func TestSearchFileNameFallsBackToKBID(t *testing.T) {
	indicesDir := t.TempDir()
	writeKB(t, indicesDir, "docs",
		[][]float32{{1, 0}},
		[]string{"only chunk"},
		nil,
	)

	r := NewRetriever(indicesDir, "docs", &stubEmbedder{vector: []float32{1, 0}}, nil, logger.NopLogger{})
	_, citations, err := r.Search(context.Background(), "q", 1)

	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "docs", citations[0].File)
}

func TestSearchEmbedFailureIsRetrievalFailed(t *testing.T) {
	indicesDir := t.TempDir()
	writeKB(t, indicesDir, "docs",
		[][]float32{{1, 0}},
		[]string{"chunk"},
		nil,
	)

	r := NewRetriever(indicesDir, "docs", &stubEmbedder{err: errors.New("boom")}, nil, logger.NopLogger{})
	_, _, err := r.Search(context.Background(), "q", 1)

	assert.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestSearchUsesCache(t *testing.T) {
	indicesDir := t.TempDir()
	writeKB(t, indicesDir, "docs",
		[][]float32{{1, 0}},
		[]string{"chunk"},
		nil,
	)

	cache := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	r := NewRetriever(indicesDir, "docs", &stubEmbedder{vector: []float32{1, 0}}, cache, logger.NopLogger{})

	_, citations, err := r.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	require.Len(t, citations, 1)

	// Index files removed; the cached copy must still serve.
	require.NoError(t, os.RemoveAll(filepath.Join(indicesDir, "docs")))
	_, citations, err = r.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Len(t, citations, 1)
}
