package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/embedding"
	"voice-assistant-be/pkg/vectorindex"

	gocache "github.com/patrickmn/go-cache"
)

// NoKnowledgeBase is the sentinel KB id for sessions without retrieval.
const NoKnowledgeBase = "default"

// ErrRetrievalFailed wraps embedding/lookup failures so callers can degrade
// to a placeholder answer instead of tearing the session down.
var ErrRetrievalFailed = errors.New("retrieval failed")

const (
	contextNoKB      = "I don't have access to a knowledge base."
	contextNoResults = "No relevant info found in knowledge base."

	contextSeparator = "\n\n---\n\n"
	previewLength    = 100
)

// Citation points the UI at the exact chunk a piece of context came from.
type Citation struct {
	File    string `json:"file"`
	ChunkID int    `json:"chunk_id"`
	Preview string `json:"preview"`
	Content string `json:"content"`
}

// Retriever answers free-text queries against one knowledge base. It is
// bound to a single KB at construction and is read-only: it never mutates
// the index files it loads.
type Retriever struct {
	kbID       string
	indicesDir string
	embedder   embedding.EmbeddingProvider
	cache      *gocache.Cache
	logger     logger.ILogger
}

type loadedKB struct {
	index  *vectorindex.Index
	chunks []string
}

func NewRetriever(indicesDir, kbID string, embedder embedding.EmbeddingProvider, cache *gocache.Cache, log logger.ILogger) *Retriever {
	return &Retriever{
		kbID:       kbID,
		indicesDir: indicesDir,
		embedder:   embedder,
		cache:      cache,
		logger:     log,
	}
}

// HasKnowledgeBase reports whether this retriever is bound to a real KB.
func (r *Retriever) HasKnowledgeBase() bool {
	return r.kbID != NoKnowledgeBase
}

// Search embeds the query, runs nearest-neighbor search and maps hits back to
// chunk texts. It returns a joined context string for the model plus one
// Citation per surviving hit, in ranked order. topK is clamped to
// [1, ntotal]; hit indices outside the chunk table are discarded.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (string, []Citation, error) {
	if !r.HasKnowledgeBase() {
		return contextNoKB, nil, nil
	}

	kb, err := r.loadKB()
	if err != nil {
		r.logger.Warn("Retriever", "Knowledge base not loadable", map[string]interface{}{"kb_id": r.kbID, "error": err.Error()})
		return contextNoResults, nil, nil
	}
	if kb.index.Ntotal() == 0 || len(kb.chunks) == 0 {
		return contextNoResults, nil, nil
	}

	resp, err := r.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return "", nil, fmt.Errorf("%w: embed query: %v", ErrRetrievalFailed, err)
	}

	hits := kb.index.Search(resp.Embedding.Values, topK)

	fileName := r.citationFileName()
	var contexts []string
	var citations []Citation
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(kb.chunks) {
			continue
		}
		chunkText := kb.chunks[hit.Index]
		contexts = append(contexts, chunkText)
		citations = append(citations, Citation{
			File:    fileName,
			ChunkID: hit.Index,
			Preview: preview(chunkText),
			Content: chunkText,
		})
	}

	if len(contexts) == 0 {
		return contextNoResults, nil, nil
	}

	return strings.Join(contexts, contextSeparator), citations, nil
}

func (r *Retriever) loadKB() (*loadedKB, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(r.kbID); ok {
			return cached.(*loadedKB), nil
		}
	}

	dir := filepath.Join(r.indicesDir, r.kbID)
	index, err := vectorindex.Load(filepath.Join(dir, "index.json"))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, "chunks.json"))
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}

	kb := &loadedKB{index: index, chunks: chunks}
	if r.cache != nil {
		r.cache.Set(r.kbID, kb, gocache.DefaultExpiration)
	}
	return kb, nil
}

// citationFileName resolves the display name for citations: the KB's first
// recorded source file, or the KB id when none is recorded.
func (r *Retriever) citationFileName() string {
	data, err := os.ReadFile(filepath.Join(r.indicesDir, r.kbID, "metadata.json"))
	if err != nil {
		return r.kbID
	}
	var meta struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || len(meta.Files) == 0 {
		return r.kbID
	}
	return meta.Files[0]
}

func preview(chunk string) string {
	runes := []rune(chunk)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return strings.ReplaceAll(string(runes), "\n", " ") + "..."
}
