package vectorindex

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Index is a flat, in-memory vector table with brute-force search. It plays
// the role FAISS plays in the original indexing layout: one ordered vector
// per chunk, persisted next to chunks.json and metadata.json.
type Index struct {
	Vectors [][]float32 `json:"vectors"`
}

// Hit is one ranked search result. Index addresses the parallel chunk list.
type Hit struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

func New() *Index {
	return &Index{}
}

func (ix *Index) Add(vec []float32) {
	ix.Vectors = append(ix.Vectors, vec)
}

func (ix *Index) Ntotal() int {
	return len(ix.Vectors)
}

// Search returns up to k hits ranked by inner product (cosine similarity for
// normalized vectors), highest first. k is clamped to [1, ntotal]; an empty
// index yields no hits, never an error.
func (ix *Index) Search(query []float32, k int) []Hit {
	n := len(ix.Vectors)
	if n == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	hits := make([]Hit, 0, n)
	for i, vec := range ix.Vectors {
		hits = append(hits, Hit{Index: i, Score: dot(query, vec)})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	return hits[:k]
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Load reads a persisted index. A missing file is an error so callers can
// distinguish "KB never ingested" from an empty index.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &ix, nil
}

func (ix *Index) Persist(path string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
