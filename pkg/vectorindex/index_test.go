package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchRanksByScore(t *testing.T) {
	ix := New()
	ix.Add([]float32{1, 0})
	ix.Add([]float32{0, 1})
	ix.Add([]float32{0.7, 0.7})

	hits := ix.Search([]float32{1, 0}, 2)

	assert.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 2, hits[1].Index)
}

func TestSearchClampsK(t *testing.T) {
	ix := New()
	ix.Add([]float32{1, 0})
	ix.Add([]float32{0, 1})

	tests := []struct {
		name    string
		k       int
		wantLen int
	}{
		{name: "k larger than ntotal", k: 10, wantLen: 2},
		{name: "k zero", k: 0, wantLen: 1},
		{name: "k negative", k: -3, wantLen: 1},
		{name: "k exact", k: 2, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ix.Search([]float32{1, 0}, tt.k), tt.wantLen)
		})
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New()
	assert.Empty(t, ix.Search([]float32{1, 0}, 3))
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	ix := New()
	ix.Add([]float32{0.1, 0.2, 0.3})
	ix.Add([]float32{0.4, 0.5, 0.6})
	assert.NoError(t, ix.Persist(path))

	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, loaded.Ntotal())
	assert.Equal(t, ix.Vectors, loaded.Vectors)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
