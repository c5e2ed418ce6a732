package service

import (
	"context"
	"testing"

	"voice-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKBCreateAndGet(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	kb, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", kb.Name)
	assert.Zero(t, kb.Ntotal)
	assert.Empty(t, kb.Files)

	got, err := s.Get(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)
}

func TestKBCreateRejectsBadNames(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	_, err := s.Create(context.Background(), "   ")
	assert.Error(t, err)

	_, err = s.Create(context.Background(), "a/b")
	assert.Error(t, err)

	_, err = s.Create(context.Background(), "docs")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "docs")
	assert.Error(t, err)
}

func TestKBGetMissing(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	_, err := s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestKBListSorted(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	for _, name := range []string{"zebra", "alpha", "mango"} {
		_, err := s.Create(context.Background(), name)
		require.NoError(t, err)
	}

	kbs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, kbs, 3)
	assert.Equal(t, "alpha", kbs[0].Name)
	assert.Equal(t, "zebra", kbs[2].Name)
}

func TestKBListEmptyDir(t *testing.T) {
	s := NewKBService(t.TempDir()+"/missing", logger.NopLogger{})

	kbs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, kbs)
}

func TestKBDelete(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	_, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), "docs"))
	assert.False(t, s.Exists("docs"))

	assert.Error(t, s.Delete(context.Background(), "docs"))
}

func TestKBAppendFileAccumulates(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	_, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	kb, err := s.AppendFile(context.Background(), "docs", "report.pdf", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, kb.Ntotal)

	kb, err = s.AppendFile(context.Background(), "docs", "memo.pdf", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, kb.Ntotal)
	assert.Equal(t, 6, kb.ChunkCount)
	assert.Equal(t, []string{"report.pdf", "memo.pdf"}, kb.Files)
}

func TestKBChunksRoundtrip(t *testing.T) {
	s := NewKBService(t.TempDir(), logger.NopLogger{})

	_, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	chunks, err := s.LoadChunks("docs")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	require.NoError(t, s.SaveChunks("docs", []string{"one", "two"}))
	chunks, err = s.LoadChunks("docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, chunks)
}
