package realtime

import (
	"context"
	"errors"
	"testing"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
	calls    int
	history  []llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	s.history = history
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestSummarizeEmptyTranscriptSkipsProvider(t *testing.T) {
	provider := &stubLLM{response: "should not appear"}
	s := NewSummarizer(provider, logger.NopLogger{})

	text := s.Summarize(context.Background(), nil)

	assert.Equal(t, "No conversation history to summarize.", text)
	assert.Zero(t, provider.calls)
}

func TestSummarizeFormatsHistory(t *testing.T) {
	provider := &stubLLM{response: "# Summary\n- point"}
	s := NewSummarizer(provider, logger.NopLogger{})

	text := s.Summarize(context.Background(), []TranscriptEntry{
		{Role: "user", Text: "What was revenue?"},
		{Role: "assistant", Text: "Revenue was up."},
	})

	assert.Equal(t, "# Summary\n- point", text)
	require.Len(t, provider.history, 2)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Contains(t, provider.history[1].Content, "User: What was revenue?")
	assert.Contains(t, provider.history[1].Content, "Assistant: Revenue was up.")
}

func TestSummarizeProviderFailure(t *testing.T) {
	provider := &stubLLM{err: errors.New("model unavailable")}
	s := NewSummarizer(provider, logger.NopLogger{})

	text := s.Summarize(context.Background(), []TranscriptEntry{{Role: "user", Text: "hi"}})

	assert.Equal(t, "Failed to generate summary.", text)
}
