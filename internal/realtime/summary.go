package realtime

import (
	"context"
	"strings"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/llm"
)

const (
	summaryEmptyText  = "No conversation history to summarize."
	summaryFailedText = "Failed to generate summary."

	summarySystemPrompt = "Summarize the following voice conversation. Format the output as Markdown with headers, key points, and action items."
)

// Summarizer turns a finished session transcript into a Markdown summary.
type Summarizer struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewSummarizer(provider llm.LLMProvider, log logger.ILogger) *Summarizer {
	return &Summarizer{provider: provider, logger: log}
}

// Summarize always returns displayable text. An empty transcript skips the
// model call entirely; a model failure degrades to a fixed message.
func (s *Summarizer) Summarize(ctx context.Context, transcript []TranscriptEntry) string {
	if len(transcript) == 0 {
		return summaryEmptyText
	}

	var sb strings.Builder
	for _, entry := range transcript {
		switch entry.Role {
		case "user":
			sb.WriteString("User: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}

	history := []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: sb.String()},
	}

	text, err := s.provider.Chat(ctx, history, llm.WithMaxTokens(1000))
	if err != nil {
		s.logger.Error("Summarizer", "Summary generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return summaryFailedText
	}
	return text
}
