package service

import (
	"context"
	"fmt"

	"voice-assistant-be/internal/dto"
	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/llm"
	"voice-assistant-be/pkg/rag"
)

// IChatService answers one-shot text questions against a knowledge base. The
// batch counterpart of the voice session's retrieval tool.
type IChatService interface {
	Chat(ctx context.Context, kbID string, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	newRetriever func(kbID string) *rag.Retriever
	llmProvider  llm.LLMProvider
	defaultTopK  int
	logger       logger.ILogger
}

func NewChatService(
	newRetriever func(kbID string) *rag.Retriever,
	llmProvider llm.LLMProvider,
	defaultTopK int,
	log logger.ILogger,
) IChatService {
	return &chatService{
		newRetriever: newRetriever,
		llmProvider:  llmProvider,
		defaultTopK:  defaultTopK,
		logger:       log,
	}
}

func (s *chatService) Chat(ctx context.Context, kbID string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	retriever := s.newRetriever(kbID)
	contextText, citations, err := retriever.Search(ctx, req.Message, topK)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Answer the question using only the context below. If the context does not contain the answer, say so.\n\nContext:\n%s\n\nQuestion: %s",
		contextText, req.Message,
	)

	answer, err := s.llmProvider.Generate(ctx, prompt, llm.WithMaxTokens(800))
	if err != nil {
		s.logger.Error("ChatService", "Generation failed", map[string]interface{}{
			"kb_id": kbID,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if citations == nil {
		citations = []rag.Citation{}
	}
	return &dto.ChatResponse{Answer: answer, Citations: citations}, nil
}
