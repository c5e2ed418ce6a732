package factory

import (
	"fmt"

	"voice-assistant-be/internal/config"
	"voice-assistant-be/pkg/llm"
	"voice-assistant-be/pkg/llm/azure"
	"voice-assistant-be/pkg/llm/ollama"
)

func NewLLMProvider(cfg *config.Config) (llm.LLMProvider, error) {
	switch cfg.Ai.LLMProvider {
	case "azure":
		return azure.NewAzureProvider(
			cfg.Azure.APIBase,
			cfg.Azure.APIKey,
			cfg.Azure.LLMDeployment,
			cfg.Azure.LLMAPIVersion,
		), nil
	case "ollama":
		baseURL := cfg.Ai.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Ai.OllamaChatModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Ai.LLMProvider)
	}
}
