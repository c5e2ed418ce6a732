package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Azure   AzureConfig
	Ai      AIConfig
	Voice   VoiceConfig
	Storage StorageConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	VoiceLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
}

type AzureConfig struct {
	APIBase             string
	APIKey              string
	RealtimeDeployment  string
	RealtimeAPIVersion  string
	LLMDeployment       string
	LLMAPIVersion       string
	EmbeddingDeployment string
	EmbeddingAPIVersion string
}

type AIConfig struct {
	EmbeddingProvider string // "azure" or "ollama"
	LLMProvider       string // "azure" or "ollama"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	OllamaChatModel   string
}

type VoiceConfig struct {
	BaseInstructions string
	VoiceName        string
	AgentTone        string
	SpeakingRate     string
	EmotionStyle     string
	RetrievalTopK    int
}

type StorageConfig struct {
	IndicesDir string
	UploadsDir string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8003"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			VoiceLogFilePath:   getEnv("VOICE_LOG_FILE_PATH", "logs/voice.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Azure: AzureConfig{
			APIBase:             getEnv("AZURE_OPENAI_API_BASE", ""),
			APIKey:              getEnv("AZURE_OPENAI_API_KEY", ""),
			RealtimeDeployment:  getEnv("AZURE_REALTIME_DEPLOYMENT", "gpt-4o-realtime-preview"),
			RealtimeAPIVersion:  getEnv("AZURE_REALTIME_API_VERSION", "2024-10-01-preview"),
			LLMDeployment:       getEnv("AZURE_LLM_DEPLOYMENT", "gpt-4o"),
			LLMAPIVersion:       getEnv("AZURE_LLM_API_VERSION", "2024-08-01-preview"),
			EmbeddingDeployment: getEnv("AZURE_EMBEDDING_DEPLOYMENT", "text-embedding-3-small"),
			EmbeddingAPIVersion: getEnv("AZURE_EMBEDDING_API_VERSION", "2023-05-15"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "azure"),
			LLMProvider:       getEnv("LLM_PROVIDER", "azure"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaChatModel:   getEnv("OLLAMA_CHAT_MODEL", "llama3"),
		},
		Voice: VoiceConfig{
			BaseInstructions: getEnv("VOICE_BASE_INSTRUCTIONS",
				"You are a helpful voice assistant for a document knowledge base."),
			VoiceName:     getEnv("VOICE_NAME", "shimmer"),
			AgentTone:     getEnv("VOICE_AGENT_TONE", "warm"),
			SpeakingRate:  getEnv("VOICE_SPEAKING_RATE", "normal pace"),
			EmotionStyle:  getEnv("VOICE_EMOTION_STYLE", "empathetic"),
			RetrievalTopK: getEnvAsInt("VOICE_RETRIEVAL_TOP_K", 3),
		},
		Storage: StorageConfig{
			IndicesDir: getEnv("INDICES_DIR", "indices"),
			UploadsDir: getEnv("UPLOADS_DIR", "data/uploads"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
