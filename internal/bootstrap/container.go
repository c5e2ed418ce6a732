package bootstrap

import (
	"log"
	"time"

	"voice-assistant-be/internal/config"
	"voice-assistant-be/internal/controller"
	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/internal/realtime"
	"voice-assistant-be/internal/service"
	"voice-assistant-be/pkg/embedding"
	"voice-assistant-be/pkg/llm/factory"
	"voice-assistant-be/pkg/rag"

	pktNats "voice-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gocache "github.com/patrickmn/go-cache"
)

type Container struct {
	// Controllers
	KBController    controller.IKBController
	VoiceController controller.IVoiceController

	// Background Services (Exposed for main.go to run)
	IngestService service.IIngestService

	// Held for graceful shutdown
	NatsPublisher *pktNats.Publisher
	SysLogger     logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	voiceLogger := logger.NewIsolatedLogger(cfg.App.VoiceLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewAzureProvider(
			cfg.Azure.APIBase,
			cfg.Azure.APIKey,
			cfg.Azure.EmbeddingDeployment,
			cfg.Azure.EmbeddingAPIVersion,
		)
		log.Printf("[INFO] Using Embedding Provider: AZURE (%s)", cfg.Azure.EmbeddingDeployment)
	}

	llmProvider, err := factory.NewLLMProvider(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.LLMProvider)

	// NATS is optional; sessions and ingest degrade to local-only when absent.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 4. Services
	kbService := service.NewKBService(cfg.Storage.IndicesDir, sysLogger)

	retrieverCache := gocache.New(5*time.Minute, 10*time.Minute)
	newRetriever := func(kbID string) *rag.Retriever {
		return rag.NewRetriever(cfg.Storage.IndicesDir, kbID, embeddingProvider, retrieverCache, sysLogger)
	}

	ingestService := service.NewIngestService(
		pubSub,
		kbService,
		embeddingProvider,
		natsPub,
		sysLogger,
		cfg.Storage.UploadsDir,
	)
	chatService := service.NewChatService(newRetriever, llmProvider, cfg.Voice.RetrievalTopK, sysLogger)

	var voiceEvents realtime.EventPublisher
	if natsPub != nil {
		voiceEvents = service.NewVoiceEventPublisher(natsPub, sysLogger)
	}

	// 5. Controllers
	return &Container{
		KBController: controller.NewKBController(kbService, ingestService, chatService),
		VoiceController: controller.NewVoiceController(
			cfg,
			kbService,
			newRetriever,
			llmProvider,
			voiceEvents,
			voiceLogger,
		),

		IngestService: ingestService,

		NatsPublisher: natsPub,
		SysLogger:     sysLogger,
	}
}
