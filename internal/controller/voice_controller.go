package controller

import (
	"context"

	"voice-assistant-be/internal/config"
	"voice-assistant-be/internal/dto"
	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/internal/pkg/serverutils"
	"voice-assistant-be/internal/realtime"
	"voice-assistant-be/internal/service"
	"voice-assistant-be/pkg/llm"
	"voice-assistant-be/pkg/rag"
	"voice-assistant-be/pkg/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// closeUnknownKB is sent when the websocket names a knowledge base that does
// not exist.
const closeUnknownKB = 4004

type IVoiceController interface {
	RegisterRoutes(r fiber.Router)
	ServeVoice(ctx *fiber.Ctx) error
	ExportSummary(ctx *fiber.Ctx) error
}

type voiceController struct {
	cfg          *config.Config
	kbService    service.IKBService
	newRetriever func(kbID string) *rag.Retriever
	llmProvider  llm.LLMProvider
	events       realtime.EventPublisher
	logger       logger.ILogger
}

func NewVoiceController(
	cfg *config.Config,
	kbService service.IKBService,
	newRetriever func(kbID string) *rag.Retriever,
	llmProvider llm.LLMProvider,
	events realtime.EventPublisher,
	log logger.ILogger,
) IVoiceController {
	return &voiceController{
		cfg:          cfg,
		kbService:    kbService,
		newRetriever: newRetriever,
		llmProvider:  llmProvider,
		events:       events,
		logger:       log,
	}
}

func (c *voiceController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/voice/:kb_id", c.ServeVoice)
	r.Post("/voice/export-summary", c.ExportSummary)
}

func (c *voiceController) ServeVoice(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	kbID := ctx.Params("kb_id")
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		if kbID != rag.NoKnowledgeBase && !c.kbService.Exists(kbID) {
			c.logger.Warn("VoiceController", "Rejecting session for unknown KB", map[string]interface{}{
				"kb_id": kbID,
			})
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(closeUnknownKB, "unknown knowledge base"))
			return
		}

		state := realtime.NewSessionState(kbID, c.cfg.Voice)
		retriever := c.newRetriever(kbID)
		summarizer := realtime.NewSummarizer(c.llmProvider, c.logger)

		dial := func(dialCtx context.Context, sessionCfg realtime.SessionConfig) (realtime.UpstreamLink, error) {
			return realtime.Connect(dialCtx, c.cfg.Azure, sessionCfg)
		}

		orch := realtime.NewOrchestrator(
			state,
			retriever,
			summarizer,
			dial,
			c.events,
			c.logger,
			c.cfg.Voice.RetrievalTopK,
		)

		if err := orch.Run(context.Background(), conn); err != nil {
			// ConnectFailed is the only error Run surfaces; the session never
			// reached Active, so tell the client before hanging up.
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "upstream connect failed"))
		}
	})(ctx)
}

func (c *voiceController) ExportSummary(ctx *fiber.Ctx) error {
	var req dto.ExportSummaryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	data, err := report.RenderMarkdown(req.MarkdownText)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="conversation_summary.pdf"`)
	return ctx.Send(data)
}
