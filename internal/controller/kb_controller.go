package controller

import (
	"io"

	"voice-assistant-be/internal/dto"
	"voice-assistant-be/internal/pkg/serverutils"
	"voice-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKBController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
}

type kbController struct {
	kbService     service.IKBService
	ingestService service.IIngestService
	chatService   service.IChatService
}

func NewKBController(
	kbService service.IKBService,
	ingestService service.IIngestService,
	chatService service.IChatService,
) IKBController {
	return &kbController{
		kbService:     kbService,
		ingestService: ingestService,
		chatService:   chatService,
	}
}

func (c *kbController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/kbs")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/upload", c.Upload)
	h.Post("/:id/chat", c.Chat)
}

func (c *kbController) List(ctx *fiber.Ctx) error {
	res, err := c.kbService.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all knowledge bases", res))
}

func (c *kbController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateKBRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.kbService.Create(ctx.Context(), req.Name)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create knowledge base", res))
}

func (c *kbController) Show(ctx *fiber.Ctx) error {
	res, err := c.kbService.Get(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show knowledge base", res))
}

func (c *kbController) Delete(ctx *fiber.Ctx) error {
	if err := c.kbService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete knowledge base", nil))
}

func (c *kbController) Upload(ctx *fiber.Ctx) error {
	kbID := ctx.Params("id")
	if !c.kbService.Exists(kbID) {
		return serverutils.NotFound("KB not found")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.BadRequest("Missing 'file' form field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	path, err := c.ingestService.StoreUpload(fileHeader.Filename, data)
	if err != nil {
		return err
	}
	if err := c.ingestService.Publish(ctx.Context(), kbID, path, fileHeader.Filename); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Upload accepted", dto.UploadResponse{
		KbId:     kbID,
		FileName: fileHeader.Filename,
		Status:   "processing",
	}))
}

func (c *kbController) Chat(ctx *fiber.Ctx) error {
	kbID := ctx.Params("id")
	if !c.kbService.Exists(kbID) {
		return serverutils.NotFound("KB not found")
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.Context(), kbID, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}
