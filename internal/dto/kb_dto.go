package dto

import "voice-assistant-be/pkg/rag"

type CreateKBRequest struct {
	Name string `json:"name" validate:"required"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	TopK    int    `json:"top_k"`
}

type ChatResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

type UploadResponse struct {
	KbId     string `json:"kb_id"`
	FileName string `json:"file_name"`
	Status   string `json:"status"`
}
