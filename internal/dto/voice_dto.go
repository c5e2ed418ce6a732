package dto

type ExportSummaryRequest struct {
	MarkdownText string `json:"markdown_text" validate:"required"`
}
