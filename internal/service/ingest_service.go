package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/embedding"
	"voice-assistant-be/pkg/events"
	"voice-assistant-be/pkg/nats"
	"voice-assistant-be/pkg/utils"
	"voice-assistant-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	IngestTopic = "kb.ingest.requested"

	ingestChunkSize    = 1000
	ingestChunkOverlap = 150
)

// IngestRequestedMessage rides the watermill bus from the upload handler to
// the consumer.
type IngestRequestedMessage struct {
	KbId     string `json:"kb_id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

// IIngestService turns an uploaded document into vectors and chunks appended
// to a knowledge base. Publish enqueues; Consume drains the queue in the
// background. IngestFile is the synchronous path both share.
type IIngestService interface {
	StoreUpload(fileName string, data []byte) (string, error)
	Publish(ctx context.Context, kbID, filePath, fileName string) error
	Consume(ctx context.Context) error
	IngestFile(ctx context.Context, kbID, filePath, fileName string) (int, error)
}

type ingestService struct {
	pubSub     *gochannel.GoChannel
	kbService  IKBService
	embedder   embedding.EmbeddingProvider
	natsPub    *nats.Publisher
	logger     logger.ILogger
	uploadsDir string
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	kbService IKBService,
	embedder embedding.EmbeddingProvider,
	natsPub *nats.Publisher,
	log logger.ILogger,
	uploadsDir string,
) IIngestService {
	return &ingestService{
		pubSub:     pubSub,
		kbService:  kbService,
		embedder:   embedder,
		natsPub:    natsPub,
		logger:     log,
		uploadsDir: uploadsDir,
	}
}

// StoreUpload writes the raw upload under the uploads dir and returns its
// path.
func (s *ingestService) StoreUpload(fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	path := filepath.Join(s.uploadsDir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

func (s *ingestService) Publish(ctx context.Context, kbID, filePath, fileName string) error {
	// No bus wired means the caller ingests inline.
	if s.pubSub == nil {
		_, err := s.IngestFile(ctx, kbID, filePath, fileName)
		return err
	}

	payload, err := json.Marshal(IngestRequestedMessage{
		KbId:     kbID,
		FilePath: filePath,
		FileName: fileName,
	})
	if err != nil {
		return fmt.Errorf("encode ingest message: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	return s.pubSub.Publish(IngestTopic, msg)
}

func (s *ingestService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, IngestTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload IngestRequestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("IngestService", "Failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid messages never become valid, do not retry
		return
	}

	if _, err := s.IngestFile(ctx, payload.KbId, payload.FilePath, payload.FileName); err != nil {
		s.logger.Error("IngestService", "Ingest failed", map[string]interface{}{
			"kb_id":     payload.KbId,
			"file_name": payload.FileName,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// IngestFile extracts the document text, splits it, embeds every chunk and
// appends vectors + chunks + metadata to the KB in one pass.
func (s *ingestService) IngestFile(ctx context.Context, kbID, filePath, fileName string) (int, error) {
	if !s.kbService.Exists(kbID) {
		return 0, fmt.Errorf("kb %q does not exist", kbID)
	}

	text, err := extractText(filePath)
	if err != nil {
		return 0, fmt.Errorf("extract text from %s: %w", fileName, err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("no extractable text in %s", fileName)
	}

	chunks := utils.SplitText(text, ingestChunkSize, ingestChunkOverlap)
	s.logger.Info("IngestService", "Document split", map[string]interface{}{
		"kb_id":       kbID,
		"file_name":   fileName,
		"chunk_count": len(chunks),
	})

	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embedder.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors = append(vectors, res.Embedding.Values)
	}

	paths := s.kbService.Paths(kbID)
	ix, err := vectorindex.Load(paths.Index)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		ix = vectorindex.New()
	}
	for _, vec := range vectors {
		ix.Add(vec)
	}
	if err := ix.Persist(paths.Index); err != nil {
		return 0, err
	}

	existing, err := s.kbService.LoadChunks(kbID)
	if err != nil {
		return 0, err
	}
	if err := s.kbService.SaveChunks(kbID, append(existing, chunks...)); err != nil {
		return 0, err
	}

	if _, err := s.kbService.AppendFile(ctx, kbID, fileName, len(vectors), len(chunks)); err != nil {
		return 0, err
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewFileIngested(kbID, fileName, len(chunks))); err != nil {
			s.logger.Warn("IngestService", "Failed to publish ingest event", map[string]interface{}{
				"kb_id": kbID,
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("IngestService", "Document ingested", map[string]interface{}{
		"kb_id":       kbID,
		"file_name":   fileName,
		"chunk_count": len(chunks),
	})
	return len(chunks), nil
}

func extractText(filePath string) (string, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		return extractPDFText(filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
