package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voice-assistant-be/internal/model"
	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/internal/pkg/serverutils"
)

// IKBService is the knowledge-base store: one directory per KB under the
// indices dir, holding metadata.json plus the index/chunks files written by
// the ingest pipeline.
type IKBService interface {
	Create(ctx context.Context, name string) (*model.KnowledgeBase, error)
	Get(ctx context.Context, id string) (*model.KnowledgeBase, error)
	List(ctx context.Context) ([]*model.KnowledgeBase, error)
	Delete(ctx context.Context, id string) error
	AppendFile(ctx context.Context, id, fileName string, addedVectors, addedChunks int) (*model.KnowledgeBase, error)

	Exists(id string) bool
	Paths(id string) KBPaths
	LoadChunks(id string) ([]string, error)
	SaveChunks(id string, chunks []string) error
}

// KBPaths locates the three files that make up one knowledge base on disk.
type KBPaths struct {
	Dir      string
	Index    string
	Chunks   string
	Metadata string
}

type kbService struct {
	indicesDir string
	logger     logger.ILogger
}

func NewKBService(indicesDir string, log logger.ILogger) IKBService {
	return &kbService{
		indicesDir: indicesDir,
		logger:     log,
	}
}

func (s *kbService) Paths(id string) KBPaths {
	dir := filepath.Join(s.indicesDir, id)
	return KBPaths{
		Dir:      dir,
		Index:    filepath.Join(dir, "index.json"),
		Chunks:   filepath.Join(dir, "chunks.json"),
		Metadata: filepath.Join(dir, "metadata.json"),
	}
}

func (s *kbService) Exists(id string) bool {
	info, err := os.Stat(s.Paths(id).Dir)
	return err == nil && info.IsDir()
}

func (s *kbService) Create(ctx context.Context, name string) (*model.KnowledgeBase, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, serverutils.BadRequest("Name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, serverutils.BadRequest("Name cannot contain path separators")
	}
	if s.Exists(name) {
		return nil, serverutils.BadRequest("KB already exists")
	}

	paths := s.Paths(name)
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create kb dir: %w", err)
	}

	meta := model.KBMetadata{
		Ntotal:     0,
		ChunkCount: 0,
		CreatedAt:  time.Now().Format("2006-01-02T15:04:05"),
		Files:      []string{},
	}
	if err := s.persistMetadata(name, meta); err != nil {
		return nil, err
	}

	s.logger.Info("KBService", "Knowledge base created", map[string]interface{}{"kb_id": name})
	return &model.KnowledgeBase{Name: name, KBMetadata: meta}, nil
}

func (s *kbService) Get(ctx context.Context, id string) (*model.KnowledgeBase, error) {
	if !s.Exists(id) {
		return nil, serverutils.NotFound("KB not found")
	}
	meta := s.loadMetadata(id)
	return &model.KnowledgeBase{Name: id, KBMetadata: meta}, nil
}

func (s *kbService) List(ctx context.Context) ([]*model.KnowledgeBase, error) {
	entries, err := os.ReadDir(s.indicesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.KnowledgeBase{}, nil
		}
		return nil, fmt.Errorf("read indices dir: %w", err)
	}

	kbs := make([]*model.KnowledgeBase, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		kbs = append(kbs, &model.KnowledgeBase{
			Name:       entry.Name(),
			KBMetadata: s.loadMetadata(entry.Name()),
		})
	}
	sort.Slice(kbs, func(i, j int) bool { return kbs[i].Name < kbs[j].Name })
	return kbs, nil
}

func (s *kbService) Delete(ctx context.Context, id string) error {
	if !s.Exists(id) {
		return serverutils.NotFound("KB not found")
	}
	if err := os.RemoveAll(s.Paths(id).Dir); err != nil {
		return fmt.Errorf("delete kb: %w", err)
	}
	s.logger.Info("KBService", "Knowledge base deleted", map[string]interface{}{"kb_id": id})
	return nil
}

func (s *kbService) AppendFile(ctx context.Context, id, fileName string, addedVectors, addedChunks int) (*model.KnowledgeBase, error) {
	if !s.Exists(id) {
		return nil, serverutils.NotFound("KB not found")
	}

	meta := s.loadMetadata(id)
	meta.Files = append(meta.Files, fileName)
	meta.Ntotal += addedVectors
	meta.ChunkCount += addedChunks
	if err := s.persistMetadata(id, meta); err != nil {
		return nil, err
	}

	return &model.KnowledgeBase{Name: id, KBMetadata: meta}, nil
}

func (s *kbService) LoadChunks(id string) ([]string, error) {
	data, err := os.ReadFile(s.Paths(id).Chunks)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return chunks, nil
}

func (s *kbService) SaveChunks(id string, chunks []string) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	if err := os.WriteFile(s.Paths(id).Chunks, data, 0644); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	return nil
}

// loadMetadata tolerates a missing or corrupt metadata file and returns an
// empty record, matching the permissive read path of the store boundary.
func (s *kbService) loadMetadata(id string) model.KBMetadata {
	meta := model.KBMetadata{Files: []string{}}
	data, err := os.ReadFile(s.Paths(id).Metadata)
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn("KBService", "Corrupt metadata file", map[string]interface{}{"kb_id": id, "error": err.Error()})
		return model.KBMetadata{Files: []string{}}
	}
	if meta.Files == nil {
		meta.Files = []string{}
	}
	return meta
}

func (s *kbService) persistMetadata(id string, meta model.KBMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(s.Paths(id).Metadata, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
