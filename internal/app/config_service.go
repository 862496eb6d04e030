package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/model"
)

const (
	minBatchSize = 5
	maxBatchSize = 2000
)

type RagConfigStore interface {
	Get(ctx context.Context, workspaceID uuid.UUID) (*model.RagConfig, error)
	Upsert(ctx context.Context, cfg *model.RagConfig) error
}

type ConfigService struct {
	configs   RagConfigStore
	documents *DocumentService
	pipeline  *Pipeline
	log       *zap.Logger
}

func NewConfigService(configs RagConfigStore, documents *DocumentService, pipeline *Pipeline, log *zap.Logger) *ConfigService {
	return &ConfigService{
		configs:   configs,
		documents: documents,
		pipeline:  pipeline,
		log:       log.Named("config"),
	}
}

// Get returns the saved config, or the defaults with exists=false before the
// first save.
func (s *ConfigService) Get(ctx context.Context, workspaceID uuid.UUID) (*model.RagConfig, bool, error) {
	cfg, err := s.configs.Get(ctx, workspaceID)
	if err != nil {
		return nil, false, err
	}
	if cfg == nil {
		def := model.DefaultRagConfig(workspaceID)
		return &def, false, nil
	}
	return cfg, true, nil
}

// Save validates cfg, processes a newly named document into embeddings and
// then stores the config as a whole. The config is written last, so it never
// names a document whose embeddings were not produced.
func (s *ConfigService) Save(ctx context.Context, workspaceID uuid.UUID, cfg model.RagConfig) (*model.RagConfig, error) {
	cfg.ID = workspaceID
	if err := normalizeConfig(&cfg); err != nil {
		return nil, err
	}

	if cfg.SelectedDocumentID != nil {
		docID := *cfg.SelectedDocumentID
		if _, err := s.documents.Lookup(ctx, workspaceID, docID); err != nil {
			return nil, err
		}
		if err := s.pipeline.OnDocumentSelected(ctx, workspaceID, docID, cfg); err != nil {
			s.log.Warn("config save aborted",
				zap.String("workspace_id", workspaceID.String()),
				zap.String("document_id", docID.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := s.configs.Upsert(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeConfig(cfg *model.RagConfig) error {
	if cfg.SelectedDocumentID != nil && *cfg.SelectedDocumentID == uuid.Nil {
		cfg.SelectedDocumentID = nil
	}
	cfg.LLMModel = strings.TrimSpace(cfg.LLMModel)
	if cfg.LLMModel == "" {
		cfg.LLMModel = model.DefaultLLMModel
	}
	cfg.SplitMethod = strings.ToLower(strings.TrimSpace(cfg.SplitMethod))
	if cfg.SplitMethod == "" {
		cfg.SplitMethod = model.SplitMethodBatch
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = model.DefaultSystemPrompt
	}

	switch {
	case cfg.TopK < 1:
		return fmt.Errorf("top_k must be at least 1: %w", ErrInvalidInput)
	case cfg.Temperature < 0 || cfg.Temperature > 1:
		return fmt.Errorf("temperature must be within [0, 1]: %w", ErrInvalidInput)
	case cfg.Threshold < 0 || cfg.Threshold > 1:
		return fmt.Errorf("threshold must be within [0, 1]: %w", ErrInvalidInput)
	case cfg.SplitMethod != model.SplitMethodBatch && cfg.SplitMethod != model.SplitMethodLLM:
		return fmt.Errorf("split_method %q is not supported: %w", cfg.SplitMethod, ErrInvalidInput)
	case cfg.BatchSize < minBatchSize || cfg.BatchSize > maxBatchSize:
		return fmt.Errorf("batch_size must be within [%d, %d]: %w", minBatchSize, maxBatchSize, ErrInvalidInput)
	}
	return nil
}
