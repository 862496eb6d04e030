package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/ai"
	"autorag/internal/model"
)

// Pipeline turns a selected document into stored embeddings.
type Pipeline struct {
	documents  *DocumentService
	processor  ai.Processor
	embeddings *EmbeddingStore
	log        *zap.Logger
}

func NewPipeline(documents *DocumentService, processor ai.Processor, embeddings *EmbeddingStore, log *zap.Logger) *Pipeline {
	return &Pipeline{
		documents:  documents,
		processor:  processor,
		embeddings: embeddings,
		log:        log.Named("pipeline"),
	}
}

// OnDocumentSelected downloads the document, has it processed with cfg's
// chunking parameters and replaces its embeddings. Nothing is stored unless
// the processor reports success with both texts and embeddings.
func (p *Pipeline) OnDocumentSelected(ctx context.Context, workspaceID, documentID uuid.UUID, cfg model.RagConfig) error {
	rc, doc, err := p.documents.Download(ctx, workspaceID, documentID)
	if err != nil {
		return err
	}
	defer rc.Close()

	started := time.Now()
	res, err := p.processor.Process(ctx, ai.ProcessRequest{
		DocumentID:  documentID.String(),
		FileName:    doc.FileName,
		Content:     rc,
		SplitMethod: cfg.SplitMethod,
		BatchSize:   cfg.BatchSize,
		LLMModel:    cfg.LLMModel,
		Temperature: cfg.Temperature,
		SplitPrompt: cfg.SplitPrompt,
		TablePrompt: cfg.TablePrompt,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProcessor, err)
	}
	if res.Status != "success" || len(res.Texts) == 0 || len(res.Embeddings) == 0 {
		return fmt.Errorf("%w: status %q: %s", ErrProcessor, res.Status, res.Message)
	}

	if err := p.embeddings.Replace(ctx, documentID, res.Texts, res.Embeddings); err != nil {
		return err
	}

	p.log.Info("document processed",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("document_id", documentID.String()),
		zap.Int("chunks", min(len(res.Texts), len(res.Embeddings))),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
