package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/cache"
	"autorag/internal/model"
)

type EmbeddingRepository interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentEmbedding, error)
	Replace(ctx context.Context, documentID uuid.UUID, chunks []model.DocumentEmbedding) error
}

// EmbeddingStore serves a document's chunks from a snapshot cache backed by
// the database. Readers see either the full previous set or the full new one.
type EmbeddingStore struct {
	repo      EmbeddingRepository
	cache     *cache.EmbeddingCache
	events    EventPublisher
	dimension int
	log       *zap.Logger

	writeMu sync.Mutex
}

func NewEmbeddingStore(repo EmbeddingRepository, snapshots *cache.EmbeddingCache, events EventPublisher, dimension int, log *zap.Logger) *EmbeddingStore {
	return &EmbeddingStore{
		repo:      repo,
		cache:     snapshots,
		events:    events,
		dimension: dimension,
		log:       log.Named("embeddings"),
	}
}

// GetByDocument returns the chunks ordered by chunk index.
func (s *EmbeddingStore) GetByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentEmbedding, error) {
	if chunks, ok := s.cache.Get(documentID); ok {
		return chunks, nil
	}

	epoch := s.cache.Epoch(documentID)
	chunks, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.cache.Fill(documentID, epoch, chunks), nil
}

// Replace swaps the document's chunks for zip(texts, vectors). Extra elements
// on the longer side are dropped.
func (s *EmbeddingStore) Replace(ctx context.Context, documentID uuid.UUID, texts []string, vectors [][]float32) error {
	n := min(len(texts), len(vectors))
	if len(texts) != len(vectors) {
		s.log.Warn("texts and vectors differ in length, truncating",
			zap.String("document_id", documentID.String()),
			zap.Int("texts", len(texts)),
			zap.Int("vectors", len(vectors)),
		)
	}
	if err := s.checkDimensions(vectors[:n]); err != nil {
		return err
	}

	chunks := make([]model.DocumentEmbedding, n)
	for i := 0; i < n; i++ {
		chunks[i] = model.DocumentEmbedding{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    texts[i],
			Embedding:  model.NewVector(vectors[i]),
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Replace(ctx, documentID, chunks); err != nil {
		return err
	}
	s.cache.Swap(documentID, chunks)

	if s.events != nil {
		if err := s.events.Publish(ctx, model.WorkspaceEvent{
			Kind:       model.EventEmbeddingsReplaced,
			DocumentID: documentID,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			s.log.Warn("publish embeddings event failed", zap.Error(err))
		}
	}
	s.log.Info("embeddings replaced", zap.String("document_id", documentID.String()), zap.Int("chunks", n))
	return nil
}

func (s *EmbeddingStore) InvalidateDocument(documentID uuid.UUID) {
	s.cache.Invalidate(documentID)
}

func (s *EmbeddingStore) checkDimensions(vectors [][]float32) error {
	want := s.dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty: %w", i, ErrEmbeddingDimension)
		}
		if want <= 0 {
			want = len(v)
		}
		if len(v) != want {
			return fmt.Errorf("vector %d has %d dimensions, want %d: %w", i, len(v), want, ErrEmbeddingDimension)
		}
	}
	return nil
}
