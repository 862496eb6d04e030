package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/cache"
	"autorag/internal/model"
	"autorag/internal/storage"
)

const indexObjectName = "_index.json"

// EventPublisher announces workspace changes to other replicas.
type EventPublisher interface {
	Publish(ctx context.Context, event model.WorkspaceEvent) error
}

type DocumentService struct {
	store          storage.ObjectStore
	index          *cache.DocumentIndex
	events         EventPublisher
	maxUploadBytes int64
	log            *zap.Logger
	now            func() time.Time
}

func NewDocumentService(
	store storage.ObjectStore,
	index *cache.DocumentIndex,
	events EventPublisher,
	maxUploadBytes int64,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		store:          store,
		index:          index,
		events:         events,
		maxUploadBytes: maxUploadBytes,
		log:            log.Named("documents"),
		now:            time.Now,
	}
}

// Upload stores the file and records it in the workspace index. The index is
// persisted before the cached copy changes; when persisting fails the upload
// fails and the stored bytes are removed.
func (s *DocumentService) Upload(ctx context.Context, workspaceID uuid.UUID, fileName string, size int64, content io.Reader) (*model.DocumentInfo, error) {
	fileName, err := cleanFileName(fileName)
	if err != nil {
		return nil, err
	}
	if size < 0 || (s.maxUploadBytes > 0 && size > s.maxUploadBytes) {
		return nil, fmt.Errorf("file size %d out of range: %w", size, ErrInvalidInput)
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	doc := model.DocumentInfo{
		ID:         uuid.New(),
		FileName:   fileName,
		Size:       size,
		UploadedAt: s.now().UTC(),
	}
	key := objectKey(workspaceID, doc.ID, fileName)
	if err := s.store.Put(ctx, key, content, size, ""); err != nil {
		return nil, fmt.Errorf("store document failed: %w", err)
	}

	load := s.loader(ctx, workspaceID)
	err = s.index.Update(workspaceID, load, func(docs []model.DocumentInfo) ([]model.DocumentInfo, error) {
		// Another replica may have written the index since this one cached it.
		persisted, err := load()
		if err != nil {
			return nil, err
		}
		next := append(mergeIndex(persisted, docs), doc)
		if err := s.persistIndex(ctx, workspaceID, next); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		// Detached so a cancelled request still cleans up.
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.log.Warn("remove orphaned document failed", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}

	s.publish(ctx, model.WorkspaceEvent{
		Kind:        model.EventDocumentUploaded,
		WorkspaceID: workspaceID,
		DocumentID:  doc.ID,
	})
	s.log.Info("document uploaded",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.Int64("size", size),
	)
	return &doc, nil
}

// List returns the workspace's documents, newest first.
func (s *DocumentService) List(ctx context.Context, workspaceID uuid.UUID) ([]model.DocumentInfo, error) {
	docs, err := s.index.Snapshot(workspaceID, s.loader(ctx, workspaceID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

func (s *DocumentService) Lookup(ctx context.Context, workspaceID, documentID uuid.UUID) (*model.DocumentInfo, error) {
	docs, err := s.index.Snapshot(workspaceID, s.loader(ctx, workspaceID))
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == documentID {
			return &docs[i], nil
		}
	}
	return nil, ErrDocumentNotFound
}

// Download opens the document's content. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, workspaceID, documentID uuid.UUID) (io.ReadCloser, *model.DocumentInfo, error) {
	doc, err := s.Lookup(ctx, workspaceID, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, objectKey(workspaceID, doc.ID, doc.FileName))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open document failed: %w", err)
	}
	return rc, doc, nil
}

// InvalidateWorkspace drops the cached index so the next read reloads it.
func (s *DocumentService) InvalidateWorkspace(workspaceID uuid.UUID) {
	s.index.Invalidate(workspaceID)
}

func (s *DocumentService) loader(ctx context.Context, workspaceID uuid.UUID) cache.IndexLoader {
	return func() ([]model.DocumentInfo, error) {
		rc, err := s.store.Get(ctx, indexKey(workspaceID))
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load document index failed: %w", err)
		}
		defer rc.Close()

		var docs []model.DocumentInfo
		if err := json.NewDecoder(rc).Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode document index failed: %w", err)
		}
		return docs, nil
	}
}

// mergeIndex returns persisted followed by the cached entries it lacks.
func mergeIndex(persisted, cached []model.DocumentInfo) []model.DocumentInfo {
	seen := make(map[uuid.UUID]struct{}, len(persisted))
	out := make([]model.DocumentInfo, 0, len(persisted)+len(cached))
	for _, d := range persisted {
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	for _, d := range cached {
		if _, ok := seen[d.ID]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func (s *DocumentService) persistIndex(ctx context.Context, workspaceID uuid.UUID, docs []model.DocumentInfo) error {
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal document index failed: %w", err)
	}
	if err := s.store.Put(ctx, indexKey(workspaceID), bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexPersist, err)
	}
	return nil
}

func (s *DocumentService) publish(ctx context.Context, event model.WorkspaceEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish workspace event failed", zap.String("kind", event.Kind), zap.Error(err))
	}
}

func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("file name %q: %w", name, ErrInvalidInput)
	}
	return name, nil
}

func objectKey(workspaceID, documentID uuid.UUID, fileName string) string {
	return path.Join(workspaceID.String(), documentID.String(), fileName)
}

func indexKey(workspaceID uuid.UUID) string {
	return path.Join(workspaceID.String(), indexObjectName)
}
