package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autorag/internal/cache"
	"autorag/internal/storage"
)

func TestDocumentUploadSurvivesCacheReset(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	index := cache.NewDocumentIndex()
	svc := NewDocumentService(store, index, nil, 0, zap.NewNop())
	ws := uuid.New()

	doc, err := svc.Upload(ctx, ws, "report.pdf", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.True(t, store.Has(objectKey(ws, doc.ID, "report.pdf")))
	assert.True(t, store.Has(indexKey(ws)))

	index.Reset()
	docs, err := svc.List(ctx, ws)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
	assert.Equal(t, "report.pdf", docs[0].FileName)
	assert.Equal(t, int64(5), docs[0].Size)

	fresh := NewDocumentService(store, cache.NewDocumentIndex(), nil, 0, zap.NewNop())
	rc, info, err := fresh.Download(ctx, ws, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, doc.ID, info.ID)
}

func TestDocumentConcurrentUploadsAreAllListed(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t, storage.NewMemoryStore())
	ws := uuid.New()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Upload(ctx, ws, fmt.Sprintf("doc-%d.txt", i), 1, strings.NewReader("x"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	svc.InvalidateWorkspace(ws)
	docs, err := svc.List(ctx, ws)
	require.NoError(t, err)
	assert.Len(t, docs, n)
}

func TestDocumentListIsNewestFirstAndScopedToWorkspace(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t, storage.NewMemoryStore())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ws, other := uuid.New(), uuid.New()

	_, err := svc.Upload(ctx, ws, "first.txt", 1, strings.NewReader("a"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, ws, "second.txt", 1, strings.NewReader("b"))
	require.NoError(t, err)

	docs, err := svc.List(ctx, ws)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "second.txt", docs[0].FileName)

	docs, err = svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentUploadFailsWhenIndexCannotBePersisted(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	svc := newDocumentService(t, failingIndexStore{MemoryStore: mem})
	ws := uuid.New()

	_, err := svc.Upload(ctx, ws, "lost.txt", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrIndexPersist)

	docs, err := svc.List(ctx, ws)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, mem.Len(), "orphaned content should be removed")
}

func TestDocumentUploadRejectsBadInput(t *testing.T) {
	svc := NewDocumentService(storage.NewMemoryStore(), cache.NewDocumentIndex(), nil, 4, zap.NewNop())
	ws := uuid.New()

	for _, name := range []string{"", "  ", "..", "a/b.txt", `a\b.txt`} {
		_, err := svc.Upload(context.Background(), ws, name, 1, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidInput, "name %q", name)
	}
	_, err := svc.Upload(context.Background(), ws, "big.bin", 5, strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDocumentDownloadUnknownDocument(t *testing.T) {
	svc := newDocumentService(t, storage.NewMemoryStore())
	ws := uuid.New()
	doc, err := svc.Upload(context.Background(), ws, "mine.txt", 1, strings.NewReader("x"))
	require.NoError(t, err)

	_, _, err = svc.Download(context.Background(), ws, uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, _, err = svc.Download(context.Background(), uuid.New(), doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentUploadsFromWarmReplicasAreBothKept(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	replicaA := newDocumentService(t, store)
	replicaB := newDocumentService(t, store)
	ws := uuid.New()

	for _, r := range []*DocumentService{replicaA, replicaB} {
		docs, err := r.List(ctx, ws)
		require.NoError(t, err)
		require.Empty(t, docs)
	}

	fromA, err := replicaA.Upload(ctx, ws, "a.txt", 1, strings.NewReader("a"))
	require.NoError(t, err)
	fromB, err := replicaB.Upload(ctx, ws, "b.txt", 1, strings.NewReader("b"))
	require.NoError(t, err)

	docs, err := newDocumentService(t, store).List(ctx, ws)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{fromA.ID, fromB.ID}, ids)
}
