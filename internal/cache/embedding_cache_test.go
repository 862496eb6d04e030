package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autorag/internal/model"
)

func TestEmbeddingCacheReturnsCopies(t *testing.T) {
	c := NewEmbeddingCache()
	doc := uuid.New()

	src := []model.DocumentEmbedding{{DocumentID: doc, ChunkIndex: 0, Content: "alpha"}}
	c.Swap(doc, src)
	src[0].Content = "changed by caller"

	got, ok := c.Get(doc)
	require.True(t, ok)
	assert.Equal(t, "alpha", got[0].Content)

	got[0].Content = "changed by reader"
	again, _ := c.Get(doc)
	assert.Equal(t, "alpha", again[0].Content)

	c.Invalidate(doc)
	_, ok = c.Get(doc)
	assert.False(t, ok)
}

func TestEmbeddingCacheFillDoesNotOverwriteSwap(t *testing.T) {
	c := NewEmbeddingCache()
	doc := uuid.New()

	epoch := c.Epoch(doc)
	c.Swap(doc, []model.DocumentEmbedding{{ChunkIndex: 0, Content: "new"}})
	got := c.Fill(doc, epoch, []model.DocumentEmbedding{{ChunkIndex: 0, Content: "stale"}})

	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}

func TestEmbeddingCacheFillAfterInvalidateIsNotCached(t *testing.T) {
	c := NewEmbeddingCache()
	doc := uuid.New()

	epoch := c.Epoch(doc)
	c.Invalidate(doc)
	got := c.Fill(doc, epoch, []model.DocumentEmbedding{{ChunkIndex: 0, Content: "stale"}})
	assert.Equal(t, "stale", got[0].Content)

	_, ok := c.Get(doc)
	assert.False(t, ok)

	got = c.Fill(doc, c.Epoch(doc), []model.DocumentEmbedding{{ChunkIndex: 0, Content: "fresh"}})
	assert.Equal(t, "fresh", got[0].Content)
	cached, ok := c.Get(doc)
	require.True(t, ok)
	assert.Equal(t, "fresh", cached[0].Content)
}
