package cache

import (
	"sync"

	"github.com/google/uuid"

	"autorag/internal/model"
)

// EmbeddingCache holds an immutable chunk slice per document. Writers swap in
// a whole new slice; readers always receive their own copy.
//
// Every Swap and Invalidate advances the document's epoch. A lazy load records
// the epoch before it reads the database and is only cached when the epoch is
// unchanged, so a load that raced a newer write never becomes the cached set.
type EmbeddingCache struct {
	mu     sync.RWMutex
	items  map[uuid.UUID][]model.DocumentEmbedding
	epochs map[uuid.UUID]uint64
}

func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		items:  make(map[uuid.UUID][]model.DocumentEmbedding),
		epochs: make(map[uuid.UUID]uint64),
	}
}

func (c *EmbeddingCache) Get(documentID uuid.UUID) ([]model.DocumentEmbedding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chunks, ok := c.items[documentID]
	if !ok {
		return nil, false
	}
	return clone(chunks), true
}

// Epoch returns the document's current epoch. Read it before loading from the
// database and pass it to Fill.
func (c *EmbeddingCache) Epoch(documentID uuid.UUID) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epochs[documentID]
}

// Swap publishes chunks as the document's current set. The cache keeps its own
// copy, so the caller may reuse the slice.
func (c *EmbeddingCache) Swap(documentID uuid.UUID, chunks []model.DocumentEmbedding) {
	owned := clone(chunks)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[documentID]++
	c.items[documentID] = owned
}

// Fill caches chunks loaded at epoch and returns a copy of the set the caller
// should serve. A set published meanwhile wins over the loaded one; a load
// that was overtaken by an invalidation is returned but not cached.
func (c *EmbeddingCache) Fill(documentID uuid.UUID, epoch uint64, chunks []model.DocumentEmbedding) []model.DocumentEmbedding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.items[documentID]; ok {
		return clone(current)
	}
	owned := clone(chunks)
	if c.epochs[documentID] == epoch {
		c.items[documentID] = owned
	}
	return clone(owned)
}

func (c *EmbeddingCache) Invalidate(documentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[documentID]++
	delete(c.items, documentID)
}

func clone(chunks []model.DocumentEmbedding) []model.DocumentEmbedding {
	out := make([]model.DocumentEmbedding, len(chunks))
	copy(out, chunks)
	return out
}
