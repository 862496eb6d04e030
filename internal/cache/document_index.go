package cache

import (
	"sync"

	"github.com/google/uuid"

	"autorag/internal/model"
)

// IndexLoader reads a workspace's persisted document index.
type IndexLoader func() ([]model.DocumentInfo, error)

// DocumentIndex caches each workspace's document list. Every workspace has its
// own entry lock, so index work in one workspace never waits on another.
// Entries start cold and are filled by the loader on first use.
type DocumentIndex struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*indexEntry
}

type indexEntry struct {
	mu     sync.Mutex
	loaded bool
	docs   []model.DocumentInfo
}

func NewDocumentIndex() *DocumentIndex {
	return &DocumentIndex{entries: make(map[uuid.UUID]*indexEntry)}
}

// Snapshot returns a copy of the workspace's documents, loading them first if
// the entry is cold.
func (c *DocumentIndex) Snapshot(workspaceID uuid.UUID, load IndexLoader) ([]model.DocumentInfo, error) {
	e := c.entry(workspaceID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(load); err != nil {
		return nil, err
	}
	return cloneDocs(e.docs), nil
}

// Update runs fn with the workspace entry held exclusively. fn gets a copy of
// the current documents and returns the list to publish. When fn fails the
// entry keeps its previous contents.
func (c *DocumentIndex) Update(workspaceID uuid.UUID, load IndexLoader, fn func([]model.DocumentInfo) ([]model.DocumentInfo, error)) error {
	e := c.entry(workspaceID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(load); err != nil {
		return err
	}
	next, err := fn(cloneDocs(e.docs))
	if err != nil {
		return err
	}
	e.docs = next
	return nil
}

// Invalidate marks the workspace cold so the next access reloads it.
func (c *DocumentIndex) Invalidate(workspaceID uuid.UUID) {
	c.mu.RLock()
	e, ok := c.entries[workspaceID]
	c.mu.RUnlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.loaded = false
	e.docs = nil
	e.mu.Unlock()
}

// Reset marks every workspace cold.
func (c *DocumentIndex) Reset() {
	c.mu.RLock()
	ids := make([]uuid.UUID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	for _, id := range ids {
		c.Invalidate(id)
	}
}

func (c *DocumentIndex) entry(workspaceID uuid.UUID) *indexEntry {
	c.mu.RLock()
	e, ok := c.entries[workspaceID]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.entries[workspaceID]; ok {
		return e
	}
	e = &indexEntry{}
	c.entries[workspaceID] = e
	return e
}

func (e *indexEntry) ensureLoaded(load IndexLoader) error {
	if e.loaded {
		return nil
	}
	docs, err := load()
	if err != nil {
		return err
	}
	e.docs = docs
	e.loaded = true
	return nil
}

func cloneDocs(docs []model.DocumentInfo) []model.DocumentInfo {
	out := make([]model.DocumentInfo, len(docs))
	copy(out, docs)
	return out
}
