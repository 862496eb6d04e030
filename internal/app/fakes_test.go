package app

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"autorag/internal/cache"
	"autorag/internal/model"
	"autorag/internal/pkg/password"
	"autorag/internal/repository"
	"autorag/internal/storage"
)

var testHasher = password.Hasher{Cost: bcrypt.MinCost}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	order []uuid.UUID
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]model.User)}
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	m.users[user.ID] = *user
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) ListByWorkspaceAndRole(_ context.Context, workspaceID uuid.UUID, role string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, id := range m.order {
		u, ok := m.users[id]
		if ok && u.WorkspaceID == workspaceID && u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, fullName, organization string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.FullName, u.Organization = fullName, organization
	m.users[id] = u
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type memLinks struct {
	mu    sync.Mutex
	links map[uuid.UUID]model.ShareLink // by workspace
}

func newMemLinks() *memLinks {
	return &memLinks{links: make(map[uuid.UUID]model.ShareLink)}
}

func (m *memLinks) Create(_ context.Context, link *model.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[link.WorkspaceID]; ok {
		return repository.ErrDuplicateKey
	}
	m.links[link.WorkspaceID] = *link
	return nil
}

func (m *memLinks) GetByWorkspace(_ context.Context, workspaceID uuid.UUID) (*model.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[workspaceID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memLinks) GetByToken(_ context.Context, token uuid.UUID) (*model.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Token == token {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *memLinks) SetEnabled(_ context.Context, token uuid.UUID, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ws, l := range m.links {
		if l.Token == token {
			l.Enabled = enabled
			m.links[ws] = l
		}
	}
	return nil
}

type memConfigs struct {
	mu      sync.Mutex
	configs map[uuid.UUID]model.RagConfig
	upserts int
}

func newMemConfigs() *memConfigs {
	return &memConfigs{configs: make(map[uuid.UUID]model.RagConfig)}
}

func (m *memConfigs) Get(_ context.Context, workspaceID uuid.UUID) (*model.RagConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[workspaceID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memConfigs) Upsert(_ context.Context, cfg *model.RagConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = *cfg
	m.upserts++
	return nil
}

type memMessages struct {
	mu       sync.Mutex
	nextID   uint
	messages []model.ChatMessage
}

func (m *memMessages) Create(_ context.Context, message *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	message.ID = m.nextID
	m.messages = append(m.messages, *message)
	return nil
}

func (m *memMessages) ListThread(_ context.Context, workspaceID uuid.UUID, threadUserID *uuid.UUID, limit int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ChatMessage
	for _, msg := range m.messages {
		if msg.WorkspaceID != workspaceID {
			continue
		}
		if threadUserID != nil && msg.ThreadUserID != *threadUserID {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memEmbeddings struct {
	mu         sync.Mutex
	chunks     map[uuid.UUID][]model.DocumentEmbedding
	lists      int
	replaceErr error
	// listGate, when set, is called after the rows are read and before they
	// are returned.
	listGate func()
}

func newMemEmbeddings() *memEmbeddings {
	return &memEmbeddings{chunks: make(map[uuid.UUID][]model.DocumentEmbedding)}
}

func (m *memEmbeddings) ListByDocument(_ context.Context, documentID uuid.UUID) ([]model.DocumentEmbedding, error) {
	m.mu.Lock()
	m.lists++
	src := m.chunks[documentID]
	out := make([]model.DocumentEmbedding, len(src))
	copy(out, src)
	gate := m.listGate
	m.mu.Unlock()

	if gate != nil {
		gate()
	}
	return out, nil
}

func (m *memEmbeddings) Replace(_ context.Context, documentID uuid.UUID, chunks []model.DocumentEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	stored := make([]model.DocumentEmbedding, len(chunks))
	copy(stored, chunks)
	m.chunks[documentID] = stored
	return nil
}

func (m *memEmbeddings) stored(documentID uuid.UUID) []model.DocumentEmbedding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[documentID]
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event model.WorkspaceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// failingIndexStore refuses to write the document index.
type failingIndexStore struct {
	*storage.MemoryStore
}

func (s failingIndexStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if strings.HasSuffix(key, indexObjectName) {
		return io.ErrClosedPipe
	}
	return s.MemoryStore.Put(ctx, key, r, size, contentType)
}

func newDocumentService(t *testing.T, store storage.ObjectStore) *DocumentService {
	t.Helper()
	return NewDocumentService(store, cache.NewDocumentIndex(), nil, 10<<20, zap.NewNop())
}

func newEmbeddingStore(repo EmbeddingRepository, dimension int) *EmbeddingStore {
	return NewEmbeddingStore(repo, cache.NewEmbeddingCache(), nil, dimension, zap.NewNop())
}
