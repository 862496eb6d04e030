package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autorag/internal/ai"
	"autorag/internal/cache"
	"autorag/internal/model"
)

type chatFixture struct {
	messages   *memMessages
	configs    *memConfigs
	embeddings *EmbeddingStore
	ws         uuid.UUID
	user       uuid.UUID
}

func newChatFixture() *chatFixture {
	return &chatFixture{
		messages:   &memMessages{},
		configs:    newMemConfigs(),
		embeddings: newEmbeddingStore(newMemEmbeddings(), 0),
		ws:         uuid.New(),
		user:       uuid.New(),
	}
}

func (f *chatFixture) service(gen ai.Generator, scope string) *ChatService {
	return NewChatService(f.messages, f.configs, f.embeddings, gen, nil, ChatOptions{HistoryScope: scope}, zap.NewNop())
}

func (f *chatFixture) configure(t *testing.T, docID uuid.UUID) {
	t.Helper()
	cfg := model.DefaultRagConfig(f.ws)
	cfg.SelectedDocumentID = &docID
	require.NoError(t, f.configs.Upsert(context.Background(), &cfg))
	require.NoError(t, f.embeddings.Replace(context.Background(), docID,
		[]string{"alpha", "beta"},
		[][]float32{{0.1, 0.2}, {0.3, 0.4}},
	))
}

func TestChatWithoutConfigKeepsUserMessage(t *testing.T) {
	f := newChatFixture()
	svc := f.service(ai.StubGenerator{}, HistoryScopeUser)

	_, err := svc.Send(context.Background(), f.ws, f.user, "hello?")
	assert.ErrorIs(t, err, ErrNotConfigured)

	history, err := svc.History(context.Background(), f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MessageTypeUser, history[0].MessageType)
	assert.Equal(t, "hello?", history[0].Text)
}

func TestChatWithoutSelectedDocument(t *testing.T) {
	f := newChatFixture()
	cfg := model.DefaultRagConfig(f.ws)
	require.NoError(t, f.configs.Upsert(context.Background(), &cfg))

	_, err := f.service(ai.StubGenerator{}, HistoryScopeUser).Send(context.Background(), f.ws, f.user, "hi")
	assert.ErrorIs(t, err, ErrNoDocumentSelected)
}

func TestChatEndToEndAgainstGenerationService(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		requests = append(requests, body)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"generated_answer":"hello"}`)
	}))
	defer srv.Close()

	f := newChatFixture()
	docID := uuid.New()
	f.configure(t, docID)
	svc := f.service(ai.NewGenerationClient(srv.URL, time.Second), HistoryScopeUser)

	reply, err := svc.Send(context.Background(), f.ws, f.user, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Assistant.Text)

	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, f.ws.String(), req["chat_id"])
	assert.Equal(t, "hi", req["user_message"])
	assert.Equal(t, docID.String(), req["document_id"])
	assert.Equal(t, float64(3), req["top_k"])
	assert.InDelta(t, 0.7, req["temperature"], 1e-9)
	assert.Equal(t, float64(0), req["threshold"])
	assert.Equal(t, []any{"alpha", "beta"}, req["text_chunks"])
	assert.Len(t, req["embeddings"], 2)
	assert.NotContains(t, req, "prompt_retrieve")
	assert.NotContains(t, req, "prompt_augmentation")

	history, err := svc.History(context.Background(), f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.MessageTypeUser, history[0].MessageType)
	assert.Equal(t, "hi", history[0].Text)
	assert.Equal(t, model.MessageTypeAssistant, history[1].MessageType)
	assert.Equal(t, "hello", history[1].Text)
	assert.Nil(t, history[1].UserID)
	assert.Less(t, history[0].ID, history[1].ID)
}

func TestChatGenerationFailureStoresNoAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newChatFixture()
	f.configure(t, uuid.New())
	svc := f.service(ai.NewGenerationClient(srv.URL, time.Second), HistoryScopeUser)

	_, err := svc.Send(context.Background(), f.ws, f.user, "hi")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.True(t, IsRetryable(err))

	history, err := svc.History(context.Background(), f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MessageTypeUser, history[0].MessageType)
}

func TestChatHistoryScope(t *testing.T) {
	f := newChatFixture()
	f.configure(t, uuid.New())
	other := uuid.New()

	perUser := f.service(ai.StubGenerator{}, HistoryScopeUser)
	_, err := perUser.Send(context.Background(), f.ws, f.user, "alpha please")
	require.NoError(t, err)
	_, err = perUser.Send(context.Background(), f.ws, other, "beta please")
	require.NoError(t, err)

	mine, err := perUser.History(context.Background(), f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "alpha", mine[1].Text)

	everyone, err := f.service(ai.StubGenerator{}, HistoryScopeWorkspace).History(context.Background(), f.ws, f.user)
	require.NoError(t, err)
	assert.Len(t, everyone, 4)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newChatFixture()
	_, err := f.service(ai.StubGenerator{}, HistoryScopeUser).Send(context.Background(), f.ws, f.user, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.messages.messages)
}

func TestChatHistoryReturnsWholeThreadByDefault(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	author := f.user
	for i := 0; i < 250; i++ {
		require.NoError(t, f.messages.Create(ctx, &model.ChatMessage{
			WorkspaceID:  f.ws,
			ThreadUserID: f.user,
			MessageType:  model.MessageTypeUser,
			UserID:       &author,
			Text:         fmt.Sprintf("message %d", i),
		}))
	}

	history, err := f.service(ai.StubGenerator{}, HistoryScopeUser).History(ctx, f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, history, 250)
	assert.Equal(t, "message 0", history[0].Text)
	assert.Equal(t, "message 249", history[249].Text)

	capped := NewChatService(f.messages, f.configs, f.embeddings, ai.StubGenerator{}, nil,
		ChatOptions{HistoryScope: HistoryScopeUser, HistoryLimit: 5}, zap.NewNop())
	recent, err := capped.History(ctx, f.ws, f.user)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "message 245", recent[0].Text)
	assert.Equal(t, "message 249", recent[4].Text)
}

// memHistory is an in-process stand-in for the Redis history cache.
type memHistory struct {
	mu      sync.Mutex
	threads map[string][]model.ChatMessage
	dirty   map[string]bool
	sets    int
}

func newMemHistory() *memHistory {
	return &memHistory{threads: make(map[string][]model.ChatMessage), dirty: make(map[string]bool)}
}

func (h *memHistory) GetHistory(_ context.Context, thread string) ([]model.ChatMessage, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs, ok := h.threads[thread]
	return msgs, ok, nil
}

func (h *memHistory) SetHistory(_ context.Context, thread string, messages []model.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.threads[thread] = messages
	h.sets++
	return nil
}

func (h *memHistory) DeleteHistory(_ context.Context, thread string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.threads, thread)
	return nil
}

func (h *memHistory) MarkDirty(_ context.Context, thread string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirty[thread] = true
	return nil
}

func (h *memHistory) IsDirty(_ context.Context, thread string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty[thread], nil
}

func (h *memHistory) expireDirty() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirty = make(map[string]bool)
}

func TestChatHistoryCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	f.configure(t, uuid.New())
	hist := newMemHistory()
	svc := NewChatService(f.messages, f.configs, f.embeddings, ai.StubGenerator{}, hist,
		ChatOptions{HistoryScope: HistoryScopeUser}, zap.NewNop())
	thread := cache.ThreadKey(f.ws.String(), f.user.String())

	_, err := svc.Send(ctx, f.ws, f.user, "alpha please")
	require.NoError(t, err)
	dirty, _ := hist.IsDirty(ctx, thread)
	assert.True(t, dirty, "a send marks the thread dirty")

	history, err := svc.History(ctx, f.ws, f.user)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Zero(t, hist.sets, "a dirty thread is not cached")

	hist.expireDirty()
	history, err = svc.History(ctx, f.ws, f.user)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 1, hist.sets)

	// Written behind the service's back, so only a cache hit hides it.
	author := f.user
	require.NoError(t, f.messages.Create(ctx, &model.ChatMessage{
		WorkspaceID: f.ws, ThreadUserID: f.user, MessageType: model.MessageTypeUser, UserID: &author, Text: "unseen",
	}))
	cached, err := svc.History(ctx, f.ws, f.user)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, 1, hist.sets)

	_, err = svc.Send(ctx, f.ws, f.user, "beta please")
	require.NoError(t, err)
	_, hit, _ := hist.GetHistory(ctx, thread)
	assert.False(t, hit, "a send drops the cached copy")

	fresh, err := svc.History(ctx, f.ws, f.user)
	require.NoError(t, err)
	assert.Len(t, fresh, 5)
}
