package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/ai"
	"autorag/internal/cache"
	"autorag/internal/model"
)

const (
	HistoryScopeUser      = "user"
	HistoryScopeWorkspace = "workspace"
)

type ChatMessageStore interface {
	Create(ctx context.Context, message *model.ChatMessage) error
	ListThread(ctx context.Context, workspaceID uuid.UUID, threadUserID *uuid.UUID, limit int) ([]model.ChatMessage, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, thread string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, thread string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, thread string) error
	MarkDirty(ctx context.Context, thread string) error
	IsDirty(ctx context.Context, thread string) (bool, error)
}

type ChatOptions struct {
	HistoryScope string
	HistoryLimit int // newest N messages; 0 returns the whole thread
}

type ChatService struct {
	messages     ChatMessageStore
	configs      RagConfigStore
	embeddings   *EmbeddingStore
	generator    ai.Generator
	historyCache HistoryCache
	opts         ChatOptions
	log          *zap.Logger
}

// ChatReply holds both messages of a completed exchange.
type ChatReply struct {
	User      model.ChatMessage `json:"user"`
	Assistant model.ChatMessage `json:"assistant"`
}

func NewChatService(
	messages ChatMessageStore,
	configs RagConfigStore,
	embeddings *EmbeddingStore,
	generator ai.Generator,
	historyCache HistoryCache,
	opts ChatOptions,
	log *zap.Logger,
) *ChatService {
	if opts.HistoryScope == "" {
		opts.HistoryScope = HistoryScopeUser
	}
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}
	return &ChatService{
		messages:     messages,
		configs:      configs,
		embeddings:   embeddings,
		generator:    generator,
		historyCache: historyCache,
		opts:         opts,
		log:          log.Named("chat"),
	}
}

// Send stores the user's message, asks the generation service for an answer
// grounded in the selected document and stores the answer. The user message
// is kept even when a later step fails.
func (s *ChatService) Send(ctx context.Context, workspaceID, userID uuid.UUID, text string) (*ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message is empty: %w", ErrInvalidInput)
	}

	started := time.Now()
	state := "received"
	logFields := []zap.Field{
		zap.String("workspace_id", workspaceID.String()),
		zap.String("user_id", userID.String()),
	}
	fail := func(err error) (*ChatReply, error) {
		s.log.Warn("chat exchange failed", append(logFields,
			zap.String("state", state),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)...)
		return nil, err
	}

	author := userID
	userMsg := model.ChatMessage{
		WorkspaceID:  workspaceID,
		ThreadUserID: userID,
		MessageType:  model.MessageTypeUser,
		UserID:       &author,
		Text:         text,
	}
	if err := s.messages.Create(ctx, &userMsg); err != nil {
		return fail(err)
	}
	s.invalidateHistory(ctx, workspaceID, userID)
	state = "user_message_persisted"

	cfg, err := s.configs.Get(ctx, workspaceID)
	if err != nil {
		return fail(err)
	}
	if cfg == nil {
		return fail(ErrNotConfigured)
	}
	state = "config_resolved"

	if cfg.SelectedDocumentID == nil {
		return fail(ErrNoDocumentSelected)
	}
	documentID := *cfg.SelectedDocumentID
	chunks, err := s.embeddings.GetByDocument(ctx, documentID)
	if err != nil {
		return fail(err)
	}
	state = "embeddings_resolved"

	req := ai.GenerateRequest{
		ChatID:             workspaceID.String(),
		UserMessage:        text,
		DocumentID:         documentID.String(),
		Embeddings:         make([][]float32, len(chunks)),
		TextChunks:         make([]string, len(chunks)),
		TopK:               cfg.TopK,
		Temperature:        cfg.Temperature,
		Threshold:          cfg.Threshold,
		PromptRetrieve:     cfg.RetrievePrompt,
		PromptAugmentation: cfg.AugmentationPrompt,
		PromptGeneration:   cfg.SystemPrompt,
		LLM:                cfg.LLMModel,
	}
	for i, c := range chunks {
		req.Embeddings[i] = c.Embedding.Slice()
		req.TextChunks[i] = c.Content
	}

	answer, err := s.generator.Generate(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	state = "answer_requested"

	assistantMsg := model.ChatMessage{
		WorkspaceID:  workspaceID,
		ThreadUserID: userID,
		MessageType:  model.MessageTypeAssistant,
		Text:         answer,
	}
	if err := s.messages.Create(ctx, &assistantMsg); err != nil {
		return fail(err)
	}
	s.invalidateHistory(ctx, workspaceID, userID)

	s.log.Info("chat exchange completed", append(logFields,
		zap.String("state", "answer_persisted"),
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", time.Since(started)),
	)...)
	return &ChatReply{User: userMsg, Assistant: assistantMsg}, nil
}

// History returns the caller's thread in ascending order. Depending on the
// configured scope that is either the caller's own exchanges or the whole
// workspace conversation.
func (s *ChatService) History(ctx context.Context, workspaceID, userID uuid.UUID) ([]model.ChatMessage, error) {
	thread, threadUser := s.thread(workspaceID, userID)

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, thread)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, thread); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListThread(ctx, workspaceID, threadUser, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, thread); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, thread, messages); err != nil {
				s.log.Debug("cache history failed", zap.Error(err))
			}
		}
	}
	return messages, nil
}

func (s *ChatService) thread(workspaceID, userID uuid.UUID) (string, *uuid.UUID) {
	if s.opts.HistoryScope == HistoryScopeWorkspace {
		return cache.ThreadKey(workspaceID.String(), ""), nil
	}
	return cache.ThreadKey(workspaceID.String(), userID.String()), &userID
}

func (s *ChatService) invalidateHistory(ctx context.Context, workspaceID, userID uuid.UUID) {
	if s.historyCache == nil {
		return
	}
	thread, _ := s.thread(workspaceID, userID)
	if err := s.historyCache.MarkDirty(ctx, thread); err != nil {
		s.log.Debug("mark history dirty failed", zap.Error(err))
	}
	if err := s.historyCache.DeleteHistory(ctx, thread); err != nil {
		s.log.Debug("drop cached history failed", zap.Error(err))
	}
}
