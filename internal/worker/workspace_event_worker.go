package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"autorag/internal/model"
)

// CacheInvalidator drops in-process cache entries another replica changed.
type CacheInvalidator interface {
	InvalidateWorkspace(workspaceID uuid.UUID)
	InvalidateDocument(documentID uuid.UUID)
}

// WorkspaceEventWorker consumes the workspace event exchange through a
// private, auto-deleted queue so every replica sees every event.
type WorkspaceEventWorker struct {
	conn       *amqp.Connection
	exchange   string
	instanceID string
	caches     CacheInvalidator
	log        *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorkspaceEventWorker(conn *amqp.Connection, exchange, instanceID string, caches CacheInvalidator, log *zap.Logger) *WorkspaceEventWorker {
	return &WorkspaceEventWorker{
		conn:       conn,
		exchange:   exchange,
		instanceID: instanceID,
		caches:     caches,
		log:        log.Named("workspace_events"),
	}
}

func (w *WorkspaceEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	queue, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	if err := ch.QueueBind(queue.Name, "", w.exchange, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("bind worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event model.WorkspaceEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					w.log.Warn("decode workspace event failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				w.Handle(event)
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle applies one event. Events this replica published itself are skipped,
// its caches were updated in place.
func (w *WorkspaceEventWorker) Handle(event model.WorkspaceEvent) {
	if event.Origin == w.instanceID {
		return
	}

	switch event.Kind {
	case model.EventDocumentUploaded:
		w.caches.InvalidateWorkspace(event.WorkspaceID)
	case model.EventEmbeddingsReplaced:
		w.caches.InvalidateDocument(event.DocumentID)
	default:
		w.log.Debug("ignoring workspace event", zap.String("kind", event.Kind))
		return
	}
	w.log.Debug("cache invalidated",
		zap.String("kind", event.Kind),
		zap.String("origin", event.Origin),
	)
}

func (w *WorkspaceEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
