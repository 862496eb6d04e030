package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"autorag/internal/model"
)

// EventPublisher fans workspace events out to every replica.
type EventPublisher struct {
	conn     *amqp.Connection
	exchange string
	origin   string
}

func NewEventPublisher(conn *amqp.Connection, exchange, origin string) *EventPublisher {
	return &EventPublisher{
		conn:     conn,
		exchange: exchange,
		origin:   origin,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.WorkspaceEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, p.exchange); err != nil {
		return err
	}

	if event.Origin == "" {
		event.Origin = p.origin
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Type:        event.Kind,
			Body:        payload,
		},
	); err != nil {
		return fmt.Errorf("publish event failed: %w", err)
	}
	return nil
}
