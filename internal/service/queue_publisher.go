// Package service holds the thin integration layer between the HTTP
// surface and external systems (currently the message broker).
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/event"
	"github.com/triproom/server/internal/queue"
)

// QueuePublisher publishes room activity events to RabbitMQ. The channel
// is lazily opened and re-opened after a broker failure; publish errors
// are returned to the dispatcher, which logs and ignores them, keeping
// the broker strictly off the request's critical path.
type QueuePublisher struct {
	url string
	log *logrus.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueuePublisher(url string, log *logrus.Logger) *QueuePublisher {
	return &QueuePublisher{url: url, log: log}
}

// Publish implements event.Publisher.
func (p *QueuePublisher) Publish(ctx context.Context, e event.Event) error {
	if p.url == "" {
		return nil
	}
	body, err := json.Marshal(queue.RoomActivityEvent{
		Event:      e.Name,
		RoomID:     e.RoomID,
		ActorID:    e.ActorID,
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", queue.QueueRoomActivity, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		// Channel is likely dead; drop it so the next publish redials.
		p.reset()
		return fmt.Errorf("publish %s: %w", e.Name, err)
	}
	return nil
}

func (p *QueuePublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return p.ch, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.QueueRoomActivity, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *QueuePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection at shutdown.
func (p *QueuePublisher) Close() {
	p.reset()
}
