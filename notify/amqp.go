package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes ClipsReady messages to a durable queue on the default
// exchange. A channel is not safe for concurrent publishes, hence the mutex.
type AMQP struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

func DialAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQP{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

func (a *AMQP) Publish(ctx context.Context, msg ClipsReady) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.PublishWithContext(ctx, "", a.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: msg.RunID,
		Timestamp:     a.now(),
		Type:          "clips.ready",
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", a.queue, err)
	}
	return nil
}

func (a *AMQP) Close() error {
	var first error
	if a.ch != nil {
		first = a.ch.Close()
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
