package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// RabbitOutcomeQueue carries outcome events from the execution driver
// over a durable RabbitMQ queue with explicit acks, so an engine crash
// mid-processing redelivers the event instead of dropping a counter
// increment.
type RabbitOutcomeQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	delivery <-chan amqp.Delivery
}

// NewRabbitOutcomeQueue dials the broker and declares the queue.
func NewRabbitOutcomeQueue(amqpURL, queue string) (*RabbitOutcomeQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitOutcomeQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Publish sends one outcome event.
func (q *RabbitOutcomeQueue) Publish(ctx context.Context, event domain.OutcomeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		metrics.QueuePublishErrors.WithLabelValues(q.queue).Inc()
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Receive blocks until an event arrives. The returned ack function
// acknowledges the delivery, or requeues it when called with false.
func (q *RabbitOutcomeQueue) Receive(ctx context.Context) (domain.OutcomeEvent, domain.OutcomeAckFunc, error) {
	if q.delivery == nil {
		delivery, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.OutcomeEvent{}, nil, fmt.Errorf("consume: %w", err)
		}
		q.delivery = delivery
	}

	for {
		select {
		case <-ctx.Done():
			return domain.OutcomeEvent{}, nil, ctx.Err()
		case msg, ok := <-q.delivery:
			if !ok {
				return domain.OutcomeEvent{}, nil, errors.New("amqp delivery channel closed")
			}
			var event domain.OutcomeEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				// Malformed payloads can never succeed; drop them.
				_ = msg.Nack(false, false)
				continue
			}
			ack := func(success bool) error {
				if success {
					return msg.Ack(false)
				}
				return msg.Nack(false, true)
			}
			return event, ack, nil
		}
	}
}

// Close tears down the channel and connection.
func (q *RabbitOutcomeQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
