package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	paymentApp "github.com/cassiomorais/payment-orchestrator/internal/application/payment"
	"github.com/redis/go-redis/v9"
)

const (
	// PaymentEventStream carries terminal payment events for downstream consumers.
	PaymentEventStream = "payments:events"
)

// StreamPublisher publishes payment events to a Redis Stream. Delivery is
// at-least-once; the orchestrator only requires accepted-or-error semantics.
type StreamPublisher struct {
	client *redis.Client
}

func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// SendPaymentEvent implements the orchestrator's event publisher port.
func (p *StreamPublisher) SendPaymentEvent(ctx context.Context, event paymentApp.PaymentEvent) error {
	args := &redis.XAddArgs{
		Stream: PaymentEventStream,
		Values: map[string]any{
			"payment_id":     event.PaymentID,
			"user_id":        event.UserID,
			"order_id":       event.OrderID,
			"amount_cents":   event.AmountCents,
			"currency":       event.Currency,
			"status":         event.Status,
			"transaction_id": event.TransactionID,
			"timestamp":      time.Now().Unix(),
		},
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}
	return nil
}

// StreamConsumer reads payment events through a consumer group.
type StreamConsumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
}

func NewStreamConsumer(
	client *redis.Client,
	stream string,
	group string,
	consumer string,
	batchSize int64,
	blockDuration time.Duration,
) *StreamConsumer {
	return &StreamConsumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
	}
}

func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	// Create stream if it doesn't exist
	const busyGroupMsg = "BUSYGROUP"
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), busyGroupMsg) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (c *StreamConsumer) Read(ctx context.Context) ([]redis.XStream, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			// No new messages
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	return streams, nil
}

func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	err := c.client.XAck(ctx, c.stream, c.group, messageID).Err()
	if err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}
