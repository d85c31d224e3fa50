package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one booking message. A returned error rejects the message.
type Handler func(ctx context.Context, msg *domain.BookingMessage) error

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consumer reads BookingQueue with manual acks and reconnects with exponential backoff.
type Consumer struct {
	url        string
	queue      string
	prefetch   int
	handler    Handler
	logger     *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewConsumer returns a Consumer that passes each message to handler.
func NewConsumer(url string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		url:        url,
		queue:      BookingQueue,
		prefetch:   20,
		handler:    handler,
		logger:     logger,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run consumes until ctx is cancelled, reconnecting whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err == nil {
			backoff = c.minBackoff
			err = c.consume(ctx, conn)
			_ = conn.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WarnContext(ctx, "booking consumer disconnected, retrying", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, c.maxBackoff)
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.InfoContext(ctx, "booking consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d.Body, d)
		}
	}
}

// handle acks processed messages and rejects bad ones without requeueing.
func (c *Consumer) handle(ctx context.Context, body []byte, ack acknowledger) {
	msg, err := decode(body)
	if err != nil {
		c.logger.WarnContext(ctx, "rejecting malformed booking message", "err", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := c.handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "booking message handler failed", "type", msg.Type, "booking_id", msg.BookingID, "err", err)
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}
