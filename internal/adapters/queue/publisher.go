package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventbooking/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes booking messages to BookingQueue as persistent JSON.
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      amqpChannel
	queue   string
	logger  *slog.Logger
	reopen  func() (amqpChannel, error)
	timeNow func() time.Time
}

var _ domain.BookingEventPublisher = (*Publisher)(nil)

// NewPublisher dials url and declares the durable booking queue.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p := &Publisher{conn: conn, queue: BookingQueue, logger: logger, timeNow: time.Now}
	p.reopen = p.openChannel
	ch, err := p.openChannel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.ch = ch
	return p, nil
}

func (p *Publisher) openChannel() (amqpChannel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	return ch, nil
}

// Publish sends msg. A closed channel is reopened once before giving up.
func (p *Publisher) Publish(ctx context.Context, msg *domain.BookingMessage) error {
	body, err := encode(msg)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.timeNow().UTC(),
		Type:         msg.Type,
		MessageId:    msg.Type + ":" + msg.BookingID,
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub)
	if errors.Is(err, amqp.ErrClosed) && p.reopen != nil {
		p.logger.WarnContext(ctx, "rabbitmq channel closed, reopening")
		ch, openErr := p.reopen()
		if openErr != nil {
			return fmt.Errorf("publish %s: %w", msg.Type, openErr)
		}
		p.ch = ch
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
