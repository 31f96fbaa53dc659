package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"qrdine-backend/internal/models"
)

// NotificationsExchange is the fanout exchange other services (kitchen
// display, manager console) bind their queues to.
const NotificationsExchange = "notifications_fanout"

// confirmChannel is the part of *amqp.Channel the publisher needs.
type confirmChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// Publisher sends messages on a channel in confirm mode. Every publish
// waits for the broker's confirmation of its own delivery tag.
type Publisher struct {
	conn *amqp.Connection
	ch   confirmChannel
}

// DialPublisher connects to url, declares the notifications exchange and
// puts the channel into confirm mode.
func DialPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	setup := func() error {
		if err := ch.ExchangeDeclare(NotificationsExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange: %w", err)
		}
		if err := ch.Confirm(false); err != nil {
			return fmt.Errorf("enable confirms: %w", err)
		}
		return nil
	}
	if err := setup(); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends msg and blocks until the broker acks it or ctx is done.
func (p *Publisher) Publish(ctx context.Context, exchange string, msg amqp.Publishing) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, "", false, false, msg)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if confirm == nil {
		return ErrConfirmsDisabled
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

var (
	ErrConfirmsDisabled = errors.New("channel is not in confirm mode")
	ErrPublishNacked    = errors.New("broker nacked publish")
)

// MessagePublisher is what BrokerSink needs from a Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange string, msg amqp.Publishing) error
}

// BrokerSink publishes notifications to the fanout exchange.
type BrokerSink struct {
	pub     MessagePublisher
	logger  *zap.Logger
	timeout time.Duration
	bg      background
}

func NewBrokerSink(pub MessagePublisher, logger *zap.Logger) *BrokerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrokerSink{pub: pub, logger: logger, timeout: 5 * time.Second}
}

func (s *BrokerSink) Notify(ctx context.Context, n models.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("❌ Failed to encode notification", zap.Error(err))
		return
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		MessageId:    n.ID,
		Headers:      amqp.Table{"kind": string(n.Kind)},
		Body:         body,
	}
	if n.WaiterID != "" {
		msg.Headers["waiter_id"] = n.WaiterID
	}

	s.bg.run(ctx, s.timeout, func(ctx context.Context) {
		if err := s.pub.Publish(ctx, NotificationsExchange, msg); err != nil {
			s.logger.Warn("⚠️  Notification publish failed", zap.String("id", n.ID), zap.Error(err))
		}
	})
}

// Close waits for in-flight publishes.
func (s *BrokerSink) Close() { s.bg.wait() }
