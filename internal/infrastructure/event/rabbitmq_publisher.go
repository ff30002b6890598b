package event

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

// amqpChannel is the part of *amqp.Channel the publisher uses
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes events to a durable topic exchange. The routing
// key is the event type, e.g. "marketplace_job.completed".
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	exchange   string
	serializer *EventSerializer
	logger     *zap.Logger

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
	ch amqpChannel
}

// NewRabbitMQPublisher dials the broker and declares the exchange
func NewRabbitMQPublisher(cfg config.RabbitMQConfig, serializer *EventSerializer, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq declare exchange %s: %w", cfg.Exchange, err)
	}

	p := newRabbitMQPublisher(ch, cfg.Exchange, serializer, logger)
	p.conn = conn
	logger.Info("RabbitMQ event publisher ready", zap.String("exchange", cfg.Exchange))
	return p, nil
}

func newRabbitMQPublisher(ch amqpChannel, exchange string, serializer *EventSerializer, logger *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		ch:         ch,
		exchange:   exchange,
		serializer: serializer,
		logger:     logger,
	}
}

var _ shared.EventPublisher = (*RabbitMQPublisher)(nil)

// Publish sends each event as a persistent JSON message. It stops at the
// first failure.
func (p *RabbitMQPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		body, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		msg := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID().String(),
			Timestamp:    event.OccurredAt(),
			Type:         event.EventType(),
			Headers: amqp.Table{
				"aggregate_type": event.AggregateType(),
				"aggregate_id":   event.AggregateID().String(),
				"user_id":        event.UserID().String(),
			},
			Body: body,
		}

		p.mu.Lock()
		err = p.ch.PublishWithContext(ctx, p.exchange, event.EventType(), false, false, msg)
		p.mu.Unlock()
		if err != nil {
			return fmt.Errorf("rabbitmq publish %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Close closes the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
