// Package events publishes domain events to a RabbitMQ topic exchange.
// Publishing is best-effort: callers treat failures as log-worthy, not fatal.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Exchange is the topic exchange all platform events go through.
const Exchange = "platform.events"

// Routing keys for the events this service emits.
const (
	UserRegistered = "user.registered"
	SessionRevoked = "session.revoked"
)

// Publisher emits JSON events keyed by routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type amqpPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	enabled bool
}

// NewPublisher connects to RabbitMQ at uri and declares the topic exchange.
// An empty uri disables publishing; every Publish becomes a no-op.
func NewPublisher(uri string) (Publisher, error) {
	if uri == "" {
		log.Warn().Msg("AMQP URL empty, event publishing disabled")
		return &amqpPublisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &amqpPublisher{conn: conn, channel: channel, enabled: true}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if !p.enabled {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *amqpPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
