package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes domain and audit events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP
// is unavailable. The service keeps running either way.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		slog.Info("rabbitmq disabled, using noop", "reason", "empty amqp url")
		return noopPublisher{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		slog.Warn("rabbitmq disabled, using noop", "err", err)
		return noopPublisher{}
	}

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq disabled, using noop", "err", err)
		_ = conn.Close()
		return noopPublisher{}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		slog.Warn("rabbitmq disabled, using noop", "err", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{}
	}

	slog.Info("rabbitmq connected", "exchange", exchange)
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	return p.PublishJSON(ctx, routingKey, event, nil)
}

func (p *amqpPublisher) PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	amqpHeaders := amqp.Table{}
	for key, value := range headers {
		amqpHeaders[key] = value
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqpHeaders,
	})
	if err != nil {
		slog.Error("rabbitmq publish failed", "routing_key", routingKey, "err", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	slog.Debug("rabbitmq noop publish", "routing_key", routingKey)
	return nil
}

func (noopPublisher) PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	slog.Debug("rabbitmq noop publish", "routing_key", routingKey)
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
