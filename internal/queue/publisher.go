// Package queue forwards moderation events to RabbitMQ so other systems can
// react to bans and role changes. Publishing is best-effort.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"skillswap/internal/models"
	"skillswap/internal/observability"
)

// ModerationQueue is the durable queue moderation events are routed to.
const ModerationQueue = "skillswap.moderation"

// Publisher publishes moderation events on a fresh connection per event.
// Moderation is rare, so there is no connection to keep healthy.
type Publisher struct {
	url    string
	queue  string
	dial   func(url string) (*amqp.Connection, error)
	logger *slog.Logger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{
		url:    url,
		queue:  ModerationQueue,
		dial:   amqp.Dial,
		logger: observability.Component("queue"),
	}
}

// Publish declares the queue and sends event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event models.ModerationEvent) (err error) {
	defer func() {
		outcome := "published"
		if err != nil {
			outcome = "failed"
			p.logger.WarnContext(ctx, "moderation event not published",
				slog.String("action", string(event.Action)),
				slog.String("error", err.Error()),
			)
		}
		observability.ModerationEventsPublished.WithLabelValues(string(event.Action), outcome).Inc()
	}()

	msg, err := Message(event)
	if err != nil {
		return err
	}

	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Message encodes event as the publishing sent to the broker.
func Message(event models.ModerationEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal moderation event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         "moderation." + string(event.Action),
		Timestamp:    event.At.UTC(),
		Body:         body,
	}, nil
}
