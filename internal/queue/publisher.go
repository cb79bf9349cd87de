package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher publishes security alerts to RabbitMQ. Errors are logged and
// returned so callers can ignore failures without interrupting the request
// that raised the alert.
type Publisher struct {
	url string
	log zerolog.Logger
}

// NewPublisher builds a publisher for the given AMQP URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishAlert publishes one alert to the security.alerts queue. The queue is
// declared durable and messages are persistent so alerts survive broker
// restarts. The function never panics; every error is logged and returned.
func (p *Publisher) PublishAlert(ctx context.Context, alert SecurityAlert) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publisher and consumer can start in any order.
	if _, err := ch.QueueDeclare(AlertQueueName, true, false, false, false, nil); err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(alert)
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: marshal alert failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AlertQueueName, false, false, pub); err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
