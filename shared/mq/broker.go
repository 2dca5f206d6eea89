// Package mq is the RabbitMQ client shared by the worker and the gateway.
// Everything goes through one topic exchange; consumers bind queues to
// routing key patterns.
package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	Exchange     = "funcforge.events"
	ExchangeType = "topic"

	dialAttempts = 10
)

// Publisher is the one method producers need. *Broker implements it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Broker wraps an AMQP connection and a single channel.
type Broker struct {
	url  string
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New connects to RabbitMQ and declares the exchange. The broker is often
// still starting when the services come up, so dialing is retried with a
// linear backoff until ctx is done.
func New(ctx context.Context, amqpURL string) (*Broker, error) {
	b := &Broker{url: amqpURL}
	if err := b.connect(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		b.conn, err = amqp.Dial(b.url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("rabbitmq connection failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	if err != nil {
		return fmt.Errorf("rabbitmq connect after %d attempts: %w", dialAttempts, err)
	}

	b.ch, err = b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	return b.ch.ExchangeDeclare(
		Exchange,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// Publish sends a persistent JSON message to the exchange.
func (b *Broker) Publish(ctx context.Context, routingKey string, body []byte) error {
	return b.ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Subscribe binds a durable named queue to each pattern and starts consuming
// with manual acks and a prefetch of one.
// Pattern examples: "funcgen.requested", "funcgen.*", "log.#"
func (b *Broker) Subscribe(queueName string, patterns ...string) (<-chan amqp.Delivery, error) {
	q, err := b.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return b.consume(q.Name, patterns)
}

// SubscribeTransient is Subscribe with a server-named queue that disappears
// with the connection. Each gateway replica gets its own copy of every
// matching message this way.
func (b *Broker) SubscribeTransient(patterns ...string) (<-chan amqp.Delivery, error) {
	q, err := b.ch.QueueDeclare(
		"",
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare transient queue: %w", err)
	}
	return b.consume(q.Name, patterns)
}

func (b *Broker) consume(queue string, patterns []string) (<-chan amqp.Delivery, error) {
	for _, pattern := range patterns {
		if err := b.ch.QueueBind(queue, pattern, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s to %s: %w", queue, pattern, err)
		}
	}

	if err := b.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return b.ch.Consume(
		queue,
		"",    // consumer tag, auto-generated
		false, // auto-ack off; callers ack after processing
		false, false, false, nil,
	)
}

// Close shuts down channel and connection.
func (b *Broker) Close() {
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
