package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ownit/utils"
)

// ExchangeName is the topic exchange auction events are published to.
// Routing key is auction.<auctionID>, so consumers can bind per auction or
// with a wildcard for all of them.
const ExchangeName = "auction.events"

// AMQPPublisher publishes auction events to a RabbitMQ topic exchange. It is
// the broker-backed counterpart of the in-process Hub; both sit behind the
// Publisher port and are usually combined with MultiPublisher.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	timeout time.Duration
}

// NewAMQPPublisher dials the broker and declares the topic exchange
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: dial %s: %w", url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp publisher: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp publisher: declare exchange %s: %w", ExchangeName, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, timeout: 5 * time.Second}, nil
}

// PublishEvent publishes one event with routing key auction.<topic>. Publish
// failures are logged and swallowed: broker delivery is best-effort and must
// not fail the bid transaction that produced the event.
func (p *AMQPPublisher) PublishEvent(topic, eventType string, payload any) {
	event := Event{
		Topic:     topic,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		utils.Error("amqp publisher: marshal event failed", map[string]any{
			"topic": topic, "event_type": eventType, "error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		ExchangeName,     // exchange
		"auction."+topic, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		utils.Error("amqp publisher: publish failed", map[string]any{
			"topic": topic, "event_type": eventType, "error": err.Error(),
		})
	}
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
