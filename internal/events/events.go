// Package events publishes account lifecycle events to a message broker.
// Publishing is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueUserRegistered is the durable queue user.registered events go to
const QueueUserRegistered = "user.registered"

// UserRegistered is published after an account has been stored
type UserRegistered struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	SafeName     string `json:"safe_name"`
	Country      string `json:"country"`
	RegisteredAt string `json:"registered_at"` // RFC 3339, UTC
}

// Publisher delivers events
type Publisher interface {
	PublishUserRegistered(ctx context.Context, ev UserRegistered) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, UserRegistered) error { return nil }

// dialFunc opens a broker connection; replaced in tests
type dialFunc func(url string) (amqpConn, error)

type amqpConn interface {
	Channel() (amqpChannel, error)
	Close() error
}

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type connAdapter struct{ *amqp.Connection }

func (c connAdapter) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return connAdapter{conn}, nil
}

// AMQPPublisher dials the broker for every event
type AMQPPublisher struct {
	url  string
	dial dialFunc
}

// NewAMQPPublisher publishes to the broker at url
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dial: dialAMQP}
}

// PublishUserRegistered sends ev as a persistent JSON message
func (p *AMQPPublisher) PublishUserRegistered(ctx context.Context, ev UserRegistered) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, QueueUserRegistered, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, body []byte) error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish %s: %w", queue, err)
	}
	log.Printf("[EVENTS]: published %s (%d bytes)", queue, len(body))
	return nil
}
