package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel publishes messages to a durable queue. The connection is dialed
// lazily and re-dialed after it closes.
type AMQPChannel struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPChannel(url, queue string) *AMQPChannel {
	return &AMQPChannel{url: url, queue: queue}
}

func (c *AMQPChannel) Name() string { return "amqp" }

func (c *AMQPChannel) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("AMQPChannel.Deliver: marshal: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.channel()
	if err != nil {
		return fmt.Errorf("AMQPChannel.Deliver: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		c.reset()
		return fmt.Errorf("AMQPChannel.Deliver: publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing and declaring the queue when needed. Caller holds mu.
func (c *AMQPChannel) channel() (*amqp.Channel, error) {
	if c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}
	c.reset()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	c.conn, c.ch = conn, ch
	return ch, nil
}

func (c *AMQPChannel) reset() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn, c.ch = nil, nil
}

func (c *AMQPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	return nil
}
