package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// MQPublisher publishes JSON messages through a Client.
type MQPublisher struct {
	Client *Client
}

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// PublishJSON marshals v and publishes it persistently to exchange/routingKey.
func (publisher *MQPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal %s: %w", routingKey, err)
	}
	return publisher.Client.PublishMessage(ctx, exchange, routingKey, body)
}

// PublishMessage publishes one persistent message and waits for the broker confirm.
func (client *Client) PublishMessage(ctx context.Context, exchange, routingKey string, body []byte) error {
	if err := client.Healthy(); err != nil {
		return err
	}
	client.mu.RLock()
	ch := client.pubChan
	client.mu.RUnlock()

	// confirms arrive in publish order, so publishes are serialized
	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case c, ok := <-confirms:
		if !ok {
			return fmt.Errorf("rabbitmq: confirm stream closed")
		}
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
		return nil
	case <-ctx.Done():
		// drain the pending confirm so the next publish reads its own
		select {
		case <-confirms:
		case <-time.After(2 * time.Second):
		}
		return ctx.Err()
	}
}
