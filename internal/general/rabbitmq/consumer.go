package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const handlerTimeout = 30 * time.Second

var errNotReady = errors.New("rabbitmq: connection is not ready")

// acknowledger is the part of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consume delivers messages from queue to handler with manual acks until ctx
// ends. A failed delivery is requeued once, then dead-lettered through the
// queue's DLX.
func (client *Client) Consume(
	ctx context.Context,
	queue string,
	consumerTag string,
	prefetch int,
	handler func(context.Context, amqp.Delivery) error,
) error {
	ch, err := client.consumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			if consumerTag != "" {
				_ = ch.Cancel(consumerTag, false)
			}
			return nil

		case cerr := <-closed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := dispatch(ctx, d, handler); err != nil {
				client.logger.Error(ctx, "rabbitmq_handler_failed", "Delivery handler failed", err,
					map[string]any{"queue": queue, "routing_key": d.RoutingKey, "redelivered": d.Redelivered})
			}
			settle(&d, d.Redelivered, err)
		}
	}
}

// consumerChannel opens a channel on the live connection with prefetch applied.
// A negative prefetch means one message at a time.
func (client *Client) consumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return nil, errNotReady
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if prefetch < 0 {
		prefetch = 1
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("rabbitmq: set QoS (prefetch=%d): %w", prefetch, err)
		}
	}
	return ch, nil
}

// dispatch runs handler under a per-delivery timeout. A handler panic is
// reported as an error so the delivery is still settled.
func dispatch(ctx context.Context, d amqp.Delivery, handler func(context.Context, amqp.Delivery) error) (err error) {
	hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rabbitmq: handler panic: %v", p)
		}
	}()
	return handler(hCtx, d)
}

// settle acks a handled delivery. Failures are requeued on first delivery
// and rejected without requeue on redelivery.
func settle(a acknowledger, redelivered bool, err error) {
	if err == nil {
		_ = a.Ack(false)
		return
	}
	_ = a.Nack(false, !redelivered)
}
