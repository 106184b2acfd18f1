package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ride-share/internal/general/contracts"
	"ride-share/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerTag    = "notification-worker"
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Consumer is the slice of the MQ client the worker needs.
type Consumer interface {
	Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error
}

// Sink delivers one notification to one recipient.
type Sink interface {
	Deliver(ctx context.Context, recipientID string, msg contracts.NotificationMessage) error
}

// Worker drains the notifications queue into a Sink.
type Worker struct {
	logger   *logger.Logger
	consumer Consumer
	sink     Sink
	prefetch int
}

func NewWorker(log *logger.Logger, consumer Consumer, sink Sink, prefetch int) *Worker {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Worker{logger: log, consumer: consumer, sink: sink, prefetch: prefetch}
}

// Run consumes until ctx ends, resubscribing with backoff when the channel drops.
func (w *Worker) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		err := w.consumer.Consume(ctx, contracts.QueueNotifications, consumerTag, w.prefetch, w.Handle)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = initialBackoff
		} else {
			w.logger.Error(ctx, "notification_consume_failed", "Consumer stopped, resubscribing", err,
				map[string]any{"backoff": backoff.String()})
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// Handle decodes one delivery and hands it to the sink once per recipient.
// A returned error makes the consumer nack the delivery.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) error {
	var msg contracts.NotificationMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	if !msg.Kind.Valid() {
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
	if msg.CorrelationID != "" {
		ctx = w.logger.WithRequestID(ctx, msg.CorrelationID)
	}
	if msg.Payload.BookingID != "" {
		ctx = w.logger.WithBookingID(ctx, msg.Payload.BookingID)
	}
	if msg.Payload.TripID != "" {
		ctx = w.logger.WithTripID(ctx, msg.Payload.TripID)
	}

	seen := make(map[string]struct{}, len(msg.Payload.RecipientIDs))
	for _, id := range msg.Payload.RecipientIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := w.sink.Deliver(ctx, id, msg); err != nil {
			return fmt.Errorf("deliver %s to %s: %w", msg.Kind, id, err)
		}
	}

	if len(seen) == 0 {
		w.logger.Debug(ctx, "notification_skipped", "Notification has no recipients", map[string]any{"kind": msg.Kind})
	}
	return nil
}

// Fanout delivers to every sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) Deliver(ctx context.Context, recipientID string, msg contracts.NotificationMessage) error {
	var errs []error
	for _, s := range f {
		if err := s.Deliver(ctx, recipientID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each delivery as a structured log line.
type LogSink struct {
	Logger *logger.Logger
}

func (s LogSink) Deliver(ctx context.Context, recipientID string, msg contracts.NotificationMessage) error {
	details := map[string]any{
		"recipient_id": recipientID,
		"kind":         msg.Kind,
		"producer":     msg.Producer,
	}
	if msg.Payload.Seats > 0 {
		details["seats"] = msg.Payload.Seats
	}
	if msg.Payload.Amount != nil {
		details["amount"] = *msg.Payload.Amount
	}
	if msg.Payload.RefundAmount != nil {
		details["refund_amount"] = *msg.Payload.RefundAmount
	}
	s.Logger.Info(ctx, "notification_delivered", msg.Payload.Message, details)
	return nil
}
