package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"ride-share/internal/domain/notification"
	"ride-share/internal/general/contracts"
	"ride-share/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type delivered struct {
	recipient string
	kind      notification.Kind
}

type recordingSink struct {
	got  []delivered
	fail error
}

func (s *recordingSink) Deliver(_ context.Context, recipientID string, msg contracts.NotificationMessage) error {
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, delivered{recipient: recipientID, kind: msg.Kind})
	return nil
}

// feedConsumer hands its deliveries to the handler once and records the results.
type feedConsumer struct {
	deliveries []amqp.Delivery
	results    []error
	queue      string
	handled    chan struct{}
}

func (c *feedConsumer) Consume(ctx context.Context, queue, _ string, _ int, handler func(context.Context, amqp.Delivery) error) error {
	c.queue = queue
	for _, d := range c.deliveries {
		c.results = append(c.results, handler(ctx, d))
	}
	if c.deliveries != nil {
		c.deliveries = nil
		close(c.handled)
	}
	<-ctx.Done()
	return nil
}

func body(t *testing.T, kind notification.Kind, recipients ...string) amqp.Delivery {
	t.Helper()
	msg := contracts.NewNotificationMessage(kind, notification.Payload{
		RecipientIDs: recipients,
		BookingID:    "b-1",
		Message:      "Booking confirmed.",
	}, "booking-service", "req-1")
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return amqp.Delivery{Body: raw, RoutingKey: kind.RoutingKey()}
}

func TestHandleDeliversOncePerRecipient(t *testing.T) {
	sink := &recordingSink{}
	w := NewWorker(logger.NewWithWriter("test", io.Discard), nil, sink, 4)

	err := w.Handle(context.Background(), body(t, notification.KindBookingConfirmed, "rider-1", "driver-1", "rider-1", " "))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sink.got) != 2 || sink.got[0].recipient != "rider-1" || sink.got[1].recipient != "driver-1" {
		t.Fatalf("deliveries = %+v", sink.got)
	}
}

func TestHandleRejectsBadMessages(t *testing.T) {
	w := NewWorker(logger.NewWithWriter("test", io.Discard), nil, &recordingSink{}, 1)

	if err := w.Handle(context.Background(), amqp.Delivery{Body: []byte("{not json")}); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := w.Handle(context.Background(), body(t, "booking.exploded", "rider-1")); err == nil {
		t.Fatalf("expected unknown kind error")
	}

	failing := NewWorker(logger.NewWithWriter("test", io.Discard), nil, &recordingSink{fail: errors.New("smtp down")}, 1)
	if err := failing.Handle(context.Background(), body(t, notification.KindTripCancelled, "rider-1")); err == nil {
		t.Fatalf("expected sink error to propagate for nack")
	}
}

func TestRunConsumesNotificationQueue(t *testing.T) {
	sink := &recordingSink{}
	consumer := &feedConsumer{
		deliveries: []amqp.Delivery{body(t, notification.KindTripCompleted, "rider-1")},
		handled:    make(chan struct{}),
	}
	w := NewWorker(logger.NewWithWriter("test", io.Discard), consumer, sink, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-consumer.handled:
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.got) != 1 || consumer.results[0] != nil {
		t.Fatalf("deliveries = %+v results = %v", sink.got, consumer.results)
	}
	if consumer.queue != contracts.QueueNotifications {
		t.Fatalf("queue = %q", consumer.queue)
	}
}

func TestLogSinkWritesDelivery(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: logger.NewWithWriter("notification-worker", &buf)}
	amount := 12.5
	msg := contracts.NewNotificationMessage(notification.KindBookingCancelled, notification.Payload{
		RecipientIDs: []string{"rider-1"},
		RefundAmount: &amount,
		Message:      "Booking cancelled.",
	}, "booking-service", "")

	if err := sink.Deliver(context.Background(), "rider-1", msg); err != nil {
		t.Fatal(err)
	}
	line := buf.String()
	for _, want := range []string{`"action":"notification_delivered"`, `"recipient_id":"rider-1"`, `"refund_amount":12.5`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestFanoutReachesEverySinkAndJoinsErrors(t *testing.T) {
	boom := errors.New("socket gone")
	ok, bad := &recordingSink{}, &recordingSink{fail: boom}
	msg := contracts.NewNotificationMessage(notification.KindTripCompleted, notification.Payload{}, "trip-service", "")

	err := Fanout{bad, ok}.Deliver(context.Background(), "rider-1", msg)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(ok.got) != 1 {
		t.Fatalf("healthy sink skipped after failure: %+v", ok.got)
	}
	if err := (Fanout{ok}).Deliver(context.Background(), "rider-1", msg); err != nil {
		t.Fatalf("err = %v", err)
	}
}
