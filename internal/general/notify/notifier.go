package notify

import (
	"context"
	"sync"
	"time"

	"ride-share/internal/domain/notification"
	"ride-share/internal/general/contracts"
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

// Publisher is the slice of the MQ publisher the notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, v any) error
}

// MQNotifier publishes notifications on its own goroutine with a detached
// context. Failures are logged and never reach the caller.
type MQNotifier struct {
	pub      Publisher
	producer string
	logger   *logger.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewMQNotifier(pub Publisher, producer string, log *logger.Logger) *MQNotifier {
	return &MQNotifier{pub: pub, producer: producer, logger: log, timeout: 5 * time.Second}
}

var _ ports.Notifier = (*MQNotifier)(nil)

func (n *MQNotifier) Notify(ctx context.Context, kind notification.Kind, payload notification.Payload) {
	msg := contracts.NewNotificationMessage(kind, payload, n.producer, logger.RequestID(ctx))
	detached := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error(detached, "notification_panic", "Recovered panic while publishing notification", nil,
					map[string]any{"kind": kind, "panic": r})
			}
		}()

		pubCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.pub.PublishJSON(pubCtx, contracts.ExchangeNotificationTopic, kind.RoutingKey(), msg); err != nil {
			n.logger.Error(detached, "notification_failed", "Failed to publish notification", err,
				map[string]any{"kind": kind, "booking_id": payload.BookingID, "trip_id": payload.TripID})
			return
		}
		n.logger.Debug(detached, "notification_sent", "Notification published", map[string]any{"kind": kind})
	}()
}

// Wait blocks until in-flight notifications finish; used on shutdown.
func (n *MQNotifier) Wait() {
	n.wg.Wait()
}
