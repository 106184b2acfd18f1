package contracts

import (
	"time"

	"ride-share/internal/domain/notification"
)

// NotificationMessage is published by the trip and booking services.
// Routing key: "notify.{kind}" on ExchangeNotificationTopic.
type NotificationMessage struct {
	Kind    notification.Kind    `json:"kind"`
	Payload notification.Payload `json:"payload"`
	Envelope
}

// NewNotificationMessage stamps a message with producer and send time.
func NewNotificationMessage(kind notification.Kind, payload notification.Payload, producer, correlationID string) NotificationMessage {
	return NotificationMessage{
		Kind:    kind,
		Payload: payload,
		Envelope: Envelope{
			CorrelationID: correlationID,
			Producer:      producer,
			SentAt:        time.Now().UTC(),
		},
	}
}
