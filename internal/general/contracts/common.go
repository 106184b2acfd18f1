package contracts

import "time"

// Envelope adds cross-cutting headers all messages may carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // request id of the originating HTTP call
	Producer      string    `json:"producer,omitempty"`       // e.g. "booking-service"
	SentAt        time.Time `json:"sent_at,omitempty"`
}
