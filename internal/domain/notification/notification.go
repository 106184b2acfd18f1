package notification

// Kind names an outbound notification event.
type Kind string

const (
	KindBookingRequested Kind = "booking.requested"
	KindBookingConfirmed Kind = "booking.confirmed"
	KindBookingCancelled Kind = "booking.cancelled"
	KindTripCancelled    Kind = "trip.cancelled"
	KindTripCompleted    Kind = "trip.completed"
)

// Valid reports whether kind is one of the known kinds.
func (kind Kind) Valid() bool {
	switch kind {
	case KindBookingRequested, KindBookingConfirmed, KindBookingCancelled, KindTripCancelled, KindTripCompleted:
		return true
	default:
		return false
	}
}

func (kind Kind) String() string { return string(kind) }

// RoutingKey is the topic routing key the kind is published under.
func (kind Kind) RoutingKey() string { return "notify." + string(kind) }

// Payload is the body of a notification. Zero-valued fields are omitted on the wire.
type Payload struct {
	RecipientIDs []string `json:"recipient_ids"`
	BookingID    string   `json:"booking_id,omitempty"`
	TripID       string   `json:"trip_id,omitempty"`
	Seats        int      `json:"seats,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	RefundAmount *float64 `json:"refund_amount,omitempty"`
	Message      string   `json:"message,omitempty"`
}
