package payment

import (
	"math"
	"strings"
	"time"

	"ride-share/internal/apperr"
)

// Status is a payment status as stored in the `payment_status` enum.
type Status string

const (
	StatusPending  Status = "pending"
	StatusCaptured Status = "captured"
	StatusRefunded Status = "refunded"
	StatusFailed   Status = "failed"
)

func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusCaptured, StatusRefunded, StatusFailed:
		return true
	default:
		return false
	}
}

func (status Status) String() string { return string(status) }

// CanTransitionTo encodes pending -> captured -> refunded and pending -> failed.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPending:
		return next == StatusCaptured || next == StatusFailed
	case StatusCaptured:
		return next == StatusRefunded
	default:
		return false
	}
}

// Payment is the domain entity corresponding to the `payments` table.
type Payment struct {
	ID          string
	BookingID   string
	ExternalRef *string
	Amount      float64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrInvalidAmount     = apperr.Validation("payment amount must be positive")
	ErrBookingIDRequired = apperr.Validation("booking id is required")
)

// NewPayment builds a pending payment bound to an external intent reference.
func NewPayment(bookingID string, amount float64, externalRef string) (*Payment, error) {
	if bookingID = strings.TrimSpace(bookingID); bookingID == "" {
		return nil, ErrBookingIDRequired
	}
	if math.IsNaN(amount) || amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	p := &Payment{
		BookingID: bookingID,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ref := strings.TrimSpace(externalRef); ref != "" {
		p.ExternalRef = &ref
	}
	return p, nil
}

// Ref returns the external reference or "".
func (p *Payment) Ref() string {
	if p.ExternalRef == nil {
		return ""
	}
	return *p.ExternalRef
}

// RequirePending returns InvalidState naming the current status unless pending.
func (p *Payment) RequirePending() error {
	if p.Status != StatusPending {
		return apperr.InvalidState("payment is %s, expected pending", p.Status)
	}
	return nil
}

func (p *Payment) MarkCaptured() error { return p.setStatus(StatusCaptured) }
func (p *Payment) MarkRefunded() error { return p.setStatus(StatusRefunded) }
func (p *Payment) MarkFailed() error   { return p.setStatus(StatusFailed) }

func (p *Payment) setStatus(next Status) error {
	if !p.Status.CanTransitionTo(next) {
		return apperr.InvalidState("payment is %s, cannot become %s", p.Status, next)
	}
	p.Status = next
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AmountCents converts a decimal amount into the processor's minor units.
func AmountCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
