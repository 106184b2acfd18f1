package trip

import (
	"strings"

	"ride-share/internal/apperr"
)

// Status is a trip status as stored in the `trip_status` enum.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = apperr.Validation("invalid trip status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed trip status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (status Status) String() string {
	return string(status)
}

// CanTransitionTo reports whether status may move to next. Only active trips move.
func (status Status) CanTransitionTo(next Status) bool {
	return status == StatusActive && (next == StatusCompleted || next == StatusCancelled)
}

// Terminal indicates if the status is final.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}
