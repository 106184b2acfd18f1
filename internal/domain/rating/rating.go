package rating

import (
	"strings"
	"time"

	"ride-share/internal/apperr"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is post-completion feedback from one booking participant about the other.
type Rating struct {
	ID        string
	BookingID string
	RaterID   string
	RateeID   string
	Score     int
	Comment   *string
	CreatedAt time.Time
}

var (
	ErrScoreOutOfRange = apperr.Validation("score must be between 1 and 5")
	ErrSelfRating      = apperr.Validation("users cannot rate themselves")
)

// ValidateScore checks the score range.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreOutOfRange
	}
	return nil
}

// NewRating validates and builds a rating.
func NewRating(bookingID, raterID, rateeID string, score int, comment *string) (*Rating, error) {
	if err := ValidateScore(score); err != nil {
		return nil, err
	}
	if raterID == rateeID {
		return nil, ErrSelfRating
	}
	r := &Rating{
		BookingID: bookingID,
		RaterID:   raterID,
		RateeID:   rateeID,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
	if comment != nil {
		if c := strings.TrimSpace(*comment); c != "" {
			r.Comment = &c
		}
	}
	return r, nil
}
