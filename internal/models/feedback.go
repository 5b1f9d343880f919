package models

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a rating left by one party of a completed swap for the other.
type Feedback struct {
	ID            string    `json:"id"`
	SwapRequestID string    `json:"swapRequestId"`
	FromUserID    string    `json:"fromUserId"`
	ToUserID      string    `json:"toUserId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FeedbackParams holds the fields required to rate a swap.
type FeedbackParams struct {
	SwapRequestID string
	FromUserID    string
	ToUserID      string
	Rating        int
	Comment       string
}

// ValidRating reports whether r lies in the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// NewFeedback validates params and returns a feedback record.
func NewFeedback(p FeedbackParams) (*Feedback, error) {
	if strings.TrimSpace(p.SwapRequestID) == "" {
		return nil, NewValidationError("Swap request is required")
	}
	if p.FromUserID == "" || p.ToUserID == "" {
		return nil, NewValidationError("Both parties are required")
	}
	if p.FromUserID == p.ToUserID {
		return nil, NewValidationError("Cannot rate yourself")
	}
	if !ValidRating(p.Rating) {
		return nil, NewValidationError("Rating must be between 1 and 5")
	}

	return &Feedback{
		ID:            NewID(),
		SwapRequestID: p.SwapRequestID,
		FromUserID:    p.FromUserID,
		ToUserID:      p.ToUserID,
		Rating:        p.Rating,
		Comment:       strings.TrimSpace(p.Comment),
		CreatedAt:     Now(),
	}, nil
}
