package query

import (
	"strings"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// Directions partitions swap requests relative to one user.
type Directions struct {
	Sent     []models.SwapRequest `json:"sent"`
	Received []models.SwapRequest `json:"received"`
}

// SwapsByDirection splits every request the user takes part in by whether
// they sent or received it.
func SwapsByDirection(s engine.State, userID string) Directions {
	d := Directions{Sent: []models.SwapRequest{}, Received: []models.SwapRequest{}}
	for _, req := range s.SwapRequests {
		switch userID {
		case req.FromUserID:
			d.Sent = append(d.Sent, req)
		case req.ToUserID:
			d.Received = append(d.Received, req)
		}
	}
	return d
}

// HasActiveRequest reports whether from already has a pending or accepted
// request to `to` for the same requested skill.
func HasActiveRequest(s engine.State, from, to, requestedSkill string) bool {
	skill := strings.TrimSpace(requestedSkill)
	for _, req := range s.SwapRequests {
		if req.FromUserID == from && req.ToUserID == to &&
			strings.EqualFold(req.RequestedSkill, skill) && req.Status.IsActive() {
			return true
		}
	}
	return false
}

// HasFeedbackFrom reports whether rater already rated the given swap.
func HasFeedbackFrom(s engine.State, swapID, raterID string) bool {
	for _, fb := range s.Feedback {
		if fb.SwapRequestID == swapID && fb.FromUserID == raterID {
			return true
		}
	}
	return false
}

// FeedbackFor returns the feedback addressed to userID in insertion order.
func FeedbackFor(s engine.State, userID string) []models.Feedback {
	out := []models.Feedback{}
	for _, fb := range s.Feedback {
		if fb.ToUserID == userID {
			out = append(out, fb)
		}
	}
	return out
}

// UserRating returns the mean and count of feedback addressed to userID.
func UserRating(s engine.State, userID string) (float64, int) {
	return engine.AggregateRating(s.Feedback, userID)
}

// RecentMessages returns up to n announcements, newest first.
func RecentMessages(s engine.State, n int) []models.AdminMessage {
	out := []models.AdminMessage{}
	for i := len(s.AdminMessages) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		out = append(out, s.AdminMessages[i])
	}
	return out
}
