package models

import (
	"strings"
	"time"
)

// SwapStatus is the lifecycle state of a swap request.
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCompleted SwapStatus = "completed"
	SwapStatusCancelled SwapStatus = "cancelled"
)

// SwapStatuses lists every status in lifecycle order.
var SwapStatuses = []SwapStatus{
	SwapStatusPending,
	SwapStatusAccepted,
	SwapStatusRejected,
	SwapStatusCompleted,
	SwapStatusCancelled,
}

var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending:  {SwapStatusAccepted, SwapStatusRejected, SwapStatusCancelled},
	SwapStatusAccepted: {SwapStatusCompleted},
}

// Valid reports whether s is a known status.
func (s SwapStatus) Valid() bool {
	for _, status := range SwapStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s SwapStatus) IsTerminal() bool {
	return len(swapTransitions[s]) == 0
}

// CanTransitionTo reports whether next directly follows s.
func (s SwapStatus) CanTransitionTo(next SwapStatus) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the request still blocks a duplicate.
func (s SwapStatus) IsActive() bool {
	return s == SwapStatusPending || s == SwapStatusAccepted
}

// SwapRequest is a directed offer from one user to another.
type SwapRequest struct {
	ID             string     `json:"id"`
	FromUserID     string     `json:"fromUserId"`
	ToUserID       string     `json:"toUserId"`
	OfferedSkill   string     `json:"offeredSkill"`
	RequestedSkill string     `json:"requestedSkill"`
	Message        string     `json:"message"`
	Status         SwapStatus `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SwapRequestParams holds the fields required to open a swap request.
type SwapRequestParams struct {
	FromUserID     string
	ToUserID       string
	OfferedSkill   string
	RequestedSkill string
	Message        string
}

// NewSwapRequest validates params and returns a pending request.
func NewSwapRequest(p SwapRequestParams) (*SwapRequest, error) {
	from := strings.TrimSpace(p.FromUserID)
	to := strings.TrimSpace(p.ToUserID)
	if from == "" || to == "" {
		return nil, NewValidationError("Both parties are required")
	}
	if from == to {
		return nil, NewValidationError("Cannot send a swap request to yourself")
	}
	offered := strings.TrimSpace(p.OfferedSkill)
	if offered == "" {
		return nil, NewValidationError("Offered skill is required")
	}
	requested := strings.TrimSpace(p.RequestedSkill)
	if requested == "" {
		return nil, NewValidationError("Requested skill is required")
	}

	now := Now()
	return &SwapRequest{
		ID:             NewID(),
		FromUserID:     from,
		ToUserID:       to,
		OfferedSkill:   offered,
		RequestedSkill: requested,
		Message:        strings.TrimSpace(p.Message),
		Status:         SwapStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Involves reports whether userID is either party.
func (r *SwapRequest) Involves(userID string) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}

// Counterparty returns the other party relative to userID.
func (r *SwapRequest) Counterparty(userID string) string {
	if r.FromUserID == userID {
		return r.ToUserID
	}
	return r.FromUserID
}
