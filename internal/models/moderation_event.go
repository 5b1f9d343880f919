package models

import "time"

// ModerationAction names an admin action on a user.
type ModerationAction string

const (
	ModerationBan     ModerationAction = "ban"
	ModerationUnban   ModerationAction = "unban"
	ModerationPromote ModerationAction = "promote"
	ModerationDemote  ModerationAction = "demote"
)

// ModerationEvent is published to the broker after a moderation action.
type ModerationEvent struct {
	Action  ModerationAction `json:"action"`
	UserID  string           `json:"userId"`
	ActorID string           `json:"actorId"`
	At      time.Time        `json:"at"`
}
