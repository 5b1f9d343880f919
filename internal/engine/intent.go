package engine

import (
	"time"

	"skillswap/internal/models"
)

// Intent is a named request to transition the state.
type Intent interface {
	Name() string
}

// SetSession replaces the session; a nil User logs out.
type SetSession struct{ User *models.User }

// AddUser appends a user. Email uniqueness is the caller's job.
type AddUser struct{ User models.User }

// UpdateUser replaces the user with the same id.
type UpdateUser struct{ User models.User }

// BanUser bans a user, strips admin rights and cancels their pending swaps.
type BanUser struct {
	UserID string
	At     time.Time
}

// UnbanUser lifts a ban. Admin rights and cancelled swaps stay as they are.
type UnbanUser struct{ UserID string }

// MakeAdmin grants admin rights.
type MakeAdmin struct{ UserID string }

// RemoveAdmin revokes admin rights. No minimum admin count is enforced here.
type RemoveAdmin struct{ UserID string }

// AddSwapRequest appends a request as pending.
type AddSwapRequest struct{ Request models.SwapRequest }

// UpdateSwapRequest replaces a request, subject to the status state machine.
type UpdateSwapRequest struct{ Request models.SwapRequest }

// DeleteSwapRequest removes a request.
type DeleteSwapRequest struct{ ID string }

// AddFeedback appends a feedback record without touching the target's rating.
type AddFeedback struct{ Feedback models.Feedback }

// RecordFeedback appends a feedback record and recomputes the target's
// rating in the same transition.
type RecordFeedback struct{ Feedback models.Feedback }

// AddAdminMessage appends an announcement from the session admin.
type AddAdminMessage struct{ Message models.AdminMessage }

// ForceLogout clears the session if it belongs to UserID.
type ForceLogout struct{ UserID string }

// CheckBannedStatus reconciles the session with the authoritative user list.
type CheckBannedStatus struct{}

// LoadSnapshot shallow-merges previously persisted fields.
type LoadSnapshot struct{ Partial Partial }

func (SetSession) Name() string        { return "set_session" }
func (AddUser) Name() string           { return "add_user" }
func (UpdateUser) Name() string        { return "update_user" }
func (BanUser) Name() string           { return "ban_user" }
func (UnbanUser) Name() string         { return "unban_user" }
func (MakeAdmin) Name() string         { return "make_admin" }
func (RemoveAdmin) Name() string       { return "remove_admin" }
func (AddSwapRequest) Name() string    { return "add_swap_request" }
func (UpdateSwapRequest) Name() string { return "update_swap_request" }
func (DeleteSwapRequest) Name() string { return "delete_swap_request" }
func (AddFeedback) Name() string       { return "add_feedback" }
func (RecordFeedback) Name() string    { return "record_feedback" }
func (AddAdminMessage) Name() string   { return "add_admin_message" }
func (ForceLogout) Name() string       { return "force_logout" }
func (CheckBannedStatus) Name() string { return "check_banned_status" }
func (LoadSnapshot) Name() string      { return "load_snapshot" }

// Ban returns a BanUser intent stamped with the current time.
func Ban(userID string) BanUser {
	return BanUser{UserID: userID, At: models.Now()}
}
