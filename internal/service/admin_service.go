package service

import (
	"context"
	"log/slog"

	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/query"
)

// AdminService holds the moderation and reporting operations. Every method
// requires a logged-in, unbanned admin.
type AdminService struct {
	*core
}

func (s *AdminService) requireAdmin(state engine.State) (models.User, error) {
	me, err := s.session(state)
	if err != nil {
		return me, err
	}
	if !me.IsAdmin || me.IsBanned {
		return me, models.NewForbiddenError("Admin access required")
	}
	return me, nil
}

// target resolves a moderation target and refuses self-moderation.
func (s *AdminService) target(state engine.State, me models.User, userID string) (models.User, error) {
	u, ok := state.FindUser(userID)
	if !ok {
		return u, models.NewNotFoundError("User", userID)
	}
	if u.ID == me.ID {
		return u, models.NewForbiddenError("Admins cannot moderate their own account")
	}
	return u, nil
}

// Ban bans a member and cancels their pending swaps. If the member holds the
// session it ends immediately.
func (s *AdminService) Ban(ctx context.Context, userID string) error {
	return s.moderate(ctx, userID, models.ModerationBan, func(_ engine.State, u models.User) (engine.Intent, error) {
		if u.IsBanned {
			return nil, models.NewConflictError("User is already banned")
		}
		return engine.BanUser{UserID: u.ID, At: s.now()}, nil
	})
}

// Unban lifts a ban. Admin rights are not restored.
func (s *AdminService) Unban(ctx context.Context, userID string) error {
	return s.moderate(ctx, userID, models.ModerationUnban, func(_ engine.State, u models.User) (engine.Intent, error) {
		if !u.IsBanned {
			return nil, models.NewConflictError("User is not banned")
		}
		return engine.UnbanUser{UserID: u.ID}, nil
	})
}

// Promote grants admin rights to an unbanned member.
func (s *AdminService) Promote(ctx context.Context, userID string) error {
	return s.moderate(ctx, userID, models.ModerationPromote, func(_ engine.State, u models.User) (engine.Intent, error) {
		if u.IsBanned {
			return nil, models.NewConflictError("Banned users cannot be promoted")
		}
		if u.IsAdmin {
			return nil, models.NewConflictError("User is already an admin")
		}
		return engine.MakeAdmin{UserID: u.ID}, nil
	})
}

// Demote revokes admin rights. The last active admin cannot be demoted.
func (s *AdminService) Demote(ctx context.Context, userID string) error {
	return s.moderate(ctx, userID, models.ModerationDemote, func(state engine.State, u models.User) (engine.Intent, error) {
		if !u.IsAdmin {
			return nil, models.NewConflictError("User is not an admin")
		}
		if query.ActiveAdmins(state) <= 1 {
			return nil, models.NewConflictError("Cannot demote the last active admin")
		}
		return engine.RemoveAdmin{UserID: u.ID}, nil
	})
}

func (s *AdminService) moderate(
	ctx context.Context,
	userID string,
	action models.ModerationAction,
	build func(engine.State, models.User) (engine.Intent, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	me, err := s.requireAdmin(state)
	if err != nil {
		return err
	}
	u, err := s.target(state, me, userID)
	if err != nil {
		return err
	}
	intent, err := build(state, u)
	if err != nil {
		return err
	}
	if _, err := s.dispatch(ctx, intent, models.NewConflictError("Moderation action was refused")); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "moderation action applied",
		slog.String("action", string(action)),
		slog.String("user_id", u.ID),
		slog.String("actor_id", me.ID),
	)
	s.publish(ctx, models.ModerationEvent{Action: action, UserID: u.ID, ActorID: me.ID, At: s.now()})
	return nil
}

func (s *AdminService) publish(ctx context.Context, event models.ModerationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish moderation event",
			slog.String("action", string(event.Action)),
			slog.String("user_id", event.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// BroadcastInput is a platform-wide announcement.
type BroadcastInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Broadcast posts an announcement attributed to the session admin.
func (s *AdminService) Broadcast(ctx context.Context, in BroadcastInput) (*models.AdminMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, err := s.requireAdmin(s.store.Snapshot())
	if err != nil {
		return nil, err
	}
	msg, err := models.NewAdminMessage(me.ID, in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = s.now()
	if _, err := s.dispatch(ctx, engine.AddAdminMessage{Message: *msg}, models.NewForbiddenError("Admin access required")); err != nil {
		return nil, err
	}
	return msg, nil
}

// Users returns every member, banned ones included.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	state := s.store.Snapshot()
	if _, err := s.requireAdmin(state); err != nil {
		return nil, err
	}
	return state.Users, nil
}

// Swaps returns every swap request.
func (s *AdminService) Swaps(ctx context.Context) ([]models.SwapRequest, error) {
	state := s.store.Snapshot()
	if _, err := s.requireAdmin(state); err != nil {
		return nil, err
	}
	return state.SwapRequests, nil
}

// Feedback returns every feedback record.
func (s *AdminService) Feedback(ctx context.Context) ([]models.Feedback, error) {
	state := s.store.Snapshot()
	if _, err := s.requireAdmin(state); err != nil {
		return nil, err
	}
	return state.Feedback, nil
}

// Stats returns the platform totals.
func (s *AdminService) Stats(ctx context.Context) (*query.Stats, error) {
	state := s.store.Snapshot()
	if _, err := s.requireAdmin(state); err != nil {
		return nil, err
	}
	stats := query.AdminStats(state)
	return &stats, nil
}

// Report builds the downloadable platform report.
func (s *AdminService) Report(ctx context.Context) (*query.Report, error) {
	state := s.store.Snapshot()
	me, err := s.requireAdmin(state)
	if err != nil {
		return nil, err
	}
	report := query.BuildReport(state, me.Name, s.now())
	return &report, nil
}
