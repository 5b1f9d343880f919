package service

import (
	"context"
	"log/slog"
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/featureflags"
	"skillswap/internal/models"
)

// Fixed demo account ids.
const (
	AdminDemoID = "admin-demo"
	UserDemoID  = "user-demo"
)

// AuthService handles registration and the single process-wide session.
// There are no passwords: login is by email lookup.
type AuthService struct {
	*core
}

// RegisterInput holds the fields of the sign-up form.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Register creates a member and logs them in. The first registered user
// becomes an admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	if _, exists := state.FindUserByEmail(in.Email); exists {
		return nil, models.NewConflictError("An account with this email already exists")
	}

	user, err := models.NewUser(models.UserParams{
		Name:     in.Name,
		Email:    in.Email,
		Location: in.Location,
		IsAdmin:  len(state.Users) == 0,
	})
	if err != nil {
		return nil, err
	}

	s.store.Dispatch(ctx, engine.AddUser{User: *user})
	s.store.Dispatch(ctx, engine.SetSession{User: user})
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.Bool("is_admin", user.IsAdmin),
	)
	return user, nil
}

// Login starts a session for the member registered under email.
func (s *AuthService) Login(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.store.Snapshot().FindUserByEmail(email)
	if !ok {
		return nil, models.NewUnauthorizedError("No account found with this email")
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("This account has been banned")
	}
	s.store.Dispatch(ctx, engine.SetSession{User: &user})
	return &user, nil
}

// DemoLogin logs in one of the fixed demo accounts, creating it on first use.
func (s *AuthService) DemoLogin(ctx context.Context, admin bool) (*models.User, error) {
	if !s.flags.Enabled(featureflags.DemoLogin, "") {
		return nil, models.NewForbiddenError("Demo accounts are disabled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := UserDemoID
	if admin {
		id = AdminDemoID
	}

	state := s.store.Snapshot()
	user, exists := state.FindUser(id)
	if exists && user.IsBanned {
		return nil, models.NewForbiddenError("The demo account has been suspended")
	}
	if !exists {
		user = demoUser(admin, s.now())
		s.store.Dispatch(ctx, engine.AddUser{User: user})
	}
	s.store.Dispatch(ctx, engine.SetSession{User: &user})
	return &user, nil
}

// Logout ends the session. It is a no-op when nobody is logged in.
func (s *AuthService) Logout(ctx context.Context) {
	s.store.Dispatch(ctx, engine.SetSession{User: nil})
}

// CurrentUser returns the authoritative record of the logged-in member.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	u, err := s.session(s.store.Snapshot())
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func demoUser(admin bool, now time.Time) models.User {
	u := models.User{
		ID:            UserDemoID,
		Name:          "User Demo",
		Email:         "user@demo.com",
		Location:      "Demo City",
		IsPublic:      true,
		SkillsOffered: []string{"JavaScript", "React", "Node.js"},
		SkillsWanted:  []string{"Python", "UI/UX Design", "DevOps"},
		Availability:  []string{"weekends", "evenings"},
		CreatedAt:     now,
	}
	if admin {
		u.ID = AdminDemoID
		u.Name = "Admin Demo"
		u.Email = "admin@demo.com"
		u.IsAdmin = true
		u.SkillsOffered = []string{"Platform Management", "System Administration"}
		u.SkillsWanted = []string{}
	}
	return u
}
