// Package seed provides starting data: the default admin the platform needs
// on an empty user list, generated marketplaces for development and YAML
// fixtures for demos and tests.
package seed

import (
	"context"
	"log/slog"
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/observability"
)

// DefaultAdminID is the fixed id of the seeded admin account.
const DefaultAdminID = "admin-1"

// Dispatcher is the part of the store the seeder writes through.
type Dispatcher interface {
	Snapshot() engine.State
	Dispatch(ctx context.Context, intent engine.Intent) (engine.State, bool)
}

// DefaultAdmin returns the account seeded into an empty platform.
func DefaultAdmin(email string, now time.Time) models.User {
	return models.User{
		ID:            DefaultAdminID,
		Name:          "Default Admin",
		Email:         models.NormalizeEmail(email),
		Location:      "N/A",
		IsAdmin:       true,
		IsPublic:      true,
		SkillsOffered: []string{},
		SkillsWanted:  []string{},
		Availability:  []string{},
		CreatedAt:     now.UTC(),
	}
}

// EnsureDefaultAdmin adds the default admin when there are no users at all.
// It reports whether an account was created.
func EnsureDefaultAdmin(ctx context.Context, d Dispatcher, email string) bool {
	if len(d.Snapshot().Users) > 0 {
		return false
	}
	_, added := d.Dispatch(ctx, engine.AddUser{User: DefaultAdmin(email, models.Now())})
	if added {
		observability.Component("seed").InfoContext(ctx, "seeded default admin",
			slog.String("user_id", DefaultAdminID),
			slog.String("email", models.NormalizeEmail(email)),
		)
	}
	return added
}
