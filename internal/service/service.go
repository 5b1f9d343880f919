// Package service implements the marketplace rules that sit in front of the
// engine: identity checks, ownership, duplicate suppression and admin guards.
// The engine stays permissive; everything a caller must pre-check lives here.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/featureflags"
	"skillswap/internal/models"
	"skillswap/internal/observability"
)

// Store is the state the services read and mutate. *store.Store satisfies it.
type Store interface {
	Snapshot() engine.State
	Dispatch(ctx context.Context, intent engine.Intent) (engine.State, bool)
}

// ModerationPublisher forwards moderation events to a broker. Failures are
// logged and otherwise ignored.
type ModerationPublisher interface {
	Publish(ctx context.Context, event models.ModerationEvent) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     Store
	Flags     *featureflags.Manager
	Publisher ModerationPublisher
	Clock     func() time.Time
}

// Services groups the marketplace services over one store.
type Services struct {
	Auth     *AuthService
	Profiles *ProfileService
	Market   *MarketService
	Swaps    *SwapService
	Admin    *AdminService
}

// core is shared by all services. mu serializes check-then-dispatch sequences
// so a precondition cannot go stale before its intent is applied.
type core struct {
	mu        *sync.Mutex
	store     Store
	flags     *featureflags.Manager
	publisher ModerationPublisher
	clock     func() time.Time
	logger    *slog.Logger
}

// New wires every service to d.
func New(d Deps) *Services {
	clock := d.Clock
	if clock == nil {
		clock = models.Now
	}
	c := &core{
		mu:        &sync.Mutex{},
		store:     d.Store,
		flags:     d.Flags,
		publisher: d.Publisher,
		clock:     clock,
		logger:    observability.Component("service"),
	}
	return &Services{
		Auth:     &AuthService{core: c},
		Profiles: &ProfileService{core: c},
		Market:   &MarketService{core: c},
		Swaps:    &SwapService{core: c},
		Admin:    &AdminService{core: c},
	}
}

func (c *core) now() time.Time {
	return c.clock().UTC().Round(0)
}

// session returns the logged-in user's authoritative record.
func (c *core) session(s engine.State) (models.User, error) {
	if s.Session == nil {
		return models.User{}, models.NewUnauthorizedError("Not logged in")
	}
	u, ok := s.FindUser(s.Session.ID)
	if !ok {
		return models.User{}, models.NewUnauthorizedError("Session user no longer exists")
	}
	return u, nil
}

// activeSession is session for writes: banned members are refused.
func (c *core) activeSession(s engine.State) (models.User, error) {
	u, err := c.session(s)
	if err != nil {
		return u, err
	}
	if u.IsBanned || s.SessionBanned() {
		return u, models.NewForbiddenError("Your account has been banned")
	}
	return u, nil
}

// dispatch applies intent and converts a rejection into err.
func (c *core) dispatch(ctx context.Context, intent engine.Intent, rejected error) (engine.State, error) {
	next, changed := c.store.Dispatch(ctx, intent)
	if !changed {
		return next, rejected
	}
	return next, nil
}
