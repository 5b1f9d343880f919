package service

import (
	"context"

	"skillswap/internal/featureflags"
	"skillswap/internal/models"
	"skillswap/internal/query"
)

// RecentMessageCount is how many announcements the dashboard shows.
const RecentMessageCount = 3

// MarketService serves the read-only member views.
type MarketService struct {
	*core
}

// DirectoryEntry is a directory member plus the advisory reciprocal hint.
type DirectoryEntry struct {
	models.User
	ReciprocalSkills []string `json:"reciprocalSkills,omitempty"`
}

// Directory lists public, unbanned members other than the viewer.
func (s *MarketService) Directory(ctx context.Context, search, location string) ([]DirectoryEntry, error) {
	state := s.store.Snapshot()
	me, err := s.session(state)
	if err != nil {
		return nil, err
	}

	users := query.PublicDirectory(state, query.DirectoryFilter{
		Search:        search,
		Location:      location,
		ExcludeUserID: me.ID,
	})
	hints := s.flags.Enabled(featureflags.ReciprocalHints, me.ID)

	out := make([]DirectoryEntry, 0, len(users))
	for _, u := range users {
		entry := DirectoryEntry{User: u}
		if hints {
			entry.ReciprocalSkills = query.ReciprocalMatch(me, u)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Locations lists the locations of unbanned members.
func (s *MarketService) Locations(ctx context.Context) []string {
	return query.Locations(s.store.Snapshot())
}

// User returns a member profile. Private and banned profiles are visible
// only to their owner and to admins.
func (s *MarketService) User(ctx context.Context, id string) (*models.User, error) {
	state := s.store.Snapshot()
	me, err := s.session(state)
	if err != nil {
		return nil, err
	}
	u, ok := state.FindUser(id)
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	if (!u.IsPublic || u.IsBanned) && u.ID != me.ID && !me.IsAdmin {
		return nil, models.NewNotFoundError("User", id)
	}
	return &u, nil
}

// DashboardView is the member landing page.
type DashboardView struct {
	Summary        query.DashboardSummary `json:"summary"`
	RecentMessages []models.AdminMessage  `json:"recentMessages"`
}

// Dashboard summarizes the marketplace for the session user.
func (s *MarketService) Dashboard(ctx context.Context) (*DashboardView, error) {
	state := s.store.Snapshot()
	me, err := s.session(state)
	if err != nil {
		return nil, err
	}
	return &DashboardView{
		Summary:        query.Dashboard(state, me.ID),
		RecentMessages: query.RecentMessages(state, RecentMessageCount),
	}, nil
}

// Messages lists every announcement, newest first.
func (s *MarketService) Messages(ctx context.Context) ([]models.AdminMessage, error) {
	state := s.store.Snapshot()
	if _, err := s.session(state); err != nil {
		return nil, err
	}
	return query.RecentMessages(state, 0), nil
}
