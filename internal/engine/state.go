// Package engine holds the marketplace state and the pure transition
// function that every mutation goes through.
package engine

import "skillswap/internal/models"

// State is one immutable snapshot of the marketplace. Apply never writes into
// the slices of a State it receives; it builds new slices for every change.
type State struct {
	Users         []models.User
	SwapRequests  []models.SwapRequest
	Feedback      []models.Feedback
	AdminMessages []models.AdminMessage
	// Session is the cached copy of the logged-in user, nil when logged out.
	Session *models.User
}

// Initial returns the empty state.
func Initial() State {
	return State{
		Users:         []models.User{},
		SwapRequests:  []models.SwapRequest{},
		Feedback:      []models.Feedback{},
		AdminMessages: []models.AdminMessage{},
	}
}

// Partial carries the fields LoadSnapshot merges into a state. Nil fields are
// left untouched; SetSession distinguishes "no session" from "not provided".
type Partial struct {
	Users         *[]models.User
	SwapRequests  *[]models.SwapRequest
	Feedback      *[]models.Feedback
	AdminMessages *[]models.AdminMessage
	Session       *models.User
	SetSession    bool
}

// AsPartial returns a Partial that replaces every field of a state with s.
func (s State) AsPartial() Partial {
	users := s.Users
	requests := s.SwapRequests
	feedback := s.Feedback
	messages := s.AdminMessages
	return Partial{
		Users:         &users,
		SwapRequests:  &requests,
		Feedback:      &feedback,
		AdminMessages: &messages,
		Session:       s.Session,
		SetSession:    true,
	}
}

// FindUser returns the authoritative record for id.
func (s State) FindUser(id string) (models.User, bool) {
	if i := s.userIndex(id); i >= 0 {
		return s.Users[i], true
	}
	return models.User{}, false
}

// FindUserByEmail returns the user registered under email, compared after
// normalization.
func (s State) FindUserByEmail(email string) (models.User, bool) {
	email = models.NormalizeEmail(email)
	for _, u := range s.Users {
		if models.NormalizeEmail(u.Email) == email {
			return u, true
		}
	}
	return models.User{}, false
}

// FindSwapRequest returns the request with id.
func (s State) FindSwapRequest(id string) (models.SwapRequest, bool) {
	if i := s.swapIndex(id); i >= 0 {
		return s.SwapRequests[i], true
	}
	return models.SwapRequest{}, false
}

// SessionBanned reports whether the cached session is flagged as banned.
func (s State) SessionBanned() bool {
	return s.Session != nil && s.Session.IsBanned
}

// SessionID returns the logged-in user's id, or "".
func (s State) SessionID() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.ID
}

func (s State) userIndex(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) swapIndex(id string) int {
	for i := range s.SwapRequests {
		if s.SwapRequests[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneUserPtr(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := u.Clone()
	return &c
}
