package engine

import (
	"time"

	"skillswap/internal/models"
)

// Apply returns the state that follows s under intent. It never panics and
// never mutates s; rejected, unknown or nil intents return s unchanged.
func Apply(s State, intent Intent) State {
	next, _ := Reduce(s, intent)
	return next
}

// Reduce is Apply that also reports whether the intent changed anything.
func Reduce(s State, intent Intent) (State, bool) {
	switch in := intent.(type) {
	case SetSession:
		s.Session = cloneUserPtr(in.User)
		return s, true
	case AddUser:
		s.Users = appendUser(s.Users, in.User.Clone())
		return s, true
	case UpdateUser:
		return replaceUser(s, in.User.ID, func(models.User) models.User { return in.User.Clone() })
	case BanUser:
		return banUser(s, in)
	case UnbanUser:
		return replaceUser(s, in.UserID, func(u models.User) models.User {
			u.IsBanned = false
			return u
		})
	case MakeAdmin:
		if u, ok := s.FindUser(in.UserID); ok && u.IsBanned {
			return s, false
		}
		return replaceUser(s, in.UserID, func(u models.User) models.User {
			u.IsAdmin = true
			return u
		})
	case RemoveAdmin:
		return replaceUser(s, in.UserID, func(u models.User) models.User {
			u.IsAdmin = false
			return u
		})
	case AddSwapRequest:
		if s.Session == nil || s.Session.IsBanned {
			return s, false
		}
		req := in.Request
		req.Status = models.SwapStatusPending
		s.SwapRequests = appendSwap(s.SwapRequests, req)
		return s, true
	case UpdateSwapRequest:
		return updateSwapRequest(s, in.Request)
	case DeleteSwapRequest:
		return deleteSwapRequest(s, in.ID)
	case AddFeedback:
		if s.SessionBanned() {
			return s, false
		}
		s.Feedback = appendFeedback(s.Feedback, in.Feedback)
		return s, true
	case RecordFeedback:
		return recordFeedback(s, in.Feedback)
	case AddAdminMessage:
		if s.Session == nil || !s.Session.IsAdmin || s.Session.IsBanned {
			return s, false
		}
		msg := in.Message
		if msg.AdminID == "" {
			msg.AdminID = s.Session.ID
		}
		s.AdminMessages = appendMessage(s.AdminMessages, msg)
		return s, true
	case ForceLogout:
		if s.Session == nil || s.Session.ID != in.UserID {
			return s, false
		}
		s.Session = nil
		return s, true
	case CheckBannedStatus:
		return checkBannedStatus(s)
	case LoadSnapshot:
		return loadSnapshot(s, in.Partial), true
	default:
		return s, false
	}
}

// replaceUser rewrites the user with id through fn and refreshes the session
// when it caches that user.
func replaceUser(s State, id string, fn func(models.User) models.User) (State, bool) {
	i := s.userIndex(id)
	if i < 0 {
		return s, false
	}
	users := make([]models.User, len(s.Users))
	copy(users, s.Users)
	updated := fn(users[i])
	updated.ID = id
	if updated.IsBanned {
		updated.IsAdmin = false
	}
	users[i] = updated
	s.Users = users

	if s.Session != nil && s.Session.ID == id {
		s.Session = cloneUserPtr(&updated)
	}
	return s, true
}

func banUser(s State, in BanUser) (State, bool) {
	s, ok := replaceUser(s, in.UserID, func(u models.User) models.User {
		u.IsBanned = true
		u.IsAdmin = false
		return u
	})
	if !ok {
		return s, false
	}

	if s.Session != nil && s.Session.ID == in.UserID {
		s.Session = nil
	}

	var requests []models.SwapRequest
	for i, req := range s.SwapRequests {
		if req.Status != models.SwapStatusPending || !req.Involves(in.UserID) {
			continue
		}
		if requests == nil {
			requests = make([]models.SwapRequest, len(s.SwapRequests))
			copy(requests, s.SwapRequests)
		}
		req.Status = models.SwapStatusCancelled
		req.UpdatedAt = advance(req.UpdatedAt, in.At)
		requests[i] = req
	}
	if requests != nil {
		s.SwapRequests = requests
	}
	return s, true
}

func updateSwapRequest(s State, next models.SwapRequest) (State, bool) {
	if s.SessionBanned() {
		return s, false
	}
	i := s.swapIndex(next.ID)
	if i < 0 {
		return s, false
	}
	prev := s.SwapRequests[i]

	if next.Status != prev.Status {
		if !prev.Status.CanTransitionTo(next.Status) {
			return s, false
		}
		next.UpdatedAt = advance(prev.UpdatedAt, next.UpdatedAt)
	}
	// Identity, parties and creation time are fixed at creation.
	next.FromUserID = prev.FromUserID
	next.ToUserID = prev.ToUserID
	next.CreatedAt = prev.CreatedAt

	requests := make([]models.SwapRequest, len(s.SwapRequests))
	copy(requests, s.SwapRequests)
	requests[i] = next
	s.SwapRequests = requests
	return s, true
}

func deleteSwapRequest(s State, id string) (State, bool) {
	if s.SessionBanned() {
		return s, false
	}
	i := s.swapIndex(id)
	if i < 0 {
		return s, false
	}
	requests := make([]models.SwapRequest, 0, len(s.SwapRequests)-1)
	requests = append(requests, s.SwapRequests[:i]...)
	requests = append(requests, s.SwapRequests[i+1:]...)
	s.SwapRequests = requests
	return s, true
}

func recordFeedback(s State, fb models.Feedback) (State, bool) {
	if s.SessionBanned() {
		return s, false
	}
	s.Feedback = appendFeedback(s.Feedback, fb)

	mean, count := AggregateRating(s.Feedback, fb.ToUserID)
	next, _ := replaceUser(s, fb.ToUserID, func(u models.User) models.User {
		u.Rating = mean
		u.TotalRatings = count
		return u
	})
	return next, true
}

// AggregateRating returns the arithmetic mean and count of every feedback
// addressed to userID, computed from the full history.
func AggregateRating(feedback []models.Feedback, userID string) (float64, int) {
	sum, count := 0, 0
	for _, fb := range feedback {
		if fb.ToUserID != userID {
			continue
		}
		sum += fb.Rating
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

func checkBannedStatus(s State) (State, bool) {
	if s.Session == nil {
		return s, false
	}
	authoritative, ok := s.FindUser(s.Session.ID)
	if !ok {
		return s, false
	}
	if authoritative.IsBanned && !s.Session.IsBanned {
		s.Session = nil
		return s, true
	}
	if authoritative.IsBanned != s.Session.IsBanned {
		s.Session = cloneUserPtr(&authoritative)
		return s, true
	}
	return s, false
}

func loadSnapshot(s State, p Partial) State {
	if p.Users != nil {
		s.Users = *p.Users
	}
	if p.SwapRequests != nil {
		s.SwapRequests = *p.SwapRequests
	}
	if p.Feedback != nil {
		s.Feedback = *p.Feedback
	}
	if p.AdminMessages != nil {
		s.AdminMessages = *p.AdminMessages
	}
	if p.SetSession {
		s.Session = cloneUserPtr(p.Session)
	}
	return s
}

// advance returns a timestamp strictly after prev, preferring at.
func advance(prev, at time.Time) time.Time {
	if at.After(prev) {
		return at
	}
	return prev.Add(time.Millisecond)
}

func appendUser(in []models.User, u models.User) []models.User {
	out := make([]models.User, len(in), len(in)+1)
	copy(out, in)
	return append(out, u)
}

func appendSwap(in []models.SwapRequest, r models.SwapRequest) []models.SwapRequest {
	out := make([]models.SwapRequest, len(in), len(in)+1)
	copy(out, in)
	return append(out, r)
}

func appendFeedback(in []models.Feedback, fb models.Feedback) []models.Feedback {
	out := make([]models.Feedback, len(in), len(in)+1)
	copy(out, in)
	return append(out, fb)
}

func appendMessage(in []models.AdminMessage, m models.AdminMessage) []models.AdminMessage {
	out := make([]models.AdminMessage, len(in), len(in)+1)
	copy(out, in)
	return append(out, m)
}
