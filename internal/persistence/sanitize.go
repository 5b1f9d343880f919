package persistence

import (
	"fmt"
	"strings"
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// sanitize validates a decoded document against the entity schema. Invalid
// records are dropped, repairable ones are fixed, and each change is reported.
func sanitize(doc document) (engine.State, []string) {
	var issues []string
	report := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	s := engine.Initial()

	seenUsers := make(map[string]struct{}, len(doc.Users))
	for i, u := range doc.Users {
		if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Email) == "" {
			report("users[%d]: missing id or email", i)
			continue
		}
		if _, dup := seenUsers[u.ID]; dup {
			report("users[%d]: duplicate id %s", i, u.ID)
			continue
		}
		seenUsers[u.ID] = struct{}{}
		s.Users = append(s.Users, sanitizeUser(u, report))
	}

	seenRequests := make(map[string]struct{}, len(doc.SwapRequests))
	for i, req := range doc.SwapRequests {
		switch {
		case strings.TrimSpace(req.ID) == "":
			report("swapRequests[%d]: missing id", i)
			continue
		case !req.Status.Valid():
			report("swapRequests[%d]: unknown status %q", i, req.Status)
			continue
		case req.FromUserID == "" || req.ToUserID == "":
			report("swapRequests[%d]: missing party", i)
			continue
		}
		if _, dup := seenRequests[req.ID]; dup {
			report("swapRequests[%d]: duplicate id %s", i, req.ID)
			continue
		}
		seenRequests[req.ID] = struct{}{}
		req.CreatedAt = utc(req.CreatedAt)
		req.UpdatedAt = utc(req.UpdatedAt)
		s.SwapRequests = append(s.SwapRequests, req)
	}

	for i, fb := range doc.Feedback {
		if strings.TrimSpace(fb.ID) == "" {
			report("feedback[%d]: missing id", i)
			continue
		}
		if !models.ValidRating(fb.Rating) {
			report("feedback[%d]: rating %d out of range", i, fb.Rating)
			continue
		}
		fb.CreatedAt = utc(fb.CreatedAt)
		s.Feedback = append(s.Feedback, fb)
	}

	for i, msg := range doc.AdminMessages {
		if strings.TrimSpace(msg.ID) == "" {
			report("adminMessages[%d]: missing id", i)
			continue
		}
		msg.CreatedAt = utc(msg.CreatedAt)
		s.AdminMessages = append(s.AdminMessages, msg)
	}

	if doc.CurrentUser != nil {
		if _, ok := seenUsers[doc.CurrentUser.ID]; ok {
			session := sanitizeUser(*doc.CurrentUser, report)
			s.Session = &session
		} else {
			report("currentUser: unknown user %q", doc.CurrentUser.ID)
		}
	}

	return s, issues
}

func sanitizeUser(u models.User, report func(string, ...any)) models.User {
	u.SkillsOffered = models.NormalizeTags(u.SkillsOffered)
	u.SkillsWanted = models.NormalizeTags(u.SkillsWanted)
	u.Availability = models.NormalizeTags(u.Availability)
	if u.IsBanned && u.IsAdmin {
		report("user %s: banned admin demoted", u.ID)
		u.IsAdmin = false
	}
	if u.TotalRatings < 0 {
		report("user %s: negative totalRatings", u.ID)
		u.TotalRatings = 0
		u.Rating = 0
	}
	if u.Rating < 0 || u.Rating > models.MaxRating {
		report("user %s: rating %v out of range", u.ID, u.Rating)
		u.Rating = 0
	}
	u.CreatedAt = utc(u.CreatedAt)
	return u
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
