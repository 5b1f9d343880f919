package query

import (
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// DashboardSummary is the member's landing-page overview.
type DashboardSummary struct {
	ActiveMembers   int     `json:"activeMembers"`
	SkillsOffered   int     `json:"skillsOffered"`
	SkillsWanted    int     `json:"skillsWanted"`
	CompletedSwaps  int     `json:"completedSwaps"`
	PendingReceived int     `json:"pendingReceived"`
	SentRequests    int     `json:"sentRequests"`
	Rating          float64 `json:"rating"`
	TotalRatings    int     `json:"totalRatings"`
}

// Dashboard summarizes the marketplace from userID's point of view. An
// unknown user yields the global counts only.
func Dashboard(s engine.State, userID string) DashboardSummary {
	var sum DashboardSummary
	for _, u := range s.Users {
		if u.IsPublic && !u.IsBanned {
			sum.ActiveMembers++
		}
	}
	if u, ok := s.FindUser(userID); ok {
		sum.SkillsOffered = len(u.SkillsOffered)
		sum.SkillsWanted = len(u.SkillsWanted)
		sum.Rating = u.Rating
		sum.TotalRatings = u.TotalRatings
	}

	d := SwapsByDirection(s, userID)
	sum.SentRequests = len(d.Sent)
	for _, req := range d.Received {
		if req.Status == models.SwapStatusPending {
			sum.PendingReceived++
		}
	}
	for _, list := range [][]models.SwapRequest{d.Sent, d.Received} {
		for _, req := range list {
			if req.Status == models.SwapStatusCompleted {
				sum.CompletedSwaps++
			}
		}
	}
	return sum
}

// Stats are the aggregate counts shown to admins.
type Stats struct {
	TotalUsers    int                       `json:"totalUsers"`
	ActiveUsers   int                       `json:"activeUsers"`
	BannedUsers   int                       `json:"bannedUsers"`
	AdminUsers    int                       `json:"adminUsers"`
	TotalSwaps    int                       `json:"totalSwaps"`
	SwapsByStatus map[models.SwapStatus]int `json:"swapsByStatus"`
	TotalFeedback int                       `json:"totalFeedback"`
	AverageRating float64                   `json:"averageRating"`
	AdminMessages int                       `json:"adminMessages"`
}

// AdminStats counts users by role and ban state, swaps by status, and
// averages every feedback rating. Admins are counted only while unbanned.
func AdminStats(s engine.State) Stats {
	st := Stats{
		TotalUsers:    len(s.Users),
		TotalSwaps:    len(s.SwapRequests),
		TotalFeedback: len(s.Feedback),
		AdminMessages: len(s.AdminMessages),
		SwapsByStatus: make(map[models.SwapStatus]int, len(models.SwapStatuses)),
	}
	for _, status := range models.SwapStatuses {
		st.SwapsByStatus[status] = 0
	}
	for _, u := range s.Users {
		if u.IsBanned {
			st.BannedUsers++
			continue
		}
		st.ActiveUsers++
		if u.IsAdmin {
			st.AdminUsers++
		}
	}
	for _, req := range s.SwapRequests {
		st.SwapsByStatus[req.Status]++
	}
	if len(s.Feedback) > 0 {
		total := 0
		for _, fb := range s.Feedback {
			total += fb.Rating
		}
		st.AverageRating = float64(total) / float64(len(s.Feedback))
	}
	return st
}

// ActiveAdmins counts unbanned admins.
func ActiveAdmins(s engine.State) int {
	n := 0
	for _, u := range s.Users {
		if u.IsAdmin && !u.IsBanned {
			n++
		}
	}
	return n
}

// UserDetail is one user row of a report.
type UserDetail struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	IsAdmin       bool      `json:"isAdmin"`
	IsBanned      bool      `json:"isBanned"`
	IsPublic      bool      `json:"isPublic"`
	SkillsOffered int       `json:"skillsOffered"`
	SkillsWanted  int       `json:"skillsWanted"`
	Rating        float64   `json:"rating"`
	TotalRatings  int       `json:"totalRatings"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SwapDetail is one swap row of a report with party names resolved.
type SwapDetail struct {
	ID             string            `json:"id"`
	Status         models.SwapStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	FromUser       string            `json:"fromUser"`
	ToUser         string            `json:"toUser"`
	OfferedSkill   string            `json:"offeredSkill"`
	RequestedSkill string            `json:"requestedSkill"`
}

// Report is the exportable platform summary. It is not part of the
// persisted state.
type Report struct {
	Stats
	GeneratedAt time.Time    `json:"generatedAt"`
	GeneratedBy string       `json:"generatedBy"`
	UserDetails []UserDetail `json:"userDetails"`
	SwapDetails []SwapDetail `json:"swapDetails"`
}

// UnknownUser names a swap party that is no longer in the user list.
const UnknownUser = "Unknown"

// BuildReport assembles the report for the admin named generatedBy.
func BuildReport(s engine.State, generatedBy string, now time.Time) Report {
	r := Report{
		Stats:       AdminStats(s),
		GeneratedAt: now.UTC(),
		GeneratedBy: generatedBy,
		UserDetails: make([]UserDetail, 0, len(s.Users)),
		SwapDetails: make([]SwapDetail, 0, len(s.SwapRequests)),
	}
	names := make(map[string]string, len(s.Users))
	for _, u := range s.Users {
		names[u.ID] = u.Name
		r.UserDetails = append(r.UserDetails, UserDetail{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			IsAdmin:       u.IsAdmin,
			IsBanned:      u.IsBanned,
			IsPublic:      u.IsPublic,
			SkillsOffered: len(u.SkillsOffered),
			SkillsWanted:  len(u.SkillsWanted),
			Rating:        u.Rating,
			TotalRatings:  u.TotalRatings,
			CreatedAt:     u.CreatedAt,
		})
	}
	nameOf := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return UnknownUser
	}
	for _, req := range s.SwapRequests {
		r.SwapDetails = append(r.SwapDetails, SwapDetail{
			ID:             req.ID,
			Status:         req.Status,
			CreatedAt:      req.CreatedAt,
			UpdatedAt:      req.UpdatedAt,
			FromUser:       nameOf(req.FromUserID),
			ToUser:         nameOf(req.ToUserID),
			OfferedSkill:   req.OfferedSkill,
			RequestedSkill: req.RequestedSkill,
		})
	}
	return r
}

// ReportFilename is the suggested download name for a report generated at now.
func ReportFilename(now time.Time) string {
	return "skill-swap-report-" + now.UTC().Format("2006-01-02") + ".json"
}
