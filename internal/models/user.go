// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace member.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Location      string    `json:"location,omitempty"`
	ProfilePhoto  string    `json:"profilePhoto,omitempty"`
	IsAdmin       bool      `json:"isAdmin"`
	IsPublic      bool      `json:"isPublic"`
	SkillsOffered []string  `json:"skillsOffered"`
	SkillsWanted  []string  `json:"skillsWanted"`
	Availability  []string  `json:"availability"`
	Rating        float64   `json:"rating"`
	TotalRatings  int       `json:"totalRatings"`
	CreatedAt     time.Time `json:"createdAt"`
	IsBanned      bool      `json:"isBanned"`
}

// UserParams holds the fields required to build a new User.
type UserParams struct {
	ID       string
	Name     string
	Email    string
	Location string
	IsAdmin  bool
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time in UTC without a monotonic reading, which is
// the form every persisted timestamp takes.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}

// NewUser validates params and returns a public, unbanned user with no
// skills and no ratings.
func NewUser(p UserParams) (*User, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = NewID()
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, NewValidationError("Name is required")
	}
	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, NewValidationError("Email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, NewValidationError("Email is invalid")
	}

	return &User{
		ID:            id,
		Name:          name,
		Email:         email,
		Location:      strings.TrimSpace(p.Location),
		IsAdmin:       p.IsAdmin,
		IsPublic:      true,
		SkillsOffered: []string{},
		SkillsWanted:  []string{},
		Availability:  []string{},
		CreatedAt:     Now(),
	}, nil
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	u.SkillsOffered = cloneStrings(u.SkillsOffered)
	u.SkillsWanted = cloneStrings(u.SkillsWanted)
	u.Availability = cloneStrings(u.Availability)
	return u
}

// HasSkillOffered reports whether skill is among the user's offered skills.
func (u *User) HasSkillOffered(skill string) bool {
	return containsFold(u.SkillsOffered, skill)
}

// HasSkillWanted reports whether skill is among the user's wanted skills.
func (u *User) HasSkillWanted(skill string) bool {
	return containsFold(u.SkillsWanted, skill)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTags trims every tag, drops empty ones and removes
// case-insensitive duplicates, keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || containsFold(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
