// Package query derives read-only views from an engine snapshot. Every
// function recomputes from the state it is given.
package query

import (
	"strings"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// AllLocations is the location filter value that disables location filtering.
const AllLocations = "all"

// DirectoryFilter narrows the public member directory.
type DirectoryFilter struct {
	Search        string
	Location      string
	ExcludeUserID string
}

// PublicDirectory returns public, unbanned members matching f, in insertion
// order. Search matches name or any offered skill; both filters are
// case-insensitive substring matches.
func PublicDirectory(s engine.State, f DirectoryFilter) []models.User {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	location := strings.ToLower(strings.TrimSpace(f.Location))
	if location == AllLocations {
		location = ""
	}

	out := []models.User{}
	for _, u := range s.Users {
		if u.ID == f.ExcludeUserID || !u.IsPublic || u.IsBanned {
			continue
		}
		if search != "" && !matchesSearch(u, search) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(u.Location), location) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchesSearch(u models.User, term string) bool {
	if strings.Contains(strings.ToLower(u.Name), term) {
		return true
	}
	for _, skill := range u.SkillsOffered {
		if strings.Contains(strings.ToLower(skill), term) {
			return true
		}
	}
	return false
}

// Locations returns the distinct non-empty locations of unbanned users in
// first-seen order.
func Locations(s engine.State) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, u := range s.Users {
		if u.IsBanned || u.Location == "" {
			continue
		}
		if _, ok := seen[u.Location]; ok {
			continue
		}
		seen[u.Location] = struct{}{}
		out = append(out, u.Location)
	}
	return out
}

// ReciprocalMatch returns the skills the requester offers that the target
// wants. It is advisory and never blocks a request.
func ReciprocalMatch(requester, target models.User) []string {
	out := []string{}
	for _, skill := range requester.SkillsOffered {
		if target.HasSkillWanted(skill) {
			out = append(out, skill)
		}
	}
	return out
}
