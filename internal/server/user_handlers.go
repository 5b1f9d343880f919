package server

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/internal/service"
)

// SkillRequest is the body of POST /api/users/me/skills/:kind.
type SkillRequest struct {
	Skill string `json:"skill"`
}

// GetDirectory handles GET /api/users?q=&location=.
func (s *Server) GetDirectory(c *fiber.Ctx) error {
	entries, err := s.services.Market.Directory(c.UserContext(), c.Query("q"), c.Query("location"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetLocations handles GET /api/users/locations.
func (s *Server) GetLocations(c *fiber.Ctx) error {
	return c.JSON(s.services.Market.Locations(c.UserContext()))
}

// GetUser handles GET /api/users/:id.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Market.User(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Profiles.Update(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// AddSkill handles POST /api/users/me/skills/:kind.
func (s *Server) AddSkill(c *fiber.Ctx) error {
	var req SkillRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Profiles.AddSkill(c.UserContext(), service.SkillKind(c.Params("kind")), req.Skill)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// RemoveSkill handles DELETE /api/users/me/skills/:kind/:skill.
func (s *Server) RemoveSkill(c *fiber.Ctx) error {
	skill, err := param(c, "skill")
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Profiles.RemoveSkill(c.UserContext(), service.SkillKind(c.Params("kind")), skill)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetDashboard handles GET /api/dashboard.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	view, err := s.services.Market.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetMessages handles GET /api/messages.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	msgs, err := s.services.Market.Messages(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}
