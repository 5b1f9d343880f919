package server

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/internal/models"
	"skillswap/internal/service"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email string `json:"email"`
}

// DemoLoginRequest is the body of POST /api/auth/demo.
type DemoLoginRequest struct {
	Role string `json:"role"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	User  *models.User    `json:"user"`
	Flags map[string]bool `json:"flags"`
}

// Register handles POST /api/auth/register.
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Auth.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.services.Auth.Login(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DemoLogin handles POST /api/auth/demo. The role is "admin" or "user".
func (s *Server) DemoLogin(c *fiber.Ctx) error {
	var req DemoLoginRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	if req.Role == "" {
		req.Role = c.Query("role", "user")
	}
	if req.Role != "admin" && req.Role != "user" {
		return respondError(c, models.NewValidationError("Role must be admin or user"))
	}
	user, err := s.services.Auth.DemoLogin(c.UserContext(), req.Role == "admin")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Logout handles POST /api/auth/logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.services.Auth.Logout(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSession handles GET /api/session.
func (s *Server) GetSession(c *fiber.Ctx) error {
	user, err := s.services.Auth.CurrentUser(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(SessionResponse{User: user, Flags: s.flags.Snapshot(user.ID)})
}
