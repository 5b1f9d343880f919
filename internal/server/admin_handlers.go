package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"skillswap/internal/query"
	"skillswap/internal/service"
)

// GetAdminStats handles GET /api/admin/stats.
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	stats, err := s.services.Admin.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetAdminReport handles GET /api/admin/report as a JSON download.
func (s *Server) GetAdminReport(c *fiber.Ctx) error {
	report, err := s.services.Admin.Report(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", query.ReportFilename(report.GeneratedAt)))
	return c.JSON(report)
}

// GetAdminUsers handles GET /api/admin/users.
func (s *Server) GetAdminUsers(c *fiber.Ctx) error {
	users, err := s.services.Admin.Users(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetAdminSwaps handles GET /api/admin/swaps.
func (s *Server) GetAdminSwaps(c *fiber.Ctx) error {
	swaps, err := s.services.Admin.Swaps(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(swaps)
}

// GetAdminFeedback handles GET /api/admin/feedback.
func (s *Server) GetAdminFeedback(c *fiber.Ctx) error {
	fb, err := s.services.Admin.Feedback(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}

// GetFeatureFlags handles GET /api/admin/feature-flags.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"configured": s.flags.Raw(),
		"evaluated":  s.flags.Snapshot(s.store.Snapshot().SessionID()),
	})
}

func (s *Server) moderate(c *fiber.Ctx, fn func(ctx context.Context, userID string) error) error {
	id, err := param(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := fn(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BanUser handles POST /api/admin/users/:id/ban.
func (s *Server) BanUser(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Admin.Ban)
}

// UnbanUser handles POST /api/admin/users/:id/unban.
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Admin.Unban)
}

// PromoteUser handles POST /api/admin/users/:id/promote.
func (s *Server) PromoteUser(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Admin.Promote)
}

// DemoteUser handles POST /api/admin/users/:id/demote.
func (s *Server) DemoteUser(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Admin.Demote)
}

// BroadcastMessage handles POST /api/admin/messages.
func (s *Server) BroadcastMessage(c *fiber.Ctx) error {
	var req service.BroadcastInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	msg, err := s.services.Admin.Broadcast(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
