package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"skillswap/internal/models"
	"skillswap/internal/service"
)

// GetSwaps handles GET /api/swaps.
func (s *Server) GetSwaps(c *fiber.Ctx) error {
	d, err := s.services.Swaps.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}

// CreateSwap handles POST /api/swaps.
func (s *Server) CreateSwap(c *fiber.Ctx) error {
	var req service.CreateSwapInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	res, err := s.services.Swaps.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

type swapTransition func(ctx context.Context, id string) (*models.SwapRequest, error)

func (s *Server) transitionSwap(c *fiber.Ctx, fn swapTransition) error {
	id, err := param(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	req, err := fn(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// AcceptSwap handles POST /api/swaps/:id/accept.
func (s *Server) AcceptSwap(c *fiber.Ctx) error {
	return s.transitionSwap(c, s.services.Swaps.Accept)
}

// RejectSwap handles POST /api/swaps/:id/reject.
func (s *Server) RejectSwap(c *fiber.Ctx) error {
	return s.transitionSwap(c, s.services.Swaps.Reject)
}

// CancelSwap handles POST /api/swaps/:id/cancel.
func (s *Server) CancelSwap(c *fiber.Ctx) error {
	return s.transitionSwap(c, s.services.Swaps.Cancel)
}

// CompleteSwap handles POST /api/swaps/:id/complete.
func (s *Server) CompleteSwap(c *fiber.Ctx) error {
	return s.transitionSwap(c, s.services.Swaps.Complete)
}

// DeleteSwap handles DELETE /api/swaps/:id.
func (s *Server) DeleteSwap(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.services.Swaps.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LeaveFeedback handles POST /api/swaps/:id/feedback.
func (s *Server) LeaveFeedback(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.FeedbackInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	fb, err := s.services.Swaps.LeaveFeedback(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}
