package service

import (
	"context"
	"log/slog"

	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/query"
)

// SwapService runs the swap-request lifecycle for the session user.
type SwapService struct {
	*core
}

// CreateSwapInput is a new request from the session user.
type CreateSwapInput struct {
	ToUserID       string `json:"toUserId"`
	OfferedSkill   string `json:"offeredSkill"`
	RequestedSkill string `json:"requestedSkill"`
	Message        string `json:"message"`
}

// CreateSwapResult carries the stored request and the advisory hint.
type CreateSwapResult struct {
	Request          models.SwapRequest `json:"request"`
	ReciprocalSkills []string           `json:"reciprocalSkills"`
}

// List returns the session user's requests split by direction.
func (s *SwapService) List(ctx context.Context) (*query.Directions, error) {
	state := s.store.Snapshot()
	me, err := s.session(state)
	if err != nil {
		return nil, err
	}
	d := query.SwapsByDirection(state, me.ID)
	return &d, nil
}

// Create sends a swap request. The requested skill must be one the target
// offers, and a second active request for the same skill is refused.
func (s *SwapService) Create(ctx context.Context, in CreateSwapInput) (*CreateSwapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	me, err := s.activeSession(state)
	if err != nil {
		return nil, err
	}

	req, err := models.NewSwapRequest(models.SwapRequestParams{
		FromUserID:     me.ID,
		ToUserID:       in.ToUserID,
		OfferedSkill:   in.OfferedSkill,
		RequestedSkill: in.RequestedSkill,
		Message:        in.Message,
	})
	if err != nil {
		return nil, err
	}

	target, ok := state.FindUser(in.ToUserID)
	if !ok || target.IsBanned {
		return nil, models.NewNotFoundError("User", in.ToUserID)
	}
	if !target.HasSkillOffered(req.RequestedSkill) {
		return nil, models.NewValidationError("The requested skill is not offered by this user")
	}
	if !me.HasSkillOffered(req.OfferedSkill) {
		return nil, models.NewValidationError("You can only offer skills listed on your profile")
	}
	if query.HasActiveRequest(state, me.ID, target.ID, req.RequestedSkill) {
		return nil, models.NewConflictError("You already have an active request for this skill with this user")
	}

	req.CreatedAt = s.now()
	req.UpdatedAt = req.CreatedAt
	if _, err := s.dispatch(ctx, engine.AddSwapRequest{Request: *req}, models.NewForbiddenError("Swap request was refused")); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "swap request created",
		slog.String("swap_id", req.ID),
		slog.String("from_user_id", me.ID),
		slog.String("to_user_id", target.ID),
	)
	return &CreateSwapResult{Request: *req, ReciprocalSkills: query.ReciprocalMatch(me, target)}, nil
}

// swapRole says who may move a request.
type swapRole int

const (
	roleRecipient swapRole = iota
	roleRequester
	roleParty
)

// Accept moves a pending request addressed to the session user to accepted.
func (s *SwapService) Accept(ctx context.Context, id string) (*models.SwapRequest, error) {
	return s.transition(ctx, id, roleRecipient, models.SwapStatusAccepted)
}

// Reject moves a pending request addressed to the session user to rejected.
func (s *SwapService) Reject(ctx context.Context, id string) (*models.SwapRequest, error) {
	return s.transition(ctx, id, roleRecipient, models.SwapStatusRejected)
}

// Cancel withdraws a pending request the session user sent.
func (s *SwapService) Cancel(ctx context.Context, id string) (*models.SwapRequest, error) {
	return s.transition(ctx, id, roleRequester, models.SwapStatusCancelled)
}

// Complete marks an accepted request as done; either party may do it.
func (s *SwapService) Complete(ctx context.Context, id string) (*models.SwapRequest, error) {
	return s.transition(ctx, id, roleParty, models.SwapStatusCompleted)
}

func (s *SwapService) transition(ctx context.Context, id string, role swapRole, to models.SwapStatus) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	me, err := s.activeSession(state)
	if err != nil {
		return nil, err
	}
	req, ok := state.FindSwapRequest(id)
	if !ok {
		return nil, models.NewNotFoundError("Swap request", id)
	}
	if !allowed(role, req, me.ID) {
		return nil, models.NewForbiddenError("You cannot change this swap request")
	}
	if !req.Status.CanTransitionTo(to) {
		return nil, models.NewConflictError("Swap request is " + string(req.Status) + " and cannot become " + string(to))
	}

	req.Status = to
	req.UpdatedAt = s.now()
	next, err := s.dispatch(ctx, engine.UpdateSwapRequest{Request: req}, models.NewConflictError("Swap request could not be updated"))
	if err != nil {
		return nil, err
	}
	updated, _ := next.FindSwapRequest(id)
	return &updated, nil
}

func allowed(role swapRole, req models.SwapRequest, userID string) bool {
	switch role {
	case roleRecipient:
		return req.ToUserID == userID
	case roleRequester:
		return req.FromUserID == userID
	default:
		return req.Involves(userID)
	}
}

// Delete removes a request the session user sent.
func (s *SwapService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	me, err := s.activeSession(state)
	if err != nil {
		return err
	}
	req, ok := state.FindSwapRequest(id)
	if !ok {
		return models.NewNotFoundError("Swap request", id)
	}
	if req.FromUserID != me.ID {
		return models.NewForbiddenError("Only the requester can delete a swap request")
	}
	_, err = s.dispatch(ctx, engine.DeleteSwapRequest{ID: id}, models.NewForbiddenError("Swap request could not be deleted"))
	return err
}

// FeedbackInput is a rating for the other party of a completed swap.
type FeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// LeaveFeedback rates the counterparty of a completed swap. Each party may
// rate a swap once; the target's rating is recomputed in the same transition.
func (s *SwapService) LeaveFeedback(ctx context.Context, swapID string, in FeedbackInput) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.Snapshot()
	me, err := s.activeSession(state)
	if err != nil {
		return nil, err
	}
	req, ok := state.FindSwapRequest(swapID)
	if !ok {
		return nil, models.NewNotFoundError("Swap request", swapID)
	}
	if !req.Involves(me.ID) {
		return nil, models.NewForbiddenError("Only the parties of a swap can rate it")
	}
	if req.Status != models.SwapStatusCompleted {
		return nil, models.NewConflictError("Only completed swaps can be rated")
	}
	if query.HasFeedbackFrom(state, swapID, me.ID) {
		return nil, models.NewConflictError("You have already rated this swap")
	}

	fb, err := models.NewFeedback(models.FeedbackParams{
		SwapRequestID: swapID,
		FromUserID:    me.ID,
		ToUserID:      req.Counterparty(me.ID),
		Rating:        in.Rating,
		Comment:       in.Comment,
	})
	if err != nil {
		return nil, err
	}
	fb.CreatedAt = s.now()
	if _, err := s.dispatch(ctx, engine.RecordFeedback{Feedback: *fb}, models.NewForbiddenError("Feedback was refused")); err != nil {
		return nil, err
	}
	return fb, nil
}
