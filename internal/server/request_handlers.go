package server

import (
	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetReceivedRequests lists requests made against the authenticated user's
// posts, newest first. Optional ?status= filters by lifecycle state.
func (s *Server) GetReceivedRequests(c *fiber.Ctx) error {
	requests, err := s.requestRepo.ByOwner(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}

	if status := c.Query("status"); status != "" {
		filtered := make([]models.FoodRequest, 0, len(requests))
		for _, r := range requests {
			if string(r.Status) == status {
				filtered = append(filtered, r)
			}
		}
		requests = filtered
	}

	return c.JSON(requests)
}

// GetSentRequests lists requests the authenticated user has made, newest first.
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.requestRepo.ByRequester(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(requests)
}

// AcceptRequest accepts a pending request, opening the chat between the two
// parties and recording the history entry.
func (s *Server) AcceptRequest(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request ID"))
	}

	request, chat, err := s.lifecycle.Accept(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"request": request,
		"chat":    chat,
	})
}

// CancelRequest cancels a pending request. Stock already claimed stays claimed.
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request ID"))
	}

	request, err := s.lifecycle.Cancel(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

// DeleteRequest removes a decided request from the owner's notification list.
// Pending requests must be decided first.
func (s *Server) DeleteRequest(c *fiber.Ctx) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request ID"))
	}

	request, err := s.requestRepo.GetByID(c.UserContext(), requestID)
	if err != nil {
		return respondErr(c, err)
	}
	if request.OwnerID != currentUserID(c) {
		return respondErr(c, models.NewForbiddenError("Only the post owner can delete this request"))
	}
	if request.Status == models.RequestStatusPending {
		return respondErr(c, models.NewInvalidTransitionError("Decide the request before deleting it"))
	}

	if err := s.requestRepo.Delete(c.UserContext(), requestID); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
