package server

import (
	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetHistory lists decision history entries involving the authenticated user,
// newest first. Optional ?action=accepted|cancelled filters by outcome.
func (s *Server) GetHistory(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if action := c.Query("action"); action != "" {
		switch models.HistoryAction(action) {
		case models.HistoryActionAccepted, models.HistoryActionCancelled:
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown history action"))
		}
		entries, err := s.historyRepo.ByAction(c.UserContext(), userID, models.HistoryAction(action))
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(entries)
	}

	entries, err := s.historyRepo.ForUser(c.UserContext(), userID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(entries)
}
