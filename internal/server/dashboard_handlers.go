package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetDashboardStats returns aggregate activity counters for the
// authenticated user.
func (s *Server) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := s.dashboard.Stats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(stats)
}
