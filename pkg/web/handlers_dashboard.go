package web

import (
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetDashboardStats(c fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"stats": stats})
}
