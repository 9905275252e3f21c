package api

import (
	"task-service/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.dashboardService.Summary(c.UserContext())
	if err != nil {
		return internalError(c, err, "Gagal mengambil data dashboard")
	}

	return respond(c, fiber.StatusOK, "Berhasil mengambil data dashboard", summary)
}
