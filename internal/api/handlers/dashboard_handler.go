package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/retail-vision/dashboard/internal/dashboard"
)

type DashboardHandler struct {
	store *dashboard.Store
}

func NewDashboardHandler(store *dashboard.Store) *DashboardHandler {
	return &DashboardHandler{
		store: store,
	}
}

// GetDashboard serves the current snapshot: KPI series, situation,
// recommendations, transcript and per-half freshness stamps.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot())
}
