package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/analytics"
	"github.com/retail-vision/dashboard/internal/dashboard"
	"github.com/retail-vision/dashboard/pkg/logger"
)

type ActionsHandler struct {
	dispatcher *dashboard.Dispatcher
}

func NewActionsHandler(dispatcher *dashboard.Dispatcher) *ActionsHandler {
	return &ActionsHandler{
		dispatcher: dispatcher,
	}
}

// ApproveRecommendation forwards an approval upstream. Success is a plain
// confirmation; failure is a generic notice with no retry and no change to
// the displayed recommendations.
func (h *ActionsHandler) ApproveRecommendation(c *fiber.Ctx) error {
	var req struct {
		Action         string `json:"action"`
		Priority       string `json:"priority"`
		ExpectedImpact string `json:"expected_impact"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Action is required",
		})
	}

	rec := analytics.Recommendation{
		Action:         req.Action,
		Priority:       req.Priority,
		ExpectedImpact: req.ExpectedImpact,
	}

	if err := h.dispatcher.ApproveRecommendation(c.Context(), rec); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not create the task. Please try again later.",
		})
	}

	return c.JSON(fiber.Map{
		"status": "approved",
	})
}
