package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/pkg/logger"
)

type StreamHandler struct {
	streamURL string
}

func NewStreamHandler(streamURL string) *StreamHandler {
	return &StreamHandler{
		streamURL: streamURL,
	}
}

// GetLiveStream proxies the branch camera stream byte-for-byte. The display
// element consumes it directly; nothing is processed client-side.
func (h *StreamHandler) GetLiveStream(c *fiber.Ctx) error {
	if err := proxy.Do(c, h.streamURL); err != nil {
		logger.Error("Live stream proxy failed",
			zap.String("url", h.streamURL),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Live stream unavailable",
		})
	}
	return nil
}
