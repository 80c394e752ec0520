package handlers

import (
	"encoding/base64"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/dashboard"
	"github.com/retail-vision/dashboard/pkg/logger"
)

type ChatHandler struct {
	dispatcher *dashboard.Dispatcher
}

func NewChatHandler(dispatcher *dashboard.Dispatcher) *ChatHandler {
	return &ChatHandler{
		dispatcher: dispatcher,
	}
}

// SendMessage forwards a typed question to the assistant. The response always
// carries the appended transcript entries; an assistant failure shows up as
// the apology entry, not as an HTTP error.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	messages := h.dispatcher.SendTextQuery(c.Context(), req.Text)

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}

// SendVoiceMessage accepts a recorded clip uploaded by the dashboard UI and
// forwards it as a voice query. The spoken reply comes back base64-encoded so
// the UI can play it inline.
func (h *ChatHandler) SendVoiceMessage(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Audio file is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded audio", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read audio file",
		})
	}
	defer src.Close()

	audio, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read uploaded audio", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read audio file",
		})
	}

	result := h.dispatcher.SendVoiceQuery(c.Context(), audio)

	resp := fiber.Map{
		"messages": result.Messages,
	}
	if len(result.Audio) > 0 {
		resp["audio_response"] = base64.StdEncoding.EncodeToString(result.Audio)
	}

	return c.JSON(resp)
}
