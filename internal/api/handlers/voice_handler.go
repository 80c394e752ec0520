package handlers

import (
	"encoding/base64"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/retail-vision/dashboard/internal/voice"
)

// VoiceHandler drives the host-side microphone recorder for kiosk
// deployments where the capture device is attached to the dashboard host
// rather than the operator's browser. The two endpoints mirror the
// press-and-hold control: press starts capture, release finalizes and sends.
type VoiceHandler struct {
	recorder *voice.Recorder
}

func NewVoiceHandler(recorder *voice.Recorder) *VoiceHandler {
	return &VoiceHandler{
		recorder: recorder,
	}
}

func (h *VoiceHandler) StartRecording(c *fiber.Ctx) error {
	if err := h.recorder.Begin(c.Context()); err != nil {
		if errors.Is(err, voice.ErrAlreadyRecording) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Recording already in progress",
			})
		}
		// Device acquisition failed: the recorder stays idle and nothing
		// is sent; the UI shows this as a blocking notice.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Microphone unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"state": h.recorder.State().String(),
	})
}

func (h *VoiceHandler) StopRecording(c *fiber.Ctx) error {
	result, err := h.recorder.End(c.Context())
	if err != nil {
		if errors.Is(err, voice.ErrNotRecording) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "No recording in progress",
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Recording was empty",
		})
	}

	resp := fiber.Map{
		"state":    h.recorder.State().String(),
		"messages": result.Messages,
	}
	if len(result.Audio) > 0 {
		resp["audio_response"] = base64.StdEncoding.EncodeToString(result.Audio)
	}

	return c.JSON(resp)
}
