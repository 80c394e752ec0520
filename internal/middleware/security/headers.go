package security

import (
	"github.com/gofiber/fiber/v2"
)

// HeadersMiddleware sets the standard response headers for the dashboard UI.
// The CSP allows inline media so the live stream and audio playback work
// inside the page.
func HeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		csp := "default-src 'self'; " +
			"img-src 'self' data: blob:; " +
			"media-src 'self' data: blob:; " +
			"connect-src 'self' ws: wss:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'"
		c.Set("Content-Security-Policy", csp)

		return c.Next()
	}
}
