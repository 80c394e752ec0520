package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestAllowExhaustsBucket(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied before the bucket was exhausted", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request allowed after the bucket was exhausted")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request for key denied")
	}
	if rl.allow("10.0.0.1") {
		t.Error("exhausted key allowed again")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("fresh key denied because another key was exhausted")
	}
}

func TestAllowRefillsAfterWindow(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.1")
	if rl.allow("10.0.0.1") {
		t.Fatal("bucket not exhausted")
	}

	// Backdate the bucket instead of sleeping through the refill window.
	rl.mu.RLock()
	b := rl.buckets["10.0.0.1"]
	rl.mu.RUnlock()
	b.mu.Lock()
	b.lastRefill = time.Now().Add(-time.Minute)
	b.mu.Unlock()

	if !rl.allow("10.0.0.1") {
		t.Error("request denied after the refill window elapsed")
	}
}

func TestMiddlewareReturns429WhenExhausted(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()

	app := fiber.New()
	app.Post("/action", rl.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/action", nil), -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/action", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the bucket is drained, got %d", resp.StatusCode)
	}
}
