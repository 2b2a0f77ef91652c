// middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthMiddleware validates the shared service token on operator
// routes. The gateway never proxies these, so callers authenticate with
// the token directly.
func ServiceAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("SEASON_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ SEASON_SERVICE_TOKEN is not set — operator routes cannot authenticate callers")
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			// Fall back to "Bearer <token>" for callers that only speak Authorization.
			token = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			log.Printf("🚫 [SERVICE_AUTH] Missing service token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service token missing",
			})
		}

		if token != expectedToken {
			log.Printf("❌ [SERVICE_AUTH] Invalid service token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}

		return c.Next()
	}
}
