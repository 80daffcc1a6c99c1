package middleware

import (
	"strings"

	"bgclub-bot/internal/pkg/password"
	"bgclub-bot/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminAuth guards the admin REST surface with a single static bearer
// token, stored server-side only as a bcrypt hash. No token hash
// configured means the surface is disabled outright.
func AdminAuth(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenHash == "" {
			return response.Unauthorized(c, "admin API is disabled")
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return response.Unauthorized(c, "missing bearer token")
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if !password.Verify(token, tokenHash) {
			return response.Unauthorized(c, "invalid token")
		}
		return c.Next()
	}
}
