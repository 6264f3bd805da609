// middleware/auth.go
package middleware

import (
	"strings"

	"benefit-distribution-system/models"
	"benefit-distribution-system/services"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return token
}

func resolveUser(c *fiber.Ctx, tokens *services.TokenIssuer, users *services.UserService) *models.User {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	userID, err := tokens.Verify(token)
	if err != nil {
		return nil
	}
	user, err := users.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user in Locals("user").
func RequireUser(tokens *services.TokenIssuer, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := resolveUser(c, tokens, users)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Could not validate credentials",
			})
		}
		c.Locals("user", user)
		return c.Next()
	}
}

// OptionalUser resolves the caller when a token is present but lets
// anonymous requests through.
func OptionalUser(tokens *services.TokenIssuer, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := resolveUser(c, tokens, users); user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	}
}

// RequireAdmin gates admin-only routes on trust level. Runs after
// RequireUser.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := c.Locals("user").(*models.User)
		if user == nil || user.TrustLevel < models.AdminTrustLevel {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}
