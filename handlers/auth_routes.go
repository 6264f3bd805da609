// handlers/auth_routes.go
package handlers

import (
	"benefit-distribution-system/middleware"
	"benefit-distribution-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes wires the OAuth login flow and the advanced-mode
// consent endpoint.
func SetupAuthRoutes(app *fiber.App, auth *services.AuthService, users *services.UserService, tokens *services.TokenIssuer) {
	group := app.Group("/api/v1/auth")

	group.Get("/login", auth.Login)
	group.Get("/callback", auth.Callback)
	group.Post("/agree-advanced-mode", middleware.RequireUser(tokens, users), users.AgreeAdvancedMode)
}
