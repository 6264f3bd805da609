// handlers/user_routes.go
package handlers

import (
	"benefit-distribution-system/middleware"
	"benefit-distribution-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes wires the account read endpoints.
func SetupUserRoutes(app *fiber.App, users *services.UserService, tokens *services.TokenIssuer) {
	required := middleware.RequireUser(tokens, users)

	group := app.Group("/api/v1/users")

	group.Get("/me", required, users.Me)
	group.Get("/me/claims", required, users.MyClaims)
	group.Get("/:id", users.GetUser)
}
