// handlers/blacklist_routes.go
package handlers

import (
	"benefit-distribution-system/middleware"
	"benefit-distribution-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupBlacklistRoutes wires the creator-scoped personal blacklist and
// the admin-only global blacklist.
func SetupBlacklistRoutes(app *fiber.App, blacklists *services.BlacklistService, tokens *services.TokenIssuer, users *services.UserService) {
	required := middleware.RequireUser(tokens, users)

	personal := app.Group("/api/v1/blacklist", required)
	personal.Post("/", blacklists.AddPersonal)
	personal.Get("/", blacklists.ListPersonal)
	personal.Delete("/:id", blacklists.RemovePersonal)

	global := app.Group("/api/v1/admin/blacklist", required, middleware.RequireAdmin())
	global.Post("/", blacklists.AddGlobal)
	global.Get("/", blacklists.ListGlobal)
	global.Delete("/:id", blacklists.RemoveGlobal)
}
