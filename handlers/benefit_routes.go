// handlers/benefit_routes.go
package handlers

import (
	"benefit-distribution-system/middleware"
	"benefit-distribution-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupBenefitRoutes wires the benefit lifecycle and claim endpoints.
// Listing and detail reads allow anonymous callers; everything else needs
// a resolved user.
func SetupBenefitRoutes(app *fiber.App, benefits *services.BenefitService, tokens *services.TokenIssuer, users *services.UserService) {
	optional := middleware.OptionalUser(tokens, users)
	required := middleware.RequireUser(tokens, users)

	group := app.Group("/api/v1/benefits")

	group.Get("/", optional, benefits.ListActive)
	group.Post("/", required, benefits.CreateBenefit)

	// Registered before /:id so "my" is not swallowed by the param route.
	group.Get("/my", required, benefits.ListMine)
	group.Get("/my/stats", required, benefits.CreatorStats)

	group.Get("/:id", optional, benefits.GetBenefit)
	group.Put("/:id", required, benefits.UpdateBenefit)
	group.Post("/:id/codes", required, benefits.AddCodes)
	group.Get("/:id/eligibility", required, benefits.CheckEligibility)
	group.Post("/:id/claim", required, benefits.ClaimBenefit)
	group.Get("/:id/claims", required, benefits.ListClaims)
}
