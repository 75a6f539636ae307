package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupEscalationRoutes(app *fiber.App) {
	escalation := app.Group("/api/escalations", middleware.Protected())

	// Parties can view their own escalation case file
	escalation.Get("/:id", handlers.GetEscalation)

	// Arbiter queue
	escalation.Get("/", middleware.RequireAdmin(), handlers.ListEscalations)
	escalation.Post("/:id/assign", middleware.RequireAdmin(), handlers.AssignEscalation)
	escalation.Post("/:id/resolve", middleware.RequireAdmin(), handlers.ResolveEscalation)
}
