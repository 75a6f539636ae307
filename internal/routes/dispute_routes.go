package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupDisputeRoutes(app *fiber.App) {
	dispute := app.Group("/api/disputes", middleware.Protected())

	// Raise a dispute
	dispute.Post("/raise", handlers.RaiseDispute)

	// Get all my disputes
	dispute.Get("/my-disputes", handlers.GetMyDisputes)

	// Get specific dispute
	dispute.Get("/:id", handlers.GetDisputeByID)

	// Conversation
	dispute.Post("/:id/messages", handlers.SendDisputeMessage)
	dispute.Get("/:id/messages", handlers.GetDisputeMessages)

	// Settlement proposals
	dispute.Post("/:id/proposals", handlers.CreateProposal)
	dispute.Post("/proposals/:proposal_id/accept", handlers.AcceptProposal)
	dispute.Post("/proposals/:proposal_id/reject", handlers.RejectProposal)

	// Escalate to arbitration
	dispute.Post("/:id/escalate", handlers.EscalateDispute)

	// Resolve dispute (admin arbiter)
	dispute.Post("/:id/resolve", middleware.RequireAdmin(), handlers.ResolveDispute)
}
