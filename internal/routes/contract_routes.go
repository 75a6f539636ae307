package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupContractRoutes(app *fiber.App) {
	contract := app.Group("/api/contracts", middleware.Protected())

	contract.Post("/", handlers.CreateContract)
	contract.Get("/:id", handlers.GetContract)
	contract.Put("/:id", handlers.UpdateContract)
	contract.Post("/:id/accept", handlers.AcceptContract)
	contract.Post("/:id/reject", handlers.RejectContract)
}
