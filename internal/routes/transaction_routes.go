package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupTransactionRoutes(app *fiber.App) {
	txn := app.Group("/api/transactions", middleware.Protected())

	txn.Post("/", handlers.CreateTransaction)
	txn.Get("/", handlers.GetMyTransactions)
	txn.Get("/:id", handlers.GetTransactionByID)

	// Generic lifecycle event endpoint
	txn.Post("/:id/events", handlers.ApplyTransactionEvent)

	// Delivery milestones
	txn.Post("/:id/work-completed", handlers.MarkWorkCompleted)
	txn.Post("/:id/confirm-delivery", handlers.ConfirmDelivery)

	// Payment flow
	payments := app.Group("/api/payments", middleware.Protected())
	payments.Post("/order", handlers.CreatePaymentOrder)
	payments.Post("/verify", handlers.VerifyPayment)
}
