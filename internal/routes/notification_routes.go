package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupNotificationRoutes(app *fiber.App) {
	notification := app.Group("/api/notifications", middleware.Protected())

	notification.Get("/", handlers.GetNotifications)
	notification.Get("/unread-count", handlers.GetUnreadCount)
	notification.Put("/:id/read", handlers.MarkAsRead)
	notification.Put("/read-all", handlers.MarkAllAsRead)
	notification.Delete("/read", handlers.DeleteAllRead)
	notification.Delete("/:id", handlers.DeleteNotification)

	// Live change feed (SSE)
	app.Get("/api/stream", middleware.Protected(), handlers.StreamEvents)
}
