package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupProfileRoutes(app *fiber.App) {
	profile := app.Group("/api/profile", middleware.Protected())

	profile.Get("/", handlers.GetUserProfile)
	profile.Put("/", handlers.UpdateUserProfile)
	profile.Post("/change-password", handlers.ChangePassword)
	profile.Post("/avatar", handlers.UploadAvatar)

	// Tag lookup for opening a transaction with a counterparty
	profile.Get("/search/:tag", handlers.SearchUserByTag)
}
