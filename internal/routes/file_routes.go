package routes

import (
	"github.com/gofiber/fiber/v2"

	"bharosepe/internal/handlers"
	"bharosepe/internal/middleware"
)

func SetupFileRoutes(app *fiber.App) {
	files := app.Group("/api/files", middleware.Protected())

	files.Post("/upload", handlers.UploadFile)
	files.Post("/upload-multiple", handlers.UploadMultipleFiles)
	files.Delete("/", handlers.DeleteFile)
}
