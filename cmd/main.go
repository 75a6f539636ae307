package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"bharosepe/internal/database"
	"bharosepe/internal/handlers"
	"bharosepe/internal/realtime"
	"bharosepe/internal/routes"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	// DEBUG: Print loaded env variables (remove in production)
	log.Printf("🔍 DEBUG - Environment Variables:")
	log.Printf("   DB_HOST: '%s'", os.Getenv("DB_HOST"))
	log.Printf("   JWT_SECRET: '%s'", maskPassword(os.Getenv("JWT_SECRET")))
	log.Printf("   RESEND_API_KEY: '%s'", maskPassword(os.Getenv("RESEND_API_KEY")))
	log.Printf("   RAZORPAY_KEY_ID: '%s'", os.Getenv("RAZORPAY_KEY_ID"))
	log.Printf("   RAZORPAY_KEY_SECRET: '%s'", maskPassword(os.Getenv("RAZORPAY_KEY_SECRET")))
	log.Printf("   CLOUDINARY_CLOUD_NAME: '%s'", os.Getenv("CLOUDINARY_CLOUD_NAME"))

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("❌ Failed to migrate database:", err)
	}
	log.Println("✅ Database connected and migrated successfully")

	// Initialize services
	handlers.InitEmailService()
	handlers.InitRazorpayService()

	if err := handlers.InitCloudinaryService(); err != nil {
		log.Fatal("❌ Failed to initialize Cloudinary service:", err)
	}
	log.Println("✅ Cloudinary service initialized successfully")

	// Wire the lifecycle engine to the database and the realtime hub
	hub := realtime.NewHub()
	handlers.InitLifecycle(hub)
	log.Println("✅ Lifecycle engine initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Bharose Pe API v1.0",
		BodyLimit: 10 * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Bharose Pe API",
			"status":  "running",
			"version": "1.0",
		})
	})

	// Setup application routes
	routes.SetupRoutes(app)
	routes.SetupProfileRoutes(app)
	routes.SetupTransactionRoutes(app)
	routes.SetupContractRoutes(app)
	routes.SetupDisputeRoutes(app)
	routes.SetupEscalationRoutes(app)
	routes.SetupNotificationRoutes(app)
	routes.SetupFileRoutes(app)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Bharose Pe server starting on http://localhost:%s", port)
	log.Fatal(app.Listen(":" + port))
}

// Helper function to mask sensitive data in logs
func maskPassword(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
