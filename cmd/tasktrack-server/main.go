package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/auth"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/database"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/tags"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/tasks"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/users"
)

func main() {
	// Get database path from environment or use default
	dbPath := os.Getenv("TASKTRACK_DB_PATH")
	if dbPath == "" {
		dbPath = "tasktrack.db"
	}

	// Connect to database
	if err := database.Connect(dbPath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Create default admin user if no admin exists
	if err := ensureAdminExists(); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "tasktrack",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(database.GetDB())
		authHandler.RegisterRoutes(api)

		// Authenticated routes (accepts JWT or API key)
		protected := api.Group("", auth.Middleware(database.GetDB()))
		protected.GET("/auth/me", authHandler.Me)

		tasksHandler := tasks.NewHandler(database.GetDB())
		tasksHandler.RegisterRoutes(protected)

		tagsHandler := tags.NewHandler(database.GetDB())
		tagsHandler.RegisterRoutes(protected)

		usersHandler := users.NewHandler(database.GetDB())
		usersHandler.RegisterRoutes(protected)
	}

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting tasktrack server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists creates a default admin user if no admin exists in
// the database
func ensureAdminExists() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	apiKey := os.Getenv("ADMIN_API_KEY")
	if apiKey == "" {
		apiKey = auth.GenerateAPIKey()
	}

	adminUser := models.User{
		Name:         "Admin",
		Email:        "admin@example.com",
		APIKey:       apiKey,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Printf("Created default admin user: admin@example.com (password: changeme)")
	return nil
}
