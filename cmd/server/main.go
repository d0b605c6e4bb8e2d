package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/config"
	"github.com/authkit/authkit/internal/database"
	"github.com/authkit/authkit/internal/handlers"
	"github.com/authkit/authkit/internal/hash"
	"github.com/authkit/authkit/internal/middleware"
	"github.com/authkit/authkit/internal/repository"
	"github.com/authkit/authkit/internal/services"
	"github.com/authkit/authkit/internal/token"
)

func main() {
	// Load configuration; a missing signing secret aborts startup here
	// rather than failing per request.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if cfg.DBDriver == "postgres" {
		if err := database.AddIndexes(database.GetDB()); err != nil {
			log.Fatalf("Failed to add indexes: %v", err)
		}
	}

	// Process-wide secrets are fixed at startup.
	tokens, err := token.New(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	hasher, err := hash.New(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to initialize hasher: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.GetDB())
	projectRepo := repository.NewProjectRepository(database.GetDB())
	envRepo := repository.NewEnvironmentRepository(database.GetDB())
	magicRepo := repository.NewMagicLinkRepository(database.GetDB())

	// Services
	mailer := services.NewLogMailer()
	platformAuthService := services.NewPlatformAuthService(userRepo, tokens, hasher)
	tenantAuthService := services.NewTenantAuthService(userRepo, magicRepo, tokens, hasher, mailer, cfg.AppBaseURL)
	projectService := services.NewProjectService(projectRepo, envRepo, hasher)

	// Handlers
	isProduction := cfg.GinMode == "release"
	platformAuthHandler := handlers.NewPlatformAuthHandler(platformAuthService, isProduction)
	tenantAuthHandler := handlers.NewTenantAuthHandler(tenantAuthService)
	projectHandler := handlers.NewProjectHandler(projectService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "auth-kit API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Platform operator auth (public; session via cookie)
		platformAuth := api.Group("/platform/auth")
		{
			platformAuth.POST("/signup", platformAuthHandler.Signup)
			platformAuth.POST("/signin", platformAuthHandler.Signin)
			platformAuth.POST("/signout", platformAuthHandler.Signout)
			platformAuth.GET("/me", platformAuthHandler.Me)
		}

		// Project lifecycle (platform session required)
		projects := api.Group("/projects")
		projects.Use(middleware.RequirePlatformSession(tokens))
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/:id/environments", projectHandler.CreateEnvironment)
			projects.POST("/:id/environments/:env_id/rotate", projectHandler.RotateSecret)
			projects.PATCH("/:id/settings", projectHandler.UpdateSettings)
		}

		// Tenant auth (environment keys select the user pool)
		tenant := api.Group("/tenant")
		{
			tenantAuth := tenant.Group("/auth")
			tenantAuth.Use(middleware.RequirePublicEnvironment())
			{
				tenantAuth.POST("/signup", tenantAuthHandler.Signup)
				tenantAuth.POST("/signin", tenantAuthHandler.Signin)
				tenantAuth.POST("/magic-link/start", tenantAuthHandler.MagicLinkStart)
				tenantAuth.POST("/magic-link/verify", tenantAuthHandler.MagicLinkVerify)
				tenantAuth.POST("/refresh", tenantAuthHandler.Refresh)
				tenantAuth.GET("/me", middleware.RequireTenantAccess(tokens), tenantAuthHandler.Me)
			}

			// Privileged server-side operations require the secret key.
			tenantUsers := tenant.Group("/users")
			tenantUsers.Use(middleware.RequireStrictEnvironment())
			{
				tenantUsers.GET("", tenantAuthHandler.ListUsers)
			}
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
