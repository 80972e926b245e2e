package main

import (
	"fmt"
	"net/http"
	"os"

	"helixtax/internal/config"
	"helixtax/internal/database"
	"helixtax/internal/handlers"
	"helixtax/internal/logger"
	"helixtax/internal/middleware"
	"helixtax/internal/services"
	"helixtax/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "helixtax/internal/docs" // Import swagger docs
)

// @title           Helixtax API
// @version         1.0
// @description     Helixtax categorizes transactions for self-employed professionals and estimates their deductions, taxes, and quarterly instalments.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db)
	ruleService := services.NewRuleService(db)
	vehicleService := services.NewVehicleService(db)
	profileService := services.NewProfileService(db)
	deductionService := services.NewDeductionService(db, vehicleService, profileService)
	taxService := services.NewTaxService(db, deductionService, profileService)
	projectionService := services.NewProjectionService(db, deductionService, profileService)
	instalmentService := services.NewInstalmentService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	profileHandler := handlers.NewProfileHandler(profileService)
	taxHandler := handlers.NewTaxHandler(deductionService, taxService, projectionService, instalmentService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Authenticated session routes
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.GetMe)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id/categorization", transactionHandler.UpdateCategorization)

	// Categorization rule routes
	rules := protected.Group("/rules")
	rules.POST("", ruleHandler.CreateRule)
	rules.GET("", ruleHandler.ListRules)
	rules.PUT("/reorder", ruleHandler.ReorderRules)
	rules.PUT("/:id", ruleHandler.UpdateRule)
	rules.DELETE("/:id", ruleHandler.DeleteRule)
	rules.POST("/apply", ruleHandler.ApplyRules)

	// Vehicle routes
	vehicle := protected.Group("/vehicle")
	vehicle.POST("/trips", vehicleHandler.AddTrip)
	vehicle.GET("/trips", vehicleHandler.ListTrips)
	vehicle.DELETE("/trips/:id", vehicleHandler.DeleteTrip)
	vehicle.PUT("/summaries", vehicleHandler.UpsertMonthlySummary)
	vehicle.GET("/summaries", vehicleHandler.ListMonthlySummaries)
	vehicle.GET("/deduction", vehicleHandler.GetDeduction)

	// Profile and tax settings routes
	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.PATCH("", profileHandler.UpdateProfile)
	profile.GET("/tax-settings", profileHandler.GetTaxSettings)
	profile.PATCH("/tax-settings", profileHandler.UpdateTaxSettings)

	// Tax routes
	taxRoutes := protected.Group("/tax")
	taxRoutes.GET("/deductions", taxHandler.GetDeductions)
	taxRoutes.GET("/estimate", taxHandler.GetEstimate)
	taxRoutes.GET("/projection", taxHandler.GetProjection)
	taxRoutes.POST("/instalments/extract", taxHandler.ExtractInstalments)
	taxRoutes.GET("/instalments", taxHandler.ListInstalments)
	taxRoutes.POST("/instalments", taxHandler.RecordInstalment)

	log.Infof("Starting Helixtax backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
