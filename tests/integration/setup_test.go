package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"helixtax/internal/handlers"
	"helixtax/internal/logger"
	"helixtax/internal/middleware"
	"helixtax/internal/models"
	"helixtax/internal/services"
	"helixtax/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.CategorizationRule{},
		&models.VehicleLog{},
		&models.MonthlyVehicleSummary{},
		&models.Profile{},
		&models.TaxSettings{},
		&models.TaxInstalment{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db)
	ruleService := services.NewRuleService(db)
	vehicleService := services.NewVehicleService(db)
	profileService := services.NewProfileService(db)
	deductionService := services.NewDeductionService(db, vehicleService, profileService)
	taxService := services.NewTaxService(db, deductionService, profileService)
	projectionService := services.NewProjectionService(db, deductionService, profileService)
	instalmentService := services.NewInstalmentService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	profileHandler := handlers.NewProfileHandler(profileService)
	taxHandler := handlers.NewTaxHandler(deductionService, taxService, projectionService, instalmentService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.GetMe)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id/categorization", transactionHandler.UpdateCategorization)

	rules := protected.Group("/rules")
	rules.POST("", ruleHandler.CreateRule)
	rules.GET("", ruleHandler.ListRules)
	rules.PUT("/reorder", ruleHandler.ReorderRules)
	rules.PUT("/:id", ruleHandler.UpdateRule)
	rules.DELETE("/:id", ruleHandler.DeleteRule)
	rules.POST("/apply", ruleHandler.ApplyRules)

	vehicle := protected.Group("/vehicle")
	vehicle.POST("/trips", vehicleHandler.AddTrip)
	vehicle.GET("/trips", vehicleHandler.ListTrips)
	vehicle.DELETE("/trips/:id", vehicleHandler.DeleteTrip)
	vehicle.PUT("/summaries", vehicleHandler.UpsertMonthlySummary)
	vehicle.GET("/summaries", vehicleHandler.ListMonthlySummaries)
	vehicle.GET("/deduction", vehicleHandler.GetDeduction)

	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.PATCH("", profileHandler.UpdateProfile)
	profile.GET("/tax-settings", profileHandler.GetTaxSettings)
	profile.PATCH("/tax-settings", profileHandler.UpdateTaxSettings)

	taxRoutes := protected.Group("/tax")
	taxRoutes.GET("/deductions", taxHandler.GetDeductions)
	taxRoutes.GET("/estimate", taxHandler.GetEstimate)
	taxRoutes.GET("/projection", taxHandler.GetProjection)
	taxRoutes.POST("/instalments/extract", taxHandler.ExtractInstalments)
	taxRoutes.GET("/instalments", taxHandler.ListInstalments)
	taxRoutes.POST("/instalments", taxHandler.RecordInstalment)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createTransaction inserts a transaction through the API and returns its ID.
func (app *testApp) createTransaction(t *testing.T, token, date, amount, direction, description string) string {
	t.Helper()
	body := fmt.Sprintf(`{"date":%q,"amount":%q,"direction":%q,"description":%q}`,
		date, amount, direction, description)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
	return tx["id"].(string)
}

// createRule creates a categorization rule through the API and returns its ID.
func (app *testApp) createRule(t *testing.T, token, matchType, matchText, ruleType, category string) string {
	t.Helper()
	body := fmt.Sprintf(`{"match_type":%q,"match_text":%q,"type":%q,"category":%q}`,
		matchType, matchText, ruleType, category)
	rec := app.request("POST", "/api/v1/rules", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule failed: %d %s", rec.Code, rec.Body.String())
	}
	rule := parseJSON(t, rec)["rule"].(map[string]interface{})
	return rule["id"].(string)
}
