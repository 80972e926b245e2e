package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"helixtax/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// D parses a decimal literal, panicking on malformed input. Test-only sugar.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date builds a UTC date at midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates an uncategorized transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, date time.Time, amount string, direction models.TransactionDirection, description string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Amount:      D(amount),
		Direction:   direction,
		Description: description,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CategorizeTestTransaction sets expense categorization fields on an existing
// transaction, bypassing service validation.
func CategorizeTestTransaction(t *testing.T, db *gorm.DB, tx *models.Transaction, expenseType models.ExpenseType, category, subcategory string) *models.Transaction {
	t.Helper()

	tx.ExpenseType = expenseType
	tx.ExpenseCategory = category
	tx.ExpenseSubcategory = subcategory
	if err := db.Save(tx).Error; err != nil {
		t.Fatalf("failed to categorize test transaction: %v", err)
	}
	return tx
}

// MarkTestIncome flags an existing transaction as income via category override.
func MarkTestIncome(t *testing.T, db *gorm.DB, tx *models.Transaction, override models.CategoryOverride, source string) *models.Transaction {
	t.Helper()

	tx.CategoryOverride = override
	tx.IncomeSource = source
	if err := db.Save(tx).Error; err != nil {
		t.Fatalf("failed to mark test transaction as income: %v", err)
	}
	return tx
}

// CreateTestRule creates a categorization rule with the next available priority.
func CreateTestRule(t *testing.T, db *gorm.DB, userID string, priority int, matchType models.RuleMatchType, matchText string, ruleType models.RuleType, category, subcategory string) *models.CategorizationRule {
	t.Helper()

	rule := &models.CategorizationRule{
		UserID:      userID,
		Priority:    priority,
		MatchType:   matchType,
		MatchText:   matchText,
		Type:        ruleType,
		Category:    category,
		Subcategory: subcategory,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestTripLog creates a vehicle trip log entry.
func CreateTestTripLog(t *testing.T, db *gorm.DB, userID string, date time.Time, distanceKm string) *models.VehicleLog {
	t.Helper()

	log := &models.VehicleLog{
		UserID:     userID,
		Date:       date,
		DistanceKm: D(distanceKm),
		FromPlace:  "Home",
		ToPlace:    fmt.Sprintf("Client %d", nextID()),
		Purpose:    "client visit",
	}
	if err := db.Create(log).Error; err != nil {
		t.Fatalf("failed to create test trip log: %v", err)
	}
	return log
}

// CreateTestMonthlySummary creates a monthly vehicle kilometre summary.
func CreateTestMonthlySummary(t *testing.T, db *gorm.DB, userID string, year, month int, totalKm, businessKm string) *models.MonthlyVehicleSummary {
	t.Helper()

	summary := &models.MonthlyVehicleSummary{
		UserID:     userID,
		Year:       year,
		Month:      month,
		TotalKm:    D(totalKm),
		BusinessKm: D(businessKm),
	}
	if err := db.Create(summary).Error; err != nil {
		t.Fatalf("failed to create test monthly summary: %v", err)
	}
	return summary
}

// CreateTestProfile persists a profile with default tracking settings. Tests
// mutate fields and Save to exercise other configurations.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID string) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		UserID:                 userID,
		VehicleTrackingMode:    models.TrackingModeTrip,
		VehicleDeductionMethod: models.DeductionMethodPerKm,
		PerKmRate:              D("0.68"),
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return profile
}

// CreateTestTaxSettings persists tax settings with the given province.
func CreateTestTaxSettings(t *testing.T, db *gorm.DB, userID, province string) *models.TaxSettings {
	t.Helper()

	settings := &models.TaxSettings{
		UserID:           userID,
		Province:         province,
		InstalmentMethod: models.InstalmentMethodNotRequired,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test tax settings: %v", err)
	}
	return settings
}
