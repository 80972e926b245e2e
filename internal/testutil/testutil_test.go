package testutil_test

import (
	"testing"
	"time"

	"helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "transactions", "categorization_rules", "vehicle_logs", "monthly_vehicle_summaries", "profiles", "tax_settings", "tax_instalments"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.March, 1), "45.50", models.DirectionDebit, "PARKING LOT 7")
	if !tx.Amount.Equal(testutil.D("45.50")) {
		t.Errorf("expected amount 45.50, got %s", tx.Amount)
	}
	if tx.IsCategorized() {
		t.Error("new transaction should be uncategorized")
	}

	testutil.CategorizeTestTransaction(t, db, tx, models.ExpenseTypeBusiness, models.CategoryParking, models.SubcategoryParking)
	if !tx.IsCategorized() {
		t.Error("transaction should be categorized after update")
	}

	rule := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "parking", models.RuleTypeBusinessExpense, models.CategoryParking, "")
	if rule.Priority != 1 {
		t.Errorf("expected priority 1, got %d", rule.Priority)
	}

	log := testutil.CreateTestTripLog(t, db, user.ID, testutil.Date(2024, time.March, 2), "12.5")
	if !log.DistanceKm.Equal(testutil.D("12.5")) {
		t.Errorf("expected distance 12.5, got %s", log.DistanceKm)
	}

	summary := testutil.CreateTestMonthlySummary(t, db, user.ID, 2024, 3, "1000", "400")
	if summary.Month != 3 {
		t.Errorf("expected month 3, got %d", summary.Month)
	}

	profile := testutil.CreateTestProfile(t, db, user.ID)
	if profile.VehicleDeductionMethod != models.DeductionMethodPerKm {
		t.Errorf("expected per_km method, got %s", profile.VehicleDeductionMethod)
	}

	settings := testutil.CreateTestTaxSettings(t, db, user.ID, "ON")
	if settings.Province != "ON" {
		t.Errorf("expected province ON, got %s", settings.Province)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrRuleNotFound, "custom message")
	testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
