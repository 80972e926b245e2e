package services

import (
	"fmt"
	"testing"
	"time"

	"helixtax/internal/models"
	"helixtax/internal/testutil"
)

func TestCreateRule(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		rule, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "uber",
			Type:      models.RuleTypeBusinessIncome,
			Category:  "Rideshare",
		})
		testutil.AssertNoError(t, err)

		if rule.ID == "" {
			t.Fatal("expected rule ID")
		}
		if rule.Priority != 1 {
			t.Errorf("expected priority 1, got %d", rule.Priority)
		}
	})

	t.Run("appends_at_end_of_list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "shell",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertNoError(t, err)

		second, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "netflix",
			Type:      models.RuleTypePersonalExpense,
			Category:  "Entertainment",
		})
		testutil.AssertNoError(t, err)

		if first.Priority != 1 || second.Priority != 2 {
			t.Errorf("expected priorities 1 and 2, got %d and %d", first.Priority, second.Priority)
		}
	})

	t.Run("match_text_too_short", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "u",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})

	t.Run("invalid_match_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: "regex",
			MatchText: "uber",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})

	t.Run("invalid_rule_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "uber",
			Type:      "mystery",
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})

	t.Run("empty_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "uber",
			Type:      models.RuleTypeBusinessExpense,
			Category:  "  ",
		})
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})

	t.Run("malformed_pattern", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateRule(user.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "ube[r",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})
}

func TestUpdateRule(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)
		rule := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "Fuel")

		updated, err := svc.UpdateRule(user.ID, rule.ID, RuleInput{
			MatchType: models.MatchTypeEquals,
			MatchText: "shell gas station",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertNoError(t, err)

		var stored models.CategorizationRule
		db.First(&stored, "id = ?", updated.ID)
		if stored.MatchType != models.MatchTypeEquals {
			t.Errorf("expected match type equals, got %s", stored.MatchType)
		}
		if stored.Priority != 1 {
			t.Errorf("update must not change priority, got %d", stored.Priority)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		rule := testutil.CreateTestRule(t, db, user1.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")

		_, err := svc.UpdateRule(user2.ID, rule.ID, RuleInput{
			MatchType: models.MatchTypeContains,
			MatchText: "shell",
			Type:      models.RuleTypeBusinessExpense,
			Category:  models.CategoryAutoExpense,
		})
		testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
	})
}

func TestDeleteRule(t *testing.T) {
	t.Run("soft_deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)
		rule := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")

		err := svc.DeleteRule(user.ID, rule.ID)
		testutil.AssertNoError(t, err)

		rules, err := svc.GetUserRules(user.ID)
		testutil.AssertNoError(t, err)
		if len(rules) != 0 {
			t.Errorf("expected no rules after delete, got %d", len(rules))
		}

		var count int64
		db.Unscoped().Model(&models.CategorizationRule{}).Where("id = ?", rule.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected soft-deleted record to exist in DB, got count %d", count)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteRule(user.ID, "nonexistent")
		testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
	})
}

func TestReorderRules(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		a := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		b := testutil.CreateTestRule(t, db, user.ID, 2, models.MatchTypeContains, "uber", models.RuleTypeBusinessIncome, "Rideshare", "")
		c := testutil.CreateTestRule(t, db, user.ID, 3, models.MatchTypeContains, "netflix", models.RuleTypePersonalExpense, "Entertainment", "")

		err := svc.ReorderRules(user.ID, []string{c.ID, a.ID, b.ID})
		testutil.AssertNoError(t, err)

		rules, err := svc.GetUserRules(user.ID)
		testutil.AssertNoError(t, err)
		if len(rules) != 3 {
			t.Fatalf("expected 3 rules, got %d", len(rules))
		}
		if rules[0].ID != c.ID || rules[1].ID != a.ID || rules[2].ID != b.ID {
			t.Errorf("unexpected order: %s, %s, %s", rules[0].MatchText, rules[1].MatchText, rules[2].MatchText)
		}
		for i, rule := range rules {
			if rule.Priority != i+1 {
				t.Errorf("expected priority %d at position %d, got %d", i+1, i, rule.Priority)
			}
		}
	})

	t.Run("missing_rule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		a := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		testutil.CreateTestRule(t, db, user.ID, 2, models.MatchTypeContains, "uber", models.RuleTypeBusinessIncome, "Rideshare", "")

		err := svc.ReorderRules(user.ID, []string{a.ID})
		testutil.AssertAppError(t, err, "RULE_ORDER_MISMATCH")
	})

	t.Run("duplicate_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		a := testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		testutil.CreateTestRule(t, db, user.ID, 2, models.MatchTypeContains, "uber", models.RuleTypeBusinessIncome, "Rideshare", "")

		err := svc.ReorderRules(user.ID, []string{a.ID, a.ID})
		testutil.AssertAppError(t, err, "RULE_ORDER_MISMATCH")
	})

	t.Run("foreign_rule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		a := testutil.CreateTestRule(t, db, user1.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		other := testutil.CreateTestRule(t, db, user2.ID, 1, models.MatchTypeContains, "uber", models.RuleTypeBusinessIncome, "Rideshare", "")
		testutil.CreateTestRule(t, db, user1.ID, 2, models.MatchTypeContains, "netflix", models.RuleTypePersonalExpense, "Entertainment", "")

		err := svc.ReorderRules(user1.ID, []string{a.ID, other.ID})
		testutil.AssertAppError(t, err, "RULE_ORDER_MISMATCH")
	})
}

func TestApplyRules(t *testing.T) {
	asOf := testutil.Date(2024, time.November, 15)

	t.Run("first_match_wins_by_priority", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		// Both rules match "AMEX PARKING LOT 7"; the parking rule has the
		// lower priority number and must win.
		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "parking", models.RuleTypeBusinessExpense, models.CategoryParking, models.SubcategoryParking)
		testutil.CreateTestRule(t, db, user.ID, 2, models.MatchTypeContains, "amex", models.RuleTypePersonalExpense, "Credit Card", "")

		tx := testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "45.50", models.DirectionDebit, "AMEX PARKING LOT 7")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)

		if result.Matched != 1 || result.Updated != 1 {
			t.Fatalf("expected matched=1 updated=1, got matched=%d updated=%d", result.Matched, result.Updated)
		}

		var stored models.Transaction
		db.First(&stored, "id = ?", tx.ID)
		if stored.ExpenseType != models.ExpenseTypeBusiness {
			t.Errorf("expected business expense type, got %s", stored.ExpenseType)
		}
		if stored.ExpenseCategory != models.CategoryParking {
			t.Errorf("expected Parking category, got %s", stored.ExpenseCategory)
		}
		if stored.ExpenseSubcategory != models.SubcategoryParking {
			t.Errorf("expected Parking subcategory, got %s", stored.ExpenseSubcategory)
		}
	})

	t.Run("matching_is_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "UBER", models.RuleTypeBusinessIncome, "Rideshare", "")
		tx := testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "120.00", models.DirectionCredit, "uber weekly payout")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Updated != 1 {
			t.Fatalf("expected 1 update, got %d", result.Updated)
		}

		var stored models.Transaction
		db.First(&stored, "id = ?", tx.ID)
		if stored.IncomeSource != "Rideshare" {
			t.Errorf("expected income source Rideshare, got %s", stored.IncomeSource)
		}
		if stored.CategoryOverride != models.OverrideBusinessIncome {
			t.Errorf("expected business_income override, got %s", stored.CategoryOverride)
		}
	})

	t.Run("equals_requires_full_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeEquals, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "60.00", models.DirectionDebit, "SHELL STATION 42")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != 0 {
			t.Errorf("expected no match for partial description under equals, got %d", result.Matched)
		}
	})

	t.Run("skips_manual_override", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "transfer", models.RuleTypePersonalExpense, "Misc", "")
		tx := testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "500.00", models.DirectionDebit, "TRANSFER TO SAVINGS")
		testutil.MarkTestIncome(t, db, tx, models.OverrideInternalTransfer, "")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != 0 {
			t.Errorf("expected overridden transaction to be skipped, got matched=%d", result.Matched)
		}
	})

	t.Run("skips_already_categorized", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		tx := testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "60.00", models.DirectionDebit, "SHELL STATION 42")
		testutil.CategorizeTestTransaction(t, db, tx, models.ExpenseTypePersonal, "Fuel", "")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != 0 {
			t.Errorf("expected categorized transaction to be skipped, got matched=%d", result.Matched)
		}
	})

	t.Run("respects_lookback_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		testutil.CreateTestTransaction(t, db, user.ID, asOf.AddDate(0, 0, -40), "60.00", models.DirectionDebit, "SHELL STATION 42")
		testutil.CreateTestTransaction(t, db, user.ID, asOf.AddDate(0, 0, -10), "55.00", models.DirectionDebit, "SHELL STATION 42")

		result, err := svc.ApplyRules(user.ID, 30, asOf)
		testutil.AssertNoError(t, err)
		if result.Updated != 1 {
			t.Errorf("expected only the in-window transaction to update, got %d", result.Updated)
		}
	})

	t.Run("reapplication_is_a_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "60.00", models.DirectionDebit, "SHELL STATION 42")

		first, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if first.Updated != 1 {
			t.Fatalf("expected 1 update on first application, got %d", first.Updated)
		}

		second, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if second.Matched != 0 || second.Updated != 0 {
			t.Errorf("expected second application to be a no-op, got matched=%d updated=%d", second.Matched, second.Updated)
		}
	})

	t.Run("covers_every_batch_in_the_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")

		// More eligible transactions than one batch holds, inserted so the
		// latest-dated rows get the smallest ids. Insertion order and date
		// order disagreeing must not cost any row its categorization.
		total := applyBatchSize + 10
		for i := 0; i < 10; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, asOf.AddDate(0, 0, -(i+1)), "60.00", models.DirectionDebit, fmt.Sprintf("SHELL STATION %d", i))
		}
		for i := 10; i < total; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, asOf.AddDate(0, 0, -(i+30)), "60.00", models.DirectionDebit, fmt.Sprintf("SHELL STATION %d", i))
		}

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != total || result.Updated != total {
			t.Fatalf("expected matched=%d updated=%d, got matched=%d updated=%d",
				total, total, result.Matched, result.Updated)
		}

		var remaining int64
		db.Model(&models.Transaction{}).
			Where("user_id = ? AND expense_category = ''", user.ID).
			Count(&remaining)
		if remaining != 0 {
			t.Errorf("expected every transaction categorized, %d left untouched", remaining)
		}
	})

	t.Run("no_rules", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransaction(t, db, user.ID, testutil.Date(2024, time.October, 3), "60.00", models.DirectionDebit, "SHELL STATION 42")

		result, err := svc.ApplyRules(user.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != 0 || result.Updated != 0 {
			t.Errorf("expected zero result with no rules, got matched=%d updated=%d", result.Matched, result.Updated)
		}
	})

	t.Run("isolated_per_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRuleService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		testutil.CreateTestRule(t, db, user1.ID, 1, models.MatchTypeContains, "shell", models.RuleTypeBusinessExpense, models.CategoryAutoExpense, "")
		other := testutil.CreateTestTransaction(t, db, user2.ID, testutil.Date(2024, time.October, 3), "60.00", models.DirectionDebit, "SHELL STATION 42")

		result, err := svc.ApplyRules(user1.ID, 0, asOf)
		testutil.AssertNoError(t, err)
		if result.Matched != 0 {
			t.Errorf("expected no matches against another user's transactions, got %d", result.Matched)
		}

		var stored models.Transaction
		db.First(&stored, "id = ?", other.ID)
		if stored.ExpenseCategory != "" {
			t.Errorf("other user's transaction must be untouched, got category %s", stored.ExpenseCategory)
		}
	})
}
