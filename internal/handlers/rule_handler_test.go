package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/services"
)

type mockRuleService struct {
	createRuleFn   func(userID string, input services.RuleInput) (*models.CategorizationRule, error)
	getUserRulesFn func(userID string) ([]models.CategorizationRule, error)
	updateRuleFn   func(userID, ruleID string, input services.RuleInput) (*models.CategorizationRule, error)
	deleteRuleFn   func(userID, ruleID string) error
	reorderRulesFn func(userID string, orderedIDs []string) error
	applyRulesFn   func(userID string, lookbackDays int, asOf time.Time) (*services.ApplyRulesResult, error)
}

func (m *mockRuleService) CreateRule(userID string, input services.RuleInput) (*models.CategorizationRule, error) {
	if m.createRuleFn != nil {
		return m.createRuleFn(userID, input)
	}
	return &models.CategorizationRule{}, nil
}

func (m *mockRuleService) GetUserRules(userID string) ([]models.CategorizationRule, error) {
	if m.getUserRulesFn != nil {
		return m.getUserRulesFn(userID)
	}
	return nil, nil
}

func (m *mockRuleService) UpdateRule(userID, ruleID string, input services.RuleInput) (*models.CategorizationRule, error) {
	if m.updateRuleFn != nil {
		return m.updateRuleFn(userID, ruleID, input)
	}
	return &models.CategorizationRule{}, nil
}

func (m *mockRuleService) DeleteRule(userID, ruleID string) error {
	if m.deleteRuleFn != nil {
		return m.deleteRuleFn(userID, ruleID)
	}
	return nil
}

func (m *mockRuleService) ReorderRules(userID string, orderedIDs []string) error {
	if m.reorderRulesFn != nil {
		return m.reorderRulesFn(userID, orderedIDs)
	}
	return nil
}

func (m *mockRuleService) ApplyRules(userID string, lookbackDays int, asOf time.Time) (*services.ApplyRulesResult, error) {
	if m.applyRulesFn != nil {
		return m.applyRulesFn(userID, lookbackDays, asOf)
	}
	return &services.ApplyRulesResult{}, nil
}

func setupRuleRouter(handler *RuleHandler) *gin.Engine {
	r := gin.New()
	authed := r.Group("/", injectUserID(testUserID))
	authed.POST("/rules", handler.CreateRule)
	authed.GET("/rules", handler.ListRules)
	authed.PUT("/rules/reorder", handler.ReorderRules)
	authed.PUT("/rules/:id", handler.UpdateRule)
	authed.DELETE("/rules/:id", handler.DeleteRule)
	authed.POST("/rules/apply", handler.ApplyRules)
	return r
}

func TestRuleHandler_CreateRule(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		ruleSvc := &mockRuleService{
			createRuleFn: func(userID string, input services.RuleInput) (*models.CategorizationRule, error) {
				return &models.CategorizationRule{
					UserID:    userID,
					Priority:  1,
					MatchType: input.MatchType,
					MatchText: input.MatchText,
					Type:      input.Type,
					Category:  input.Category,
				}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "POST", "/rules",
			`{"match_type":"contains","match_text":"uber","type":"business_expense","category":"Travel"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		rule := parseJSON(t, rec)["rule"].(map[string]interface{})
		if rule["match_text"] != "uber" {
			t.Errorf("expected match_text uber, got %v", rule["match_text"])
		}
	})

	t.Run("returns 400 on unknown match type", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules",
			`{"match_type":"regex","match_text":"uber","type":"business_expense","category":"Travel"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on single character match text", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules",
			`{"match_type":"contains","match_text":"u","type":"business_expense","category":"Travel"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing category", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules",
			`{"match_type":"contains","match_text":"uber","type":"business_expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRuleHandler_UpdateRule(t *testing.T) {
	t.Run("returns 404 on unknown rule", func(t *testing.T) {
		ruleSvc := &mockRuleService{
			updateRuleFn: func(_, _ string, _ services.RuleInput) (*models.CategorizationRule, error) {
				return nil, apperrors.ErrRuleNotFound
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "PUT", "/rules/missing-id",
			`{"match_type":"contains","match_text":"uber","type":"business_expense","category":"Travel"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RULE_NOT_FOUND")
	})

	t.Run("passes path id to the service", func(t *testing.T) {
		var gotID string
		ruleSvc := &mockRuleService{
			updateRuleFn: func(_, ruleID string, input services.RuleInput) (*models.CategorizationRule, error) {
				gotID = ruleID
				return &models.CategorizationRule{MatchText: input.MatchText}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "PUT", "/rules/rule-42",
			`{"match_type":"equals","match_text":"AMEX PARKING","type":"business_expense","category":"Parking"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "rule-42" {
			t.Errorf("expected rule-42, got %q", gotID)
		}
	})
}

func TestRuleHandler_DeleteRule(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "DELETE", "/rules/rule-1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on unknown rule", func(t *testing.T) {
		ruleSvc := &mockRuleService{
			deleteRuleFn: func(_, _ string) error { return apperrors.ErrRuleNotFound },
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "DELETE", "/rules/missing-id", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestRuleHandler_ReorderRules(t *testing.T) {
	t.Run("returns the rules in new order", func(t *testing.T) {
		var gotOrder []string
		ruleSvc := &mockRuleService{
			reorderRulesFn: func(_ string, orderedIDs []string) error {
				gotOrder = orderedIDs
				return nil
			},
			getUserRulesFn: func(_ string) ([]models.CategorizationRule, error) {
				return []models.CategorizationRule{{Priority: 1}, {Priority: 2}}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "PUT", "/rules/reorder", `{"ordered_ids":["b","a"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotOrder) != 2 || gotOrder[0] != "b" || gotOrder[1] != "a" {
			t.Errorf("expected [b a], got %v", gotOrder)
		}
	})

	t.Run("returns 400 on incomplete order", func(t *testing.T) {
		ruleSvc := &mockRuleService{
			reorderRulesFn: func(_ string, _ []string) error { return apperrors.ErrRuleOrderMismatch },
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "PUT", "/rules/reorder", `{"ordered_ids":["a"]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on empty list", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "PUT", "/rules/reorder", `{"ordered_ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRuleHandler_ApplyRules(t *testing.T) {
	t.Run("returns match and update counts", func(t *testing.T) {
		ruleSvc := &mockRuleService{
			applyRulesFn: func(_ string, _ int, _ time.Time) (*services.ApplyRulesResult, error) {
				return &services.ApplyRulesResult{Matched: 7, Updated: 6}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "POST", "/rules/apply", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["matched"] != float64(7) {
			t.Errorf("expected matched 7, got %v", result["matched"])
		}
		if result["updated"] != float64(6) {
			t.Errorf("expected updated 6, got %v", result["updated"])
		}
	})

	t.Run("passes lookback and as_of to the service", func(t *testing.T) {
		var gotLookback int
		var gotAsOf time.Time
		ruleSvc := &mockRuleService{
			applyRulesFn: func(_ string, lookbackDays int, asOf time.Time) (*services.ApplyRulesResult, error) {
				gotLookback = lookbackDays
				gotAsOf = asOf
				return &services.ApplyRulesResult{}, nil
			},
		}
		r := setupRuleRouter(NewRuleHandler(ruleSvc))

		rec := doRequest(r, "POST", "/rules/apply", `{"lookback_days":30,"as_of":"2024-06-15"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotLookback != 30 {
			t.Errorf("expected lookback 30, got %d", gotLookback)
		}
		if gotAsOf.Format("2006-01-02") != "2024-06-15" {
			t.Errorf("expected as_of 2024-06-15, got %v", gotAsOf)
		}
	})

	t.Run("returns 400 on malformed as_of", func(t *testing.T) {
		r := setupRuleRouter(NewRuleHandler(&mockRuleService{}))

		rec := doRequest(r, "POST", "/rules/apply", `{"as_of":"June 15"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
