package services

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/logger"
	"helixtax/internal/models"
)

const (
	// applyBatchSize bounds the unit of work per database round trip so a
	// retroactive application stays inside a request-timeout budget. Batches
	// run sequentially; there is no isolation requirement between them.
	applyBatchSize = 50

	// defaultLookbackDays is the trailing window of transactions eligible
	// for retroactive rule application.
	defaultLookbackDays = 365

	ruleMatchTextMinLen = 2
	ruleMatchTextMaxLen = 100
)

// ruleService handles categorization rule management and batch application.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// validateRuleInput enforces the rule invariants before anything is persisted.
// MatchText must compile as a regular expression even though matching is plain
// substring/equality: it rejects injection-style patterns up front, and Go's
// RE2 engine guarantees no catastrophic backtracking for anything accepted.
func validateRuleInput(input RuleInput) error {
	if len(input.MatchText) < ruleMatchTextMinLen || len(input.MatchText) > ruleMatchTextMaxLen {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "match text must be between 2 and 100 characters")
	}
	if input.MatchType != models.MatchTypeContains && input.MatchType != models.MatchTypeEquals {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "match type must be contains or equals")
	}
	switch input.Type {
	case models.RuleTypeBusinessIncome, models.RuleTypeBusinessExpense, models.RuleTypePersonalExpense:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "rule type must be business_income, business_expense, or personal_expense")
	}
	if strings.TrimSpace(input.Category) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "category is required")
	}
	if _, err := regexp.Compile(input.MatchText); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "match text is not a valid pattern")
	}
	return nil
}

// CreateRule validates and persists a new rule at the end of the user's list.
func (s *ruleService) CreateRule(userID string, input RuleInput) (*models.CategorizationRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	var maxPriority int
	err := s.db.Model(&models.CategorizationRule{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(priority), 0)").
		Scan(&maxPriority).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rule := &models.CategorizationRule{
		UserID:      userID,
		Priority:    maxPriority + 1,
		MatchType:   input.MatchType,
		MatchText:   input.MatchText,
		Type:        input.Type,
		Category:    input.Category,
		Subcategory: input.Subcategory,
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// GetUserRules returns the user's rules in evaluation order.
func (s *ruleService) GetUserRules(userID string) ([]models.CategorizationRule, error) {
	var rules []models.CategorizationRule
	if err := s.db.Where("user_id = ?", userID).Order("priority ASC").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// getRuleByID returns a rule if it belongs to the user.
func (s *ruleService) getRuleByID(userID, ruleID string) (*models.CategorizationRule, error) {
	var rule models.CategorizationRule
	if err := s.db.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule validates and replaces a rule's user-editable fields. Priority is
// only changed through ReorderRules.
func (s *ruleService) UpdateRule(userID, ruleID string, input RuleInput) (*models.CategorizationRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	rule, err := s.getRuleByID(userID, ruleID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"match_type":  input.MatchType,
		"match_text":  input.MatchText,
		"type":        input.Type,
		"category":    input.Category,
		"subcategory": input.Subcategory,
	}
	if err := s.db.Model(rule).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// DeleteRule soft-deletes a rule. Existing categorizations are left in place.
func (s *ruleService) DeleteRule(userID, ruleID string) error {
	rule, err := s.getRuleByID(userID, ruleID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ReorderRules rewrites rule priorities to match the given ID order. The
// request must name every rule of the user exactly once so a reorder is an
// intentional, complete operation rather than an accidental list mutation.
func (s *ruleService) ReorderRules(userID string, orderedIDs []string) error {
	rules, err := s.GetUserRules(userID)
	if err != nil {
		return err
	}

	if len(orderedIDs) != len(rules) {
		return apperrors.ErrRuleOrderMismatch
	}
	existing := make(map[string]bool, len(rules))
	for _, r := range rules {
		existing[r.ID] = true
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !existing[id] || seen[id] {
			return apperrors.ErrRuleOrderMismatch
		}
		seen[id] = true
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&models.CategorizationRule{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("priority", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyRules retroactively applies the user's rules to eligible transactions
// within the lookback window ending at asOf. Eligible means: no manual
// override, not yet categorized, and a non-empty description. Transactions
// are processed in fixed-size batches; rules are tested in priority order and
// the first match wins. A failed per-transaction persist is logged and
// skipped, so Matched and Updated can diverge.
func (s *ruleService) ApplyRules(userID string, lookbackDays int, asOf time.Time) (*ApplyRulesResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	rules, err := s.GetUserRules(userID)
	if err != nil {
		return nil, err
	}

	result := &ApplyRulesResult{}
	if len(rules) == 0 {
		return result, nil
	}

	windowStart := asOf.AddDate(0, 0, -lookbackDays)
	log := logger.Get()

	var batch []models.Transaction
	err = s.db.
		Where("user_id = ?", userID).
		Where("date >= ? AND date <= ?", windowStart, asOf).
		Where("category_override = ''").
		Where("expense_category = '' AND expense_subcategory = '' AND income_source = ''").
		Where("description <> ''").
		// FindInBatches pages by primary key, so no custom ordering here:
		// an ORDER BY on another column makes the keyset cursor skip rows.
		FindInBatches(&batch, applyBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				t := &batch[i]
				rule, ok := firstMatch(rules, t.Description)
				if !ok {
					continue
				}
				effect := effectForRule(rule)
				if effect == nil {
					continue
				}
				result.Matched++

				if err := s.db.Model(&models.Transaction{}).
					Where("id = ?", t.ID).
					Updates(effect.updates(t)).Error; err != nil {
					// Fail soft: one transaction's persistence failure must
					// not halt the batch. The skip shows up as Matched >
					// Updated for the caller to surface.
					log.Warnw("rule application persist failed",
						"transaction_id", t.ID,
						"rule_id", rule.ID,
						"error", err.Error(),
					)
					continue
				}
				result.Updated++
			}
			return nil
		}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// firstMatch tests rules in priority order against the lowercased description
// and returns the first that matches.
func firstMatch(rules []models.CategorizationRule, description string) (models.CategorizationRule, bool) {
	desc := strings.ToLower(description)
	for _, rule := range rules {
		pattern := strings.ToLower(rule.MatchText)
		switch rule.MatchType {
		case models.MatchTypeContains:
			if strings.Contains(desc, pattern) {
				return rule, true
			}
		case models.MatchTypeEquals:
			if desc == pattern {
				return rule, true
			}
		}
	}
	return models.CategorizationRule{}, false
}
