package services

import "helixtax/internal/models"

// ruleEffect is the typed effect a matching rule applies to a transaction.
// Each variant carries only the fields valid for its rule type, so invalid
// combinations cannot be constructed.
type ruleEffect interface {
	// updates returns the column updates to persist for the transaction.
	updates(t *models.Transaction) map[string]interface{}
}

type businessExpenseEffect struct {
	category    string
	subcategory string
}

func (e businessExpenseEffect) updates(_ *models.Transaction) map[string]interface{} {
	u := map[string]interface{}{
		"expense_type":     models.ExpenseTypeBusiness,
		"expense_category": e.category,
	}
	if e.subcategory != "" {
		u["expense_subcategory"] = e.subcategory
	}
	return u
}

type personalExpenseEffect struct {
	category    string
	subcategory string
}

func (e personalExpenseEffect) updates(_ *models.Transaction) map[string]interface{} {
	u := map[string]interface{}{
		"expense_type":     models.ExpenseTypePersonal,
		"expense_category": e.category,
	}
	if e.subcategory != "" {
		u["expense_subcategory"] = e.subcategory
	}
	return u
}

type businessIncomeEffect struct {
	source string
}

func (e businessIncomeEffect) updates(t *models.Transaction) map[string]interface{} {
	u := map[string]interface{}{
		"income_source": e.source,
	}
	// A manual override always wins over rule application.
	if t.CategoryOverride == "" {
		u["category_override"] = models.OverrideBusinessIncome
	}
	return u
}

// effectForRule maps a rule to its typed effect.
func effectForRule(rule models.CategorizationRule) ruleEffect {
	switch rule.Type {
	case models.RuleTypeBusinessExpense:
		return businessExpenseEffect{category: rule.Category, subcategory: rule.Subcategory}
	case models.RuleTypePersonalExpense:
		return personalExpenseEffect{category: rule.Category, subcategory: rule.Subcategory}
	case models.RuleTypeBusinessIncome:
		return businessIncomeEffect{source: rule.Category}
	default:
		return nil
	}
}
