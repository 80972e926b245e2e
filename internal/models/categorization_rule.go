package models

// RuleMatchType determines how a rule's pattern is tested against a
// lowercased transaction description.
type RuleMatchType string

const (
	MatchTypeContains RuleMatchType = "contains"
	MatchTypeEquals   RuleMatchType = "equals"
)

// RuleType determines the effect a matching rule applies to a transaction.
type RuleType string

const (
	RuleTypeBusinessIncome  RuleType = "business_income"
	RuleTypeBusinessExpense RuleType = "business_expense"
	RuleTypePersonalExpense RuleType = "personal_expense"
)

// CategorizationRule is a user-defined description pattern that assigns a
// business/personal/income classification to matching transactions. Priority
// is an explicit ordering: lower values are evaluated first and the first
// matching rule wins.
type CategorizationRule struct {
	Base
	UserID      string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Priority    int           `gorm:"not null" json:"priority"`
	MatchType   RuleMatchType `gorm:"not null" json:"match_type"`
	MatchText   string        `gorm:"size:100;not null" json:"match_text"`
	Type        RuleType      `gorm:"not null" json:"type"`
	Category    string        `gorm:"not null" json:"category"`
	Subcategory string        `json:"subcategory,omitempty"`
}
