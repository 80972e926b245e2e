package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether money moved into or out of the account.
type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "credit"
	DirectionDebit  TransactionDirection = "debit"
)

// ExpenseType classifies a categorized transaction.
type ExpenseType string

const (
	ExpenseTypeBusiness         ExpenseType = "business"
	ExpenseTypePersonal         ExpenseType = "personal"
	ExpenseTypeInternalTransfer ExpenseType = "internal_transfer"
)

// CategoryOverride values a user (or income rule) can pin on a transaction.
// An override blocks all future rule application for that transaction.
type CategoryOverride string

const (
	OverrideBusinessIncome   CategoryOverride = "business_income"
	OverrideOtherIncome      CategoryOverride = "other_income"
	OverrideInternalTransfer CategoryOverride = "Internal Transfer"
)

// Well-known expense categories with special deduction treatment.
const (
	CategoryAutoExpense    = "Auto Expense"
	CategoryParking        = "Parking"
	CategorySharedBusiness = "Shared Business"

	SubcategoryParking = "Parking"
)

// Transaction represents a single bank or card movement. Amounts are stored as
// positive magnitudes; Direction carries the sign. Transactions are created by
// ingestion or manual entry and are only ever mutated through categorization.
type Transaction struct {
	Base
	UserID             string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Date               time.Time            `gorm:"not null;index" json:"date"`
	Amount             decimal.Decimal      `gorm:"type:decimal(14,2);not null" json:"amount"`
	Direction          TransactionDirection `gorm:"not null" json:"direction"`
	Description        string               `json:"description"`
	ExpenseType        ExpenseType          `json:"expense_type,omitempty"`
	ExpenseCategory    string               `json:"expense_category,omitempty"`
	ExpenseSubcategory string               `json:"expense_subcategory,omitempty"`
	CategoryOverride   CategoryOverride     `json:"category_override,omitempty"`
	IncomeSource       string               `json:"income_source,omitempty"`
}

// IsCategorized reports whether any categorization field has been set, either
// by a rule or by a manual edit.
func (t *Transaction) IsCategorized() bool {
	return t.ExpenseCategory != "" || t.ExpenseSubcategory != "" || t.IncomeSource != ""
}
