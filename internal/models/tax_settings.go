package models

import "github.com/shopspring/decimal"

// InstalmentMethod selects how quarterly tax instalments are estimated.
type InstalmentMethod string

const (
	InstalmentMethodSafeHarbour InstalmentMethod = "safe_harbour"
	InstalmentMethodEstimate    InstalmentMethod = "estimate"
	InstalmentMethodNotRequired InstalmentMethod = "not_required"
)

// TaxSettings holds a user's jurisdiction, credits, and instalment preferences.
type TaxSettings struct {
	Base
	UserID                      string           `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Province                    string           `gorm:"size:2;default:ON" json:"province"`
	PersonalTaxCreditAmount     decimal.Decimal  `gorm:"type:decimal(14,2)" json:"personal_tax_credit_amount"`
	OtherCredits                decimal.Decimal  `gorm:"type:decimal(14,2)" json:"other_credits"`
	InstalmentMethod            InstalmentMethod `gorm:"default:not_required" json:"instalment_method"`
	SafeHarbourTotalTaxLastYear decimal.Decimal  `gorm:"type:decimal(14,2)" json:"safe_harbour_total_tax_last_year"`
}
