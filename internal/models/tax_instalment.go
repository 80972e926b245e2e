package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstalmentDetectionMethod records how an instalment payment was identified.
type InstalmentDetectionMethod string

const (
	// InstalmentDetectedAuto means the payment matched a CRA payee near a
	// quarterly due date. Higher confidence than estimated.
	InstalmentDetectedAuto InstalmentDetectionMethod = "auto"
	// InstalmentDetectedEstimated means the payment only matched the loose
	// keyword heuristic.
	InstalmentDetectedEstimated InstalmentDetectionMethod = "estimated"
	// InstalmentDetectedManual means the user recorded it themselves.
	InstalmentDetectedManual InstalmentDetectionMethod = "manual"
)

// TaxInstalment is a detected or recorded quarterly income tax prepayment.
// (UserID, Amount, Date) is the best-effort deduplication tuple used before
// insertion; it is not enforced as a database constraint.
type TaxInstalment struct {
	Base
	UserID string                    `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount decimal.Decimal           `gorm:"type:decimal(14,2);not null" json:"amount"`
	Date   time.Time                 `gorm:"not null" json:"date"`
	Method InstalmentDetectionMethod `gorm:"not null" json:"method"`
}
