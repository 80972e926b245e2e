package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleLog is one business trip under the per-trip tracking mode.
type VehicleLog struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	DistanceKm decimal.Decimal `gorm:"type:decimal(10,1);not null" json:"distance_km"`
	FromPlace  string          `json:"from_place,omitempty"`
	ToPlace    string          `json:"to_place,omitempty"`
	Purpose    string          `json:"purpose,omitempty"`
}

// MonthlyVehicleSummary is one calendar month's odometer totals under the
// monthly tracking mode. BusinessKm never exceeds TotalKm.
type MonthlyVehicleSummary struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_summary_user_month" json:"user_id"`
	Year       int             `gorm:"not null;uniqueIndex:idx_summary_user_month" json:"year"`
	Month      int             `gorm:"not null;uniqueIndex:idx_summary_user_month" json:"month"`
	TotalKm    decimal.Decimal `gorm:"type:decimal(10,1);not null" json:"total_km"`
	BusinessKm decimal.Decimal `gorm:"type:decimal(10,1);not null" json:"business_km"`
	Note       string          `json:"note,omitempty"`
}
