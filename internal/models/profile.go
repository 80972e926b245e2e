package models

import "github.com/shopspring/decimal"

// VehicleTrackingMode selects which table business kilometres come from.
type VehicleTrackingMode string

const (
	TrackingModeTrip    VehicleTrackingMode = "trip"
	TrackingModeMonthly VehicleTrackingMode = "monthly"
)

// VehicleDeductionMethod selects how the vehicle deduction is computed.
type VehicleDeductionMethod string

const (
	DeductionMethodPerKm         VehicleDeductionMethod = "per_km"
	DeductionMethodActualExpense VehicleDeductionMethod = "actual_expense"
)

// Profile holds a user's vehicle and home-office settings. Both vehicle
// tables may hold data at once; the tracking mode decides which one counts.
type Profile struct {
	Base
	UserID                 string                 `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	VehicleTrackingMode    VehicleTrackingMode    `gorm:"default:trip" json:"vehicle_tracking_mode"`
	VehicleDeductionMethod VehicleDeductionMethod `gorm:"default:per_km" json:"vehicle_deduction_method"`
	PerKmRate              decimal.Decimal        `gorm:"type:decimal(6,4);default:0.68" json:"per_km_rate"`
	StartOfYearMileage     decimal.Decimal        `gorm:"type:decimal(10,1)" json:"start_of_year_mileage"`
	CurrentMileage         decimal.Decimal        `gorm:"type:decimal(10,1)" json:"current_mileage"`
	HomeOfficePercentage   decimal.Decimal        `gorm:"type:decimal(5,2)" json:"home_office_percentage"`
}
