package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
)

var hundred = decimal.NewFromInt(100)

// deductionService merges vehicle, parking, home-office, and direct business
// expenses into one categorized total.
type deductionService struct {
	db             *gorm.DB
	vehicleService VehicleServicer
	profileService ProfileServicer
}

// NewDeductionService creates a new DeductionServicer.
func NewDeductionService(db *gorm.DB, vehicleService VehicleServicer, profileService ProfileServicer) DeductionServicer {
	return &deductionService{
		db:             db,
		vehicleService: vehicleService,
		profileService: profileService,
	}
}

// GetCategorizedDeductions computes the four non-overlapping deduction
// buckets for a year. Direct business expenses exclude the Auto Expense,
// Parking, and Shared Business categories, which are owned by the other
// three buckets.
func (s *deductionService) GetCategorizedDeductions(userID string, year int) (*CategorizedDeductions, error) {
	profile, err := s.profileService.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	business, err := s.sumBucket(userID, year, func(q *gorm.DB) *gorm.DB {
		return q.Where("expense_type = ?", models.ExpenseTypeBusiness).
			Where("expense_category NOT IN ?", []string{
				models.CategoryAutoExpense,
				models.CategoryParking,
				models.CategorySharedBusiness,
			})
	})
	if err != nil {
		return nil, err
	}

	parking, err := s.sumBucket(userID, year, func(q *gorm.DB) *gorm.DB {
		return q.Where("expense_category = ?", models.CategoryParking).
			Where("expense_type <> ?", models.ExpenseTypeInternalTransfer)
	})
	if err != nil {
		return nil, err
	}

	shared, err := s.sumBucket(userID, year, func(q *gorm.DB) *gorm.DB {
		return q.Where("expense_category = ?", models.CategorySharedBusiness).
			Where("expense_type <> ?", models.ExpenseTypeInternalTransfer)
	})
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleService.CalculateDeduction(userID, year)
	if err != nil {
		return nil, err
	}

	homeOfficePct := clampRatio(profile.HomeOfficePercentage.Div(hundred)).Mul(hundred)
	homeOfficeAmount := shared.Mul(homeOfficePct).Div(hundred).Round(2)

	autoPct := hundred
	if vehicle.DeductionType == models.DeductionMethodActualExpense {
		autoPct = vehicle.BusinessUseRatio.Mul(hundred).Round(2)
	}

	result := &CategorizedDeductions{
		Year:       year,
		Business:   DeductionBucket{Amount: business, DeductiblePercent: hundred},
		Parking:    DeductionBucket{Amount: parking, DeductiblePercent: hundred},
		Auto:       DeductionBucket{Amount: vehicle.DeductionAmount, DeductiblePercent: autoPct},
		HomeOffice: DeductionBucket{Amount: homeOfficeAmount, DeductiblePercent: homeOfficePct},
	}
	result.TotalDeductions = result.Business.Amount.
		Add(result.Parking.Amount).
		Add(result.Auto.Amount).
		Add(result.HomeOffice.Amount)
	return result, nil
}

// sumBucket totals |amount| over the year's transactions matching the scope.
func (s *deductionService) sumBucket(userID string, year int, scope func(*gorm.DB) *gorm.DB) (decimal.Decimal, error) {
	start, end := yearBounds(year)
	var total decimal.Decimal
	q := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end)
	err := scope(q).
		Select("COALESCE(SUM(ABS(amount)), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}
