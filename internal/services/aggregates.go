package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
)

// sumIncome totals credit transactions marked as income within [from, to).
// Amounts are summed as magnitudes regardless of stored sign.
func sumIncome(db *gorm.DB, userID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Where("direction = ?", models.DirectionCredit).
		Where("category_override IN ?", []models.CategoryOverride{models.OverrideBusinessIncome, models.OverrideOtherIncome}).
		Select("COALESCE(SUM(ABS(amount)), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// sumBusinessIncome totals only credits flagged as business income within
// [from, to). Other income is excluded.
func sumBusinessIncome(db *gorm.DB, userID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Where("direction = ?", models.DirectionCredit).
		Where("category_override = ?", models.OverrideBusinessIncome).
		Select("COALESCE(SUM(ABS(amount)), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// sumBusinessExpenses totals business expense transactions within [from, to).
func sumBusinessExpenses(db *gorm.DB, userID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Where("expense_type = ?", models.ExpenseTypeBusiness).
		Select("COALESCE(SUM(ABS(amount)), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}
