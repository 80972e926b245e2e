package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
)

// vehicleService handles vehicle trip logs, monthly summaries, and the
// business-use vehicle deduction.
type vehicleService struct {
	db *gorm.DB
}

// NewVehicleService creates a new VehicleServicer.
func NewVehicleService(db *gorm.DB) VehicleServicer {
	return &vehicleService{db: db}
}

// AddTripLog records one business trip.
func (s *vehicleService) AddTripLog(userID string, date time.Time, distanceKm decimal.Decimal, fromPlace, toPlace, purpose string) (*models.VehicleLog, error) {
	if distanceKm.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "distance must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	log := &models.VehicleLog{
		UserID:     userID,
		Date:       date,
		DistanceKm: distanceKm,
		FromPlace:  fromPlace,
		ToPlace:    toPlace,
		Purpose:    purpose,
	}
	if err := s.db.Create(log).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return log, nil
}

// GetTripLogs returns the user's trip logs for a year, oldest first.
func (s *vehicleService) GetTripLogs(userID string, year int) ([]models.VehicleLog, error) {
	start, end := yearBounds(year)
	var logs []models.VehicleLog
	err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").
		Find(&logs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return logs, nil
}

// DeleteTripLog soft-deletes a trip log.
func (s *vehicleService) DeleteTripLog(userID, logID string) error {
	var log models.VehicleLog
	if err := s.db.Where("id = ? AND user_id = ?", logID, userID).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrVehicleLogNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&log).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpsertMonthlySummary creates or replaces the odometer summary for one
// calendar month.
func (s *vehicleService) UpsertMonthlySummary(userID string, year, month int, totalKm, businessKm decimal.Decimal, note string) (*models.MonthlyVehicleSummary, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if totalKm.IsNegative() || businessKm.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "kilometres cannot be negative")
	}
	if businessKm.GreaterThan(totalKm) {
		return nil, apperrors.ErrInvalidKilometres
	}

	var summary models.MonthlyVehicleSummary
	err := s.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).First(&summary).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		summary = models.MonthlyVehicleSummary{
			UserID:     userID,
			Year:       year,
			Month:      month,
			TotalKm:    totalKm,
			BusinessKm: businessKm,
			Note:       note,
		}
		if err := s.db.Create(&summary).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	default:
		updates := map[string]interface{}{
			"total_km":    totalKm,
			"business_km": businessKm,
			"note":        note,
		}
		if err := s.db.Model(&summary).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &summary, nil
}

// GetMonthlySummaries returns the user's monthly summaries for a year in
// calendar order.
func (s *vehicleService) GetMonthlySummaries(userID string, year int) ([]models.MonthlyVehicleSummary, error) {
	var summaries []models.MonthlyVehicleSummary
	err := s.db.
		Where("user_id = ? AND year = ?", userID, year).
		Order("month ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return summaries, nil
}

// CalculateDeduction computes the vehicle deduction for a year under the
// user's tracking mode and deduction method.
func (s *vehicleService) CalculateDeduction(userID string, year int) (*VehicleDeductionResult, error) {
	profile, err := s.profileOrDefaults(userID)
	if err != nil {
		return nil, err
	}

	totalBusinessKm, err := s.totalBusinessKm(userID, year, profile.VehicleTrackingMode)
	if err != nil {
		return nil, err
	}

	autoExpenses, err := s.autoExpenses(userID, year)
	if err != nil {
		return nil, err
	}
	autoTotal := decimal.Zero
	for _, t := range autoExpenses {
		autoTotal = autoTotal.Add(t.Amount.Abs())
	}

	result := &VehicleDeductionResult{
		DeductionType:     profile.VehicleDeductionMethod,
		TotalBusinessKm:   totalBusinessKm,
		AutoExpensesTotal: autoTotal,
	}

	if profile.VehicleDeductionMethod == models.DeductionMethodPerKm {
		// The flat rate already embeds fuel, maintenance, and depreciation;
		// none of the actual auto expense transactions may count again.
		result.DeductionAmount = totalBusinessKm.Mul(profile.PerKmRate).Round(2)
		result.BusinessUseRatio = decimal.NewFromInt(1)
		return result, nil
	}

	parking, otherAuto := splitParking(autoExpenses)

	if profile.VehicleTrackingMode == models.TrackingModeMonthly {
		summaries, err := s.GetMonthlySummaries(userID, year)
		if err != nil {
			return nil, err
		}
		result.DeductionAmount, result.BusinessUseRatio = monthlyActualDeduction(parking, otherAuto, summaries)
		return result, nil
	}

	result.DeductionAmount, result.BusinessUseRatio = tripActualDeduction(
		parking, otherAuto, totalBusinessKm,
		profile.StartOfYearMileage, profile.CurrentMileage,
	)
	return result, nil
}

// profileOrDefaults loads the user's profile, falling back to default
// settings when none has been saved yet.
func (s *vehicleService) profileOrDefaults(userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultProfile(userID), nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &profile, nil
}

// totalBusinessKm sums business kilometres for the year from whichever table
// the tracking mode selects.
func (s *vehicleService) totalBusinessKm(userID string, year int, mode models.VehicleTrackingMode) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error
	if mode == models.TrackingModeMonthly {
		err = s.db.Model(&models.MonthlyVehicleSummary{}).
			Where("user_id = ? AND year = ?", userID, year).
			Select("COALESCE(SUM(business_km), 0)").
			Scan(&total).Error
	} else {
		start, end := yearBounds(year)
		err = s.db.Model(&models.VehicleLog{}).
			Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
			Select("COALESCE(SUM(distance_km), 0)").
			Scan(&total).Error
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// autoExpenses returns the year's business transactions in the Auto Expense
// category.
func (s *vehicleService) autoExpenses(userID string, year int) ([]models.Transaction, error) {
	start, end := yearBounds(year)
	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Where("expense_type = ? AND expense_category = ?", models.ExpenseTypeBusiness, models.CategoryAutoExpense).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// splitParking divides auto expenses into parking and everything else.
// Parking stays 100% deductible under every method.
func splitParking(autoExpenses []models.Transaction) (parking, otherAuto []models.Transaction) {
	for _, t := range autoExpenses {
		if t.ExpenseSubcategory == models.SubcategoryParking {
			parking = append(parking, t)
		} else {
			otherAuto = append(otherAuto, t)
		}
	}
	return parking, otherAuto
}

// monthlyActualDeduction prorates each month's non-parking auto expenses by
// that month's business fraction, and adds parking in full. Months without a
// summary, or with zero total kilometres, contribute no prorated share.
func monthlyActualDeduction(parking, otherAuto []models.Transaction, summaries []models.MonthlyVehicleSummary) (decimal.Decimal, decimal.Decimal) {
	fractionByMonth := make(map[int]decimal.Decimal, len(summaries))
	totalKm := decimal.Zero
	businessKm := decimal.Zero
	for _, summary := range summaries {
		if summary.TotalKm.GreaterThan(decimal.Zero) {
			fractionByMonth[summary.Month] = clampRatio(summary.BusinessKm.Div(summary.TotalKm))
		}
		totalKm = totalKm.Add(summary.TotalKm)
		businessKm = businessKm.Add(summary.BusinessKm)
	}

	deduction := decimal.Zero
	for _, t := range parking {
		deduction = deduction.Add(t.Amount.Abs())
	}
	for _, t := range otherAuto {
		fraction, ok := fractionByMonth[int(t.Date.Month())]
		if !ok {
			continue
		}
		deduction = deduction.Add(t.Amount.Abs().Mul(fraction))
	}

	ratio := decimal.Zero
	if totalKm.GreaterThan(decimal.Zero) {
		ratio = clampRatio(businessKm.Div(totalKm))
	}
	return deduction.Round(2), ratio
}

// tripActualDeduction prorates non-parking auto expenses by the odometer
// business fraction. Missing or inverted odometer readings degrade to
// parking-only rather than failing: parking keeps 100%, other auto gets 0%.
func tripActualDeduction(parking, otherAuto []models.Transaction, totalBusinessKm, startMileage, currentMileage decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	parkingTotal := decimal.Zero
	for _, t := range parking {
		parkingTotal = parkingTotal.Add(t.Amount.Abs())
	}

	totalDriven := currentMileage.Sub(startMileage)
	if totalDriven.LessThanOrEqual(decimal.Zero) {
		return parkingTotal.Round(2), decimal.Zero
	}

	ratio := clampRatio(totalBusinessKm.Div(totalDriven))
	otherTotal := decimal.Zero
	for _, t := range otherAuto {
		otherTotal = otherTotal.Add(t.Amount.Abs())
	}
	return parkingTotal.Add(otherTotal.Mul(ratio)).Round(2), ratio
}

// clampRatio bounds a business-use ratio to [0, 1].
func clampRatio(ratio decimal.Decimal) decimal.Decimal {
	if ratio.IsNegative() {
		return decimal.Zero
	}
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return ratio
}

// yearBounds returns the half-open UTC interval [Jan 1, Jan 1 of next year).
func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
