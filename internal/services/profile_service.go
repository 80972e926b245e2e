package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/tax"
)

// profileService handles vehicle/home-office settings and tax settings.
type profileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB) ProfileServicer {
	return &profileService{db: db}
}

// defaultProfile is the profile used before a user has saved one.
func defaultProfile(userID string) *models.Profile {
	return &models.Profile{
		UserID:                 userID,
		VehicleTrackingMode:    models.TrackingModeTrip,
		VehicleDeductionMethod: models.DeductionMethodPerKm,
		PerKmRate:              decimal.RequireFromString("0.68"),
	}
}

// defaultTaxSettings is used before a user has saved tax settings.
func defaultTaxSettings(userID string) *models.TaxSettings {
	return &models.TaxSettings{
		UserID:           userID,
		Province:         tax.DefaultProvince,
		InstalmentMethod: models.InstalmentMethodNotRequired,
	}
}

// GetProfile returns the user's profile, or defaults when none is saved.
func (s *profileService) GetProfile(userID string) (*models.Profile, error) {
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

// UpdateProfile validates and applies profile changes, creating the row on
// first update.
func (s *profileService) UpdateProfile(userID string, update ProfileUpdate) (*models.Profile, error) {
	if update.VehicleTrackingMode != nil {
		switch *update.VehicleTrackingMode {
		case models.TrackingModeTrip, models.TrackingModeMonthly:
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tracking mode must be trip or monthly")
		}
	}
	if update.VehicleDeductionMethod != nil {
		switch *update.VehicleDeductionMethod {
		case models.DeductionMethodPerKm, models.DeductionMethodActualExpense:
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "deduction method must be per_km or actual_expense")
		}
	}
	if update.PerKmRate != nil && update.PerKmRate.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "per-km rate must be greater than zero")
	}
	if update.HomeOfficePercentage != nil {
		pct := *update.HomeOfficePercentage
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "home office percentage must be between 0 and 100")
		}
	}

	profile, err := s.loadOrCreateProfile(userID)
	if err != nil {
		return nil, err
	}

	// An odometer pair where current reads below start of year is invalid.
	start := profile.StartOfYearMileage
	current := profile.CurrentMileage
	if update.StartOfYearMileage != nil {
		start = *update.StartOfYearMileage
	}
	if update.CurrentMileage != nil {
		current = *update.CurrentMileage
	}
	if !current.IsZero() && current.LessThan(start) {
		return nil, apperrors.ErrInvalidOdometer
	}

	updates := make(map[string]interface{})
	if update.VehicleTrackingMode != nil {
		updates["vehicle_tracking_mode"] = *update.VehicleTrackingMode
	}
	if update.VehicleDeductionMethod != nil {
		updates["vehicle_deduction_method"] = *update.VehicleDeductionMethod
	}
	if update.PerKmRate != nil {
		updates["per_km_rate"] = *update.PerKmRate
	}
	if update.StartOfYearMileage != nil {
		updates["start_of_year_mileage"] = *update.StartOfYearMileage
	}
	if update.CurrentMileage != nil {
		updates["current_mileage"] = *update.CurrentMileage
	}
	if update.HomeOfficePercentage != nil {
		updates["home_office_percentage"] = *update.HomeOfficePercentage
	}

	if len(updates) > 0 {
		if err := s.db.Model(profile).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return profile, nil
}

func (s *profileService) loadOrCreateProfile(userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := defaultProfile(userID)
		if err := s.db.Create(created).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return created, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &profile, nil
}

// GetTaxSettings returns the user's tax settings, or defaults when none are
// saved.
func (s *profileService) GetTaxSettings(userID string) (*models.TaxSettings, error) {
	var settings models.TaxSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultTaxSettings(userID), nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// UpdateTaxSettings validates and applies tax settings changes, creating the
// row on first update.
func (s *profileService) UpdateTaxSettings(userID string, update TaxSettingsUpdate) (*models.TaxSettings, error) {
	if update.InstalmentMethod != nil {
		switch *update.InstalmentMethod {
		case models.InstalmentMethodSafeHarbour, models.InstalmentMethodEstimate, models.InstalmentMethodNotRequired:
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "instalment method must be safe_harbour, estimate, or not_required")
		}
	}
	if update.PersonalTaxCreditAmount != nil && update.PersonalTaxCreditAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "personal tax credit cannot be negative")
	}
	if update.OtherCredits != nil && update.OtherCredits.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "other credits cannot be negative")
	}
	if update.SafeHarbourTotalTaxLastYear != nil && update.SafeHarbourTotalTaxLastYear.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "last year's total tax cannot be negative")
	}

	var settings models.TaxSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = *defaultTaxSettings(userID)
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	} else if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := make(map[string]interface{})
	if update.Province != nil {
		updates["province"] = *update.Province
	}
	if update.PersonalTaxCreditAmount != nil {
		updates["personal_tax_credit_amount"] = *update.PersonalTaxCreditAmount
	}
	if update.OtherCredits != nil {
		updates["other_credits"] = *update.OtherCredits
	}
	if update.InstalmentMethod != nil {
		updates["instalment_method"] = *update.InstalmentMethod
	}
	if update.SafeHarbourTotalTaxLastYear != nil {
		updates["safe_harbour_total_tax_last_year"] = *update.SafeHarbourTotalTaxLastYear
	}

	if len(updates) > 0 {
		if err := s.db.Model(&settings).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &settings, nil
}
