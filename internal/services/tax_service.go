package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"helixtax/internal/tax"
)

// taxService assembles a year-to-date tax estimate from categorized income,
// aggregated deductions, and the user's tax settings.
type taxService struct {
	db               *gorm.DB
	deductionService DeductionServicer
	profileService   ProfileServicer
}

// NewTaxService creates a new TaxServicer.
func NewTaxService(db *gorm.DB, deductionService DeductionServicer, profileService ProfileServicer) TaxServicer {
	return &taxService{
		db:               db,
		deductionService: deductionService,
		profileService:   profileService,
	}
}

// GetTaxEstimate computes the user's tax position for a year from what has
// been categorized so far.
func (s *taxService) GetTaxEstimate(userID string, year int) (*TaxEstimate, error) {
	settings, err := s.profileService.GetTaxSettings(userID)
	if err != nil {
		return nil, err
	}

	start, end := yearBounds(year)
	income, err := sumIncome(s.db, userID, start, end)
	if err != nil {
		return nil, err
	}

	deductions, err := s.deductionService.GetCategorizedDeductions(userID, year)
	if err != nil {
		return nil, err
	}

	netIncome := income.Sub(deductions.TotalDeductions)
	if netIncome.LessThan(decimal.Zero) {
		netIncome = decimal.Zero
	}

	calc := tax.NewCalculator(year, settings.Province)
	result := calc.Compute(netIncome, settings.PersonalTaxCreditAmount, settings.OtherCredits)

	return &TaxEstimate{
		Year:            year,
		NetIncome:       netIncome,
		TotalDeductions: deductions.TotalDeductions,
		Result:          result,
		MarginalRate:    calc.MarginalRate(result.TaxableIncome),
	}, nil
}
