package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"helixtax/internal/models"
	"helixtax/internal/tax"
)

// trailingMonths is the window used to smooth month-to-month variation when
// extrapolating income and expenses.
const trailingMonths = 6

var (
	four   = decimal.NewFromInt(4)
	twelve = decimal.NewFromInt(12)
)

// projectionService extrapolates year-to-date activity into full-year income,
// expense, tax, and instalment figures.
type projectionService struct {
	db               *gorm.DB
	deductionService DeductionServicer
	profileService   ProfileServicer
}

// NewProjectionService creates a new ProjectionServicer.
func NewProjectionService(db *gorm.DB, deductionService DeductionServicer, profileService ProfileServicer) ProjectionServicer {
	return &projectionService{
		db:               db,
		deductionService: deductionService,
		profileService:   profileService,
	}
}

// Project extrapolates the year containing asOf. asOf is explicit so results
// are reproducible at any simulated date.
func (s *projectionService) Project(userID string, asOf time.Time) (*ProjectionResult, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	year := asOf.Year()
	monthsElapsed := int(asOf.Month())
	monthsRemaining := 12 - monthsElapsed

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	trailingStart := time.Date(year, asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trailingMonths - 1), 0)

	ytdIncome, err := sumIncome(s.db, userID, yearStart, asOf)
	if err != nil {
		return nil, err
	}
	ytdExpenses, err := sumBusinessExpenses(s.db, userID, yearStart, asOf)
	if err != nil {
		return nil, err
	}
	trailingIncome, err := sumIncome(s.db, userID, trailingStart, asOf)
	if err != nil {
		return nil, err
	}
	trailingExpenses, err := sumBusinessExpenses(s.db, userID, trailingStart, asOf)
	if err != nil {
		return nil, err
	}
	ytdBusinessIncome, err := sumBusinessIncome(s.db, userID, yearStart, asOf)
	if err != nil {
		return nil, err
	}
	trailingBusinessIncome, err := sumBusinessIncome(s.db, userID, trailingStart, asOf)
	if err != nil {
		return nil, err
	}

	elapsed := decimal.NewFromInt(int64(monthsElapsed))
	remaining := decimal.NewFromInt(int64(monthsRemaining))
	trailing := decimal.NewFromInt(trailingMonths)

	var projectedIncome, projectedBusinessIncome decimal.Decimal
	if monthsElapsed >= trailingMonths {
		avgMonthly := trailingIncome.Div(trailing)
		projectedIncome = ytdIncome.Add(avgMonthly.Mul(remaining))
		avgBusinessMonthly := trailingBusinessIncome.Div(trailing)
		projectedBusinessIncome = ytdBusinessIncome.Add(avgBusinessMonthly.Mul(remaining))
	} else {
		projectedIncome = ytdIncome.Div(elapsed).Mul(twelve)
		projectedBusinessIncome = ytdBusinessIncome.Div(elapsed).Mul(twelve)
	}

	var projectedExpenses decimal.Decimal
	if monthsElapsed >= trailingMonths {
		projectedExpenses = ytdExpenses.Mul(decimal.NewFromInt(2))
	} else {
		runRate := ytdExpenses.Div(elapsed).Mul(twelve)
		trailingRate := trailingExpenses.Div(trailing).Mul(twelve)
		projectedExpenses = decimal.Max(runRate, trailingRate)
	}

	projectedTaxable := projectedIncome.Sub(projectedExpenses)
	if projectedTaxable.LessThan(decimal.Zero) {
		projectedTaxable = decimal.Zero
	}

	settings, err := s.profileService.GetTaxSettings(userID)
	if err != nil {
		return nil, err
	}
	calc := tax.NewCalculator(year, settings.Province)
	projected := calc.Compute(projectedTaxable, settings.PersonalTaxCreditAmount, settings.OtherCredits)

	var instalment decimal.Decimal
	switch settings.InstalmentMethod {
	case models.InstalmentMethodEstimate:
		instalment = projected.TotalTax.Div(four).Round(2)
	case models.InstalmentMethodSafeHarbour:
		// 25% of last year's total tax avoids interest regardless of
		// current-year liability.
		instalment = settings.SafeHarbourTotalTaxLastYear.Div(four).Round(2)
	case models.InstalmentMethodNotRequired:
		instalment = decimal.Zero
	}

	deductions, err := s.deductionService.GetCategorizedDeductions(userID, year)
	if err != nil {
		return nil, err
	}

	return &ProjectionResult{
		AsOf:                         asOf,
		ProjectedIncome:              projectedIncome.Round(2),
		ProjectedExpenses:            projectedExpenses.Round(2),
		ProjectedTaxableIncome:       projectedTaxable.Round(2),
		ProjectedTax:                 projected.TotalTax,
		ProjectedQuarterlyInstalment: instalment,
		EstimatedDeductionSavings:    tax.EstimateDeductionSavings(deductions.TotalDeductions, projectedBusinessIncome),
	}, nil
}
