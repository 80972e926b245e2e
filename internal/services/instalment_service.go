package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
)

// looseInstalmentKeywords flag a debit as a likely tax payment.
var looseInstalmentKeywords = []string{"cra", "tax", "instalment"}

// strictInstalmentKeywords identify the tax agency as payee.
var strictInstalmentKeywords = []string{"cra", "canada revenue agency"}

// instalmentAmountFloor filters out small unrelated payments.
var instalmentAmountFloor = decimal.NewFromInt(100)

// dueDateTolerance is how far a payment may land from a quarterly due date
// and still count as an on-schedule instalment.
const dueDateTolerance = 7 * 24 * time.Hour

// instalmentService detects historical tax instalment payments from
// transaction text and dates.
type instalmentService struct {
	db *gorm.DB
}

// NewInstalmentService creates a new InstalmentServicer.
func NewInstalmentService(db *gorm.DB) InstalmentServicer {
	return &instalmentService{db: db}
}

// quarterlyDueDates returns the fixed instalment due dates for a year:
// March 15, June 15, September 15, December 15.
func quarterlyDueDates(year int) []time.Time {
	months := []time.Month{time.March, time.June, time.September, time.December}
	dates := make([]time.Time, 0, len(months))
	for _, m := range months {
		dates = append(dates, time.Date(year, m, 15, 0, 0, 0, 0, time.UTC))
	}
	return dates
}

func nearQuarterlyDueDate(date time.Time, year int) bool {
	for _, due := range quarterlyDueDates(year) {
		delta := date.Sub(due)
		if delta < 0 {
			delta = -delta
		}
		if delta <= dueDateTolerance {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ExtractInstalments scans the year's debits for likely tax instalment
// payments. The strict pass (agency payee near a quarterly due date) runs
// first and tags matches as auto; the loose keyword pass tags the remainder
// as estimated, so auto always wins when both would match. Candidates are
// deduplicated against stored instalments on (user, amount, date) before
// insertion; this is a best-effort check, not a uniqueness guarantee.
func (s *instalmentService) ExtractInstalments(userID string, year int) (*InstalmentExtractionResult, error) {
	start, end := yearBounds(year)
	var debits []models.Transaction
	err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Where("direction = ?", models.DirectionDebit).
		Order("date ASC").
		Find(&debits).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	existing, err := s.existingKeys(userID)
	if err != nil {
		return nil, err
	}

	result := &InstalmentExtractionResult{}
	flagged := make(map[string]bool, len(debits))

	insert := func(t models.Transaction, method models.InstalmentDetectionMethod) error {
		result.Detected++
		key := instalmentKey(t.Amount, t.Date)
		if existing[key] {
			return nil
		}
		instalment := &models.TaxInstalment{
			UserID: userID,
			Amount: t.Amount.Abs(),
			Date:   t.Date,
			Method: method,
		}
		if err := s.db.Create(instalment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		existing[key] = true
		result.Inserted++
		return nil
	}

	// Strict pass: agency payee near a quarterly due date.
	for _, t := range debits {
		if t.Amount.Abs().LessThanOrEqual(instalmentAmountFloor) {
			continue
		}
		desc := strings.ToLower(t.Description)
		if !containsAny(desc, strictInstalmentKeywords) || !nearQuarterlyDueDate(t.Date, year) {
			continue
		}
		flagged[t.ID] = true
		if err := insert(t, models.InstalmentDetectedAuto); err != nil {
			return nil, err
		}
	}

	// Loose pass: keyword heuristic over whatever the strict pass left.
	for _, t := range debits {
		if flagged[t.ID] || t.Amount.Abs().LessThanOrEqual(instalmentAmountFloor) {
			continue
		}
		if !containsAny(strings.ToLower(t.Description), looseInstalmentKeywords) {
			continue
		}
		if err := insert(t, models.InstalmentDetectedEstimated); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// GetUserInstalments returns the user's recorded instalments for a year in
// date order.
func (s *instalmentService) GetUserInstalments(userID string, year int) ([]models.TaxInstalment, error) {
	start, end := yearBounds(year)
	var instalments []models.TaxInstalment
	err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").
		Find(&instalments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return instalments, nil
}

// RecordInstalment stores a manually reported instalment, subject to the
// same deduplication as extraction.
func (s *instalmentService) RecordInstalment(userID string, amount decimal.Decimal, date time.Time) (*models.TaxInstalment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	existing, err := s.existingKeys(userID)
	if err != nil {
		return nil, err
	}
	if existing[instalmentKey(amount, date)] {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "an instalment with this amount and date is already recorded")
	}

	instalment := &models.TaxInstalment{
		UserID: userID,
		Amount: amount,
		Date:   date,
		Method: models.InstalmentDetectedManual,
	}
	if err := s.db.Create(instalment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return instalment, nil
}

// existingKeys loads the dedupe keys of every stored instalment for a user.
func (s *instalmentService) existingKeys(userID string) (map[string]bool, error) {
	var stored []models.TaxInstalment
	if err := s.db.Where("user_id = ?", userID).Find(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	keys := make(map[string]bool, len(stored))
	for _, i := range stored {
		keys[instalmentKey(i.Amount, i.Date)] = true
	}
	return keys, nil
}

// instalmentKey is the best-effort deduplication tuple (amount, date) within
// one user's records.
func instalmentKey(amount decimal.Decimal, date time.Time) string {
	return amount.Abs().StringFixed(2) + "|" + date.Format("2006-01-02")
}
