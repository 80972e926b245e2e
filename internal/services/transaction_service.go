package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/pagination"
)

// transactionService handles transaction entry, listing, and manual
// categorization edits.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a manually entered transaction. Amounts are
// stored as positive magnitudes; the direction carries the sign.
func (s *transactionService) CreateTransaction(
	userID string,
	date time.Time,
	amount decimal.Decimal,
	direction models.TransactionDirection,
	description string,
) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if direction != models.DirectionCredit && direction != models.DirectionDebit {
		return nil, apperrors.ErrInvalidDirection
	}
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Direction:   direction,
		Description: description,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Direction != nil {
		q = q.Where("direction = ?", *f.Direction)
	}
	if f.ExpenseType != nil {
		q = q.Where("expense_type = ?", *f.ExpenseType)
	}
	if f.Category != nil {
		q = q.Where("expense_category = ?", *f.Category)
	}
	if f.Uncategorized {
		q = q.Where("expense_category = '' AND expense_subcategory = '' AND income_source = '' AND category_override = ''")
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateCategorization applies a manual categorization edit. This is the
// manual counterpart of rule application; setting CategoryOverride here
// shields the transaction from future rule runs.
func (s *transactionService) UpdateCategorization(userID, transactionID string, update CategorizationUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.ExpenseType != nil {
		switch *update.ExpenseType {
		case models.ExpenseTypeBusiness, models.ExpenseTypePersonal, models.ExpenseTypeInternalTransfer, "":
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported expense type")
		}
		updates["expense_type"] = *update.ExpenseType
	}
	if update.ExpenseCategory != nil {
		updates["expense_category"] = *update.ExpenseCategory
	}
	if update.ExpenseSubcategory != nil {
		updates["expense_subcategory"] = *update.ExpenseSubcategory
	}
	if update.CategoryOverride != nil {
		switch *update.CategoryOverride {
		case models.OverrideBusinessIncome, models.OverrideOtherIncome, models.OverrideInternalTransfer, "":
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported category override")
		}
		updates["category_override"] = *update.CategoryOverride
	}
	if update.IncomeSource != nil {
		updates["income_source"] = *update.IncomeSource
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return transaction, nil
}
