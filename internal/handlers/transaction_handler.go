package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/pagination"
	"helixtax/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Date        *string         `json:"date"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Direction   string          `json:"direction" binding:"required,direction"`
	Description string          `json:"description" binding:"max=500"`
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Date               time.Time       `json:"date"`
	Amount             decimal.Decimal `json:"amount"`
	Direction          string          `json:"direction"`
	Description        string          `json:"description"`
	ExpenseType        string          `json:"expense_type,omitempty"`
	ExpenseCategory    string          `json:"expense_category,omitempty"`
	ExpenseSubcategory string          `json:"expense_subcategory,omitempty"`
	CategoryOverride   string          `json:"category_override,omitempty"`
	IncomeSource       string          `json:"income_source,omitempty"`
}

// listTransactionsQuery holds list filter parameters parsed from the query
// string alongside pagination.
type listTransactionsQuery struct {
	pagination.PageRequest
	From          string `form:"from"`
	To            string `form:"to"`
	Direction     string `form:"direction" binding:"omitempty,direction"`
	ExpenseType   string `form:"expense_type" binding:"omitempty,expense_type"`
	Category      string `form:"category"`
	Uncategorized bool   `form:"uncategorized"`
}

// CreateTransaction handles manual entry of a transaction
// @Summary     Create a transaction
// @Description Record a manually entered bank or card movement
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transactionDate := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		transactionDate = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(
		userID,
		transactionDate,
		req.Amount,
		models.TransactionDirection(req.Direction),
		req.Description,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description Get a paginated, filtered list of the user's transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Param       direction query string false "credit or debit"
// @Param       expense_type query string false "business, personal, or internal_transfer"
// @Param       category query string false "Expense category"
// @Param       uncategorized query bool false "Only uncategorized transactions"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query listTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{Uncategorized: query.Uncategorized}
	if query.From != "" {
		from, parseErr := parseFlexibleTime(query.From)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		filter.FromDate = &from
	}
	if query.To != "" {
		to, parseErr := parseFlexibleTime(query.To)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		filter.ToDate = &to
	}
	if query.Direction != "" {
		direction := models.TransactionDirection(query.Direction)
		filter.Direction = &direction
	}
	if query.ExpenseType != "" {
		expenseType := models.ExpenseType(query.ExpenseType)
		filter.ExpenseType = &expenseType
	}
	if query.Category != "" {
		filter.Category = &query.Category
	}

	result, err := h.transactionService.GetUserTransactions(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles fetching a single transaction
// @Summary     Get a transaction
// @Description Get one of the user's transactions by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateCategorizationRequest represents a manual categorization edit. Omitted
// fields are untouched; empty strings clear a field.
type UpdateCategorizationRequest struct {
	ExpenseType        *string `json:"expense_type" binding:"omitempty,expense_type"`
	ExpenseCategory    *string `json:"expense_category" binding:"omitempty,max=100"`
	ExpenseSubcategory *string `json:"expense_subcategory" binding:"omitempty,max=100"`
	CategoryOverride   *string `json:"category_override" binding:"omitempty,max=100"`
	IncomeSource       *string `json:"income_source" binding:"omitempty,max=100"`
}

// UpdateCategorization handles a manual categorization edit
// @Summary     Update transaction categorization
// @Description Manually categorize a transaction; setting a category override shields it from rules
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateCategorizationRequest true "Categorization fields"
// @Success     200 {object} TransactionResponse "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/categorization [patch]
func (h *TransactionHandler) UpdateCategorization(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.CategorizationUpdate{
		ExpenseCategory:    req.ExpenseCategory,
		ExpenseSubcategory: req.ExpenseSubcategory,
		IncomeSource:       req.IncomeSource,
	}
	if req.ExpenseType != nil {
		expenseType := models.ExpenseType(*req.ExpenseType)
		update.ExpenseType = &expenseType
	}
	if req.CategoryOverride != nil {
		override := models.CategoryOverride(*req.CategoryOverride)
		update.CategoryOverride = &override
	}

	transaction, err := h.transactionService.UpdateCategorization(userID, c.Param("id"), update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
