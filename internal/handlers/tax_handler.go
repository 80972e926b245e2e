package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/services"
)

// TaxHandler handles deduction aggregation, tax estimation, projection, and
// instalment requests.
type TaxHandler struct {
	deductionService  services.DeductionServicer
	taxService        services.TaxServicer
	projectionService services.ProjectionServicer
	instalmentService services.InstalmentServicer
}

// NewTaxHandler creates a new TaxHandler.
func NewTaxHandler(
	deductionService services.DeductionServicer,
	taxService services.TaxServicer,
	projectionService services.ProjectionServicer,
	instalmentService services.InstalmentServicer,
) *TaxHandler {
	return &TaxHandler{
		deductionService:  deductionService,
		taxService:        taxService,
		projectionService: projectionService,
		instalmentService: instalmentService,
	}
}

// RecordInstalmentRequest represents a manually recorded instalment payment
type RecordInstalmentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Date   string          `json:"date" binding:"required"`
}

// GetDeductions handles the categorized deduction summary
// @Summary     Get categorized deductions
// @Description Get the year's deductions split into business, parking, auto, and home-office buckets
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {object} services.CategorizedDeductions "Deductions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/deductions [get]
func (h *TaxHandler) GetDeductions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deductions, err := h.deductionService.GetCategorizedDeductions(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, deductions)
}

// GetEstimate handles the year-to-date tax estimate
// @Summary     Get tax estimate
// @Description Compute federal and provincial tax on the year's net income
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {object} services.TaxEstimate "Tax estimate"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/estimate [get]
func (h *TaxHandler) GetEstimate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	estimate, err := h.taxService.GetTaxEstimate(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// GetProjection handles the full-year income and tax projection
// @Summary     Get full-year projection
// @Description Extrapolate the year to date into projected income, expenses, tax, and instalments
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       as_of query string false "Projection date (YYYY-MM-DD, defaults to today)"
// @Success     200 {object} services.ProjectionResult "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/projection [get]
func (h *TaxHandler) GetProjection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, parseErr := parseFlexibleTime(raw)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		asOf = parsed
	}

	projection, err := h.projectionService.Project(userID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, projection)
}

// ExtractInstalments handles instalment detection over existing transactions
// @Summary     Extract instalment payments
// @Description Scan the year's debits for tax instalment payments and record new ones
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {object} services.InstalmentExtractionResult "Detection counts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/instalments/extract [post]
func (h *TaxHandler) ExtractInstalments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.instalmentService.ExtractInstalments(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListInstalments handles listing the year's recorded instalments
// @Summary     List instalment payments
// @Description Get the user's recorded instalment payments for a year
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {array} models.TaxInstalment "Instalments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/instalments [get]
func (h *TaxHandler) ListInstalments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := queryYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	instalments, err := h.instalmentService.GetUserInstalments(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instalments": instalments})
}

// RecordInstalment handles manually recording an instalment payment
// @Summary     Record an instalment payment
// @Description Record a tax instalment payment made outside tracked accounts
// @Tags        tax
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordInstalmentRequest true "Instalment details"
// @Success     201 {object} models.TaxInstalment "Instalment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /tax/instalments [post]
func (h *TaxHandler) RecordInstalment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordInstalmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, parseErr := parseFlexibleTime(req.Date)
	if parseErr != nil {
		respondWithError(c, parseErr)
		return
	}

	instalment, err := h.instalmentService.RecordInstalment(userID, req.Amount, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"instalment": instalment})
}
