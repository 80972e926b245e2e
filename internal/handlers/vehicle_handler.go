package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/services"
)

// VehicleHandler handles vehicle tracking and deduction requests.
type VehicleHandler struct {
	vehicleService services.VehicleServicer
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService services.VehicleServicer) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// AddTripRequest represents a single business trip entry
type AddTripRequest struct {
	Date       *string         `json:"date"`
	DistanceKm decimal.Decimal `json:"distance_km" binding:"required"`
	FromPlace  string          `json:"from_place" binding:"max=200"`
	ToPlace    string          `json:"to_place" binding:"max=200"`
	Purpose    string          `json:"purpose" binding:"max=500"`
}

// MonthlySummaryRequest represents one month's odometer totals
type MonthlySummaryRequest struct {
	Year       int             `json:"year" binding:"required,min=2000,max=2200"`
	Month      int             `json:"month" binding:"required"`
	TotalKm    decimal.Decimal `json:"total_km" binding:"required"`
	BusinessKm decimal.Decimal `json:"business_km" binding:"required"`
	Note       string          `json:"note" binding:"max=500"`
}

// AddTrip handles logging a business trip
// @Summary     Log a business trip
// @Description Record one business trip's distance under the per-trip tracking mode
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddTripRequest true "Trip details"
// @Success     201 {object} models.VehicleLog "Trip logged"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/trips [post]
func (h *VehicleHandler) AddTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tripDate := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		tripDate = parsed
	}

	trip, err := h.vehicleService.AddTripLog(userID, tripDate, req.DistanceKm, req.FromPlace, req.ToPlace, req.Purpose)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// ListTrips handles listing the user's trips for a year
// @Summary     List business trips
// @Description Get the user's logged trips for a year, most recent first
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {array} models.VehicleLog "Trips"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/trips [get]
func (h *VehicleHandler) ListTrips(c *gin.Context) {
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

	trips, err := h.vehicleService.GetTripLogs(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// DeleteTrip handles trip deletion
// @Summary     Delete a business trip
// @Description Delete one of the user's logged trips
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     204 "Trip deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/trips/{id} [delete]
func (h *VehicleHandler) DeleteTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.vehicleService.DeleteTripLog(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpsertMonthlySummary handles recording a month's odometer totals
// @Summary     Record a monthly vehicle summary
// @Description Create or replace one month's total and business kilometres
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MonthlySummaryRequest true "Monthly totals"
// @Success     200 {object} models.MonthlyVehicleSummary "Summary saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/summaries [put]
func (h *VehicleHandler) UpsertMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MonthlySummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := h.vehicleService.UpsertMonthlySummary(userID, req.Year, req.Month, req.TotalKm, req.BusinessKm, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ListMonthlySummaries handles listing a year's monthly summaries
// @Summary     List monthly vehicle summaries
// @Description Get the user's monthly odometer summaries for a year
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {array} models.MonthlyVehicleSummary "Summaries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/summaries [get]
func (h *VehicleHandler) ListMonthlySummaries(c *gin.Context) {
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

	summaries, err := h.vehicleService.GetMonthlySummaries(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// GetDeduction handles the vehicle deduction calculation
// @Summary     Calculate the vehicle deduction
// @Description Compute the year's vehicle deduction under the user's tracking mode and method
// @Tags        vehicle
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (defaults to current)"
// @Success     200 {object} services.VehicleDeductionResult "Deduction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /vehicle/deduction [get]
func (h *VehicleHandler) GetDeduction(c *gin.Context) {
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

	result, err := h.vehicleService.CalculateDeduction(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
