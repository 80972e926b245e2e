package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/services"
)

// ProfileHandler handles profile and tax settings requests.
type ProfileHandler struct {
	profileService services.ProfileServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.ProfileServicer) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest represents a partial profile update. Omitted fields are
// untouched.
type UpdateProfileRequest struct {
	VehicleTrackingMode    *string          `json:"vehicle_tracking_mode" binding:"omitempty,tracking_mode"`
	VehicleDeductionMethod *string          `json:"vehicle_deduction_method" binding:"omitempty,deduction_method"`
	PerKmRate              *decimal.Decimal `json:"per_km_rate"`
	StartOfYearMileage     *decimal.Decimal `json:"start_of_year_mileage"`
	CurrentMileage         *decimal.Decimal `json:"current_mileage"`
	HomeOfficePercentage   *decimal.Decimal `json:"home_office_percentage"`
}

// UpdateTaxSettingsRequest represents a partial tax settings update. Omitted
// fields are untouched.
type UpdateTaxSettingsRequest struct {
	Province                    *string          `json:"province" binding:"omitempty,province"`
	PersonalTaxCreditAmount     *decimal.Decimal `json:"personal_tax_credit_amount"`
	OtherCredits                *decimal.Decimal `json:"other_credits"`
	InstalmentMethod            *string          `json:"instalment_method" binding:"omitempty,instalment_method"`
	SafeHarbourTotalTaxLastYear *decimal.Decimal `json:"safe_harbour_total_tax_last_year"`
}

// GetProfile handles fetching the user's profile
// @Summary     Get profile
// @Description Get the user's vehicle and home-office settings, or defaults if none are saved
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Profile "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile handles a partial profile update
// @Summary     Update profile
// @Description Update the user's vehicle and home-office settings; omitted fields are untouched
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.Profile "Profile updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [patch]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.ProfileUpdate{
		PerKmRate:            req.PerKmRate,
		StartOfYearMileage:   req.StartOfYearMileage,
		CurrentMileage:       req.CurrentMileage,
		HomeOfficePercentage: req.HomeOfficePercentage,
	}
	if req.VehicleTrackingMode != nil {
		mode := models.VehicleTrackingMode(*req.VehicleTrackingMode)
		update.VehicleTrackingMode = &mode
	}
	if req.VehicleDeductionMethod != nil {
		method := models.VehicleDeductionMethod(*req.VehicleDeductionMethod)
		update.VehicleDeductionMethod = &method
	}

	profile, err := h.profileService.UpdateProfile(userID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetTaxSettings handles fetching the user's tax settings
// @Summary     Get tax settings
// @Description Get the user's tax settings, or defaults if none are saved
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.TaxSettings "Tax settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/tax-settings [get]
func (h *ProfileHandler) GetTaxSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.profileService.GetTaxSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tax_settings": settings})
}

// UpdateTaxSettings handles a partial tax settings update
// @Summary     Update tax settings
// @Description Update the user's province, credits, and instalment preferences; omitted fields are untouched
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateTaxSettingsRequest true "Tax settings fields"
// @Success     200 {object} models.TaxSettings "Tax settings updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/tax-settings [patch]
func (h *ProfileHandler) UpdateTaxSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTaxSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.TaxSettingsUpdate{
		Province:                    req.Province,
		PersonalTaxCreditAmount:     req.PersonalTaxCreditAmount,
		OtherCredits:                req.OtherCredits,
		SafeHarbourTotalTaxLastYear: req.SafeHarbourTotalTaxLastYear,
	}
	if req.InstalmentMethod != nil {
		method := models.InstalmentMethod(*req.InstalmentMethod)
		update.InstalmentMethod = &method
	}

	settings, err := h.profileService.UpdateTaxSettings(userID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tax_settings": settings})
}
