package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "helixtax/internal/errors"
	"helixtax/internal/models"
	"helixtax/internal/services"
)

// RuleHandler handles categorization rule requests.
type RuleHandler struct {
	ruleService services.RuleServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// RuleRequest represents the user-editable fields of a rule
type RuleRequest struct {
	MatchType   string `json:"match_type" binding:"required,match_type"`
	MatchText   string `json:"match_text" binding:"required,min=2,max=100"`
	Type        string `json:"type" binding:"required,rule_type"`
	Category    string `json:"category" binding:"required,max=100"`
	Subcategory string `json:"subcategory" binding:"max=100"`
}

// RuleResponse represents a rule in the response
type RuleResponse struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	MatchType   string `json:"match_type"`
	MatchText   string `json:"match_text"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

// ReorderRulesRequest lists every rule ID in the desired evaluation order
type ReorderRulesRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required,min=1"`
}

// ApplyRulesRequest controls a retroactive rule application run
type ApplyRulesRequest struct {
	LookbackDays int     `json:"lookback_days" binding:"omitempty,min=1,max=3650"`
	AsOf         *string `json:"as_of"`
}

func ruleInput(req RuleRequest) services.RuleInput {
	return services.RuleInput{
		MatchType:   models.RuleMatchType(req.MatchType),
		MatchText:   req.MatchText,
		Type:        models.RuleType(req.Type),
		Category:    req.Category,
		Subcategory: req.Subcategory,
	}
}

// CreateRule handles rule creation
// @Summary     Create a categorization rule
// @Description Create a rule appended at the end of the user's evaluation order
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RuleRequest true "Rule details"
// @Success     201 {object} RuleResponse "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(userID, ruleInput(req))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// ListRules handles listing the user's rules
// @Summary     List categorization rules
// @Description Get the user's rules in evaluation order
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} RuleResponse "Rules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.ruleService.GetUserRules(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// UpdateRule handles rule edits
// @Summary     Update a categorization rule
// @Description Replace a rule's match and effect fields; priority is unchanged
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Param       request body RuleRequest true "Rule details"
// @Success     200 {object} RuleResponse "Rule updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(userID, c.Param("id"), ruleInput(req))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles rule deletion
// @Summary     Delete a categorization rule
// @Description Delete a rule; transactions it categorized are left as they are
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     204 "Rule deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ruleService.DeleteRule(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderRules handles a complete reorder of the user's rules
// @Summary     Reorder categorization rules
// @Description Set the evaluation order; the request must include every rule exactly once
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReorderRulesRequest true "Ordered rule IDs"
// @Success     200 {array} RuleResponse "Rules in new order"
// @Failure     400 {object} ErrorResponse "Invalid or incomplete order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/reorder [put]
func (h *RuleHandler) ReorderRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReorderRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.ruleService.ReorderRules(userID, req.OrderedIDs); err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.ruleService.GetUserRules(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// ApplyRules handles a retroactive rule application run
// @Summary     Apply rules retroactively
// @Description Run all rules over eligible uncategorized transactions in the lookback window
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ApplyRulesRequest false "Run options"
// @Success     200 {object} services.ApplyRulesResult "Match and update counts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/apply [post]
func (h *RuleHandler) ApplyRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyRulesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	var asOf time.Time
	if req.AsOf != nil && *req.AsOf != "" {
		parsed, parseErr := parseFlexibleTime(*req.AsOf)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		asOf = parsed
	}

	result, err := h.ruleService.ApplyRules(userID, req.LookbackDays, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
