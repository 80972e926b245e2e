// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validProvinces contains the two-letter codes of Canadian provinces and
// territories.
var validProvinces = map[string]bool{
	"AB": true, "BC": true, "MB": true, "NB": true, "NL": true,
	"NS": true, "NT": true, "NU": true, "ON": true, "PE": true,
	"QC": true, "SK": true, "YT": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("direction", validateDirection)
		_ = v.RegisterValidation("expense_type", validateExpenseType)
		_ = v.RegisterValidation("match_type", validateMatchType)
		_ = v.RegisterValidation("rule_type", validateRuleType)
		_ = v.RegisterValidation("tracking_mode", validateTrackingMode)
		_ = v.RegisterValidation("deduction_method", validateDeductionMethod)
		_ = v.RegisterValidation("instalment_method", validateInstalmentMethod)
		_ = v.RegisterValidation("province", validateProvince)
	}
}

func validateDirection(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "credit", "debit":
		return true
	}
	return false
}

func validateExpenseType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "business", "personal", "internal_transfer", "":
		return true
	}
	return false
}

func validateMatchType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "contains", "equals":
		return true
	}
	return false
}

func validateRuleType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "business_income", "business_expense", "personal_expense":
		return true
	}
	return false
}

func validateTrackingMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "trip", "monthly":
		return true
	}
	return false
}

func validateDeductionMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "per_km", "actual_expense":
		return true
	}
	return false
}

func validateInstalmentMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "safe_harbour", "estimate", "not_required":
		return true
	}
	return false
}

func validateProvince(fl validator.FieldLevel) bool {
	return validProvinces[fl.Field().String()]
}
