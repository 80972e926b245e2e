// Package errors provides custom error types for the helixtax API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidDirection    = &AppError{Code: "INVALID_DIRECTION", Message: "Unsupported transaction direction", StatusCode: http.StatusBadRequest}
)

// Categorization rule errors. A rule rejected at creation time persists nothing;
// the message is safe to surface to the end user.
var (
	ErrRuleNotFound      = &AppError{Code: "RULE_NOT_FOUND", Message: "Categorization rule not found", StatusCode: http.StatusNotFound}
	ErrInvalidRule       = &AppError{Code: "INVALID_RULE", Message: "Invalid categorization rule", StatusCode: http.StatusBadRequest}
	ErrRuleOrderMismatch = &AppError{Code: "RULE_ORDER_MISMATCH", Message: "Reorder request must include every rule exactly once", StatusCode: http.StatusBadRequest}
)

// Vehicle tracking errors.
var (
	ErrVehicleLogNotFound = &AppError{Code: "VEHICLE_LOG_NOT_FOUND", Message: "Vehicle log not found", StatusCode: http.StatusNotFound}
	ErrInvalidKilometres  = &AppError{Code: "INVALID_KILOMETRES", Message: "Business kilometres cannot exceed total kilometres", StatusCode: http.StatusBadRequest}
	ErrInvalidOdometer    = &AppError{Code: "INVALID_ODOMETER", Message: "Current mileage cannot be less than start-of-year mileage", StatusCode: http.StatusBadRequest}
)

// Profile & settings errors.
var (
	ErrProfileNotFound     = &AppError{Code: "PROFILE_NOT_FOUND", Message: "Profile not found", StatusCode: http.StatusNotFound}
	ErrTaxSettingsNotFound = &AppError{Code: "TAX_SETTINGS_NOT_FOUND", Message: "Tax settings not found", StatusCode: http.StatusNotFound}
)

// Instalment errors.
var (
	ErrInstalmentNotFound = &AppError{Code: "INSTALMENT_NOT_FOUND", Message: "Tax instalment not found", StatusCode: http.StatusNotFound}
)
