package services

import (
	"time"

	"github.com/shopspring/decimal"

	"helixtax/internal/models"
	"helixtax/internal/pagination"
	"helixtax/internal/tax"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Direction     *models.TransactionDirection
	ExpenseType   *models.ExpenseType
	Category      *string
	Uncategorized bool
}

// CategorizationUpdate carries a manual categorization edit. Nil fields are
// left untouched; empty strings clear a field.
type CategorizationUpdate struct {
	ExpenseType        *models.ExpenseType
	ExpenseCategory    *string
	ExpenseSubcategory *string
	CategoryOverride   *models.CategoryOverride
	IncomeSource       *string
}

// TransactionServicer defines the contract for transaction-related business logic.
// Transactions enter the system through ingestion or manual entry and are never
// deleted here; categorization is their only mutation path.
type TransactionServicer interface {
	CreateTransaction(userID string, date time.Time, amount decimal.Decimal, direction models.TransactionDirection, description string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateCategorization(userID, transactionID string, update CategorizationUpdate) (*models.Transaction, error)
}

// RuleInput carries the user-editable fields of a categorization rule.
type RuleInput struct {
	MatchType   models.RuleMatchType
	MatchText   string
	Type        models.RuleType
	Category    string
	Subcategory string
}

// ApplyRulesResult reports how many rule matches were found and how many
// transactions were successfully persisted. The two diverge under partial
// persistence failure; callers must surface that divergence, not hide it.
type ApplyRulesResult struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

// RuleServicer defines the contract for categorization rule management and
// retroactive batch application.
type RuleServicer interface {
	CreateRule(userID string, input RuleInput) (*models.CategorizationRule, error)
	GetUserRules(userID string) ([]models.CategorizationRule, error)
	UpdateRule(userID, ruleID string, input RuleInput) (*models.CategorizationRule, error)
	DeleteRule(userID, ruleID string) error
	ReorderRules(userID string, orderedIDs []string) error
	ApplyRules(userID string, lookbackDays int, asOf time.Time) (*ApplyRulesResult, error)
}

// VehicleDeductionResult is the outcome of the vehicle deduction calculation
// for one year.
type VehicleDeductionResult struct {
	DeductionAmount   decimal.Decimal               `json:"deduction_amount"`
	DeductionType     models.VehicleDeductionMethod `json:"deduction_type"`
	TotalBusinessKm   decimal.Decimal               `json:"total_business_km"`
	AutoExpensesTotal decimal.Decimal               `json:"auto_expenses_total"`
	// BusinessUseRatio is in [0,1]. Under per_km it is 1: the flat rate
	// already embeds business use.
	BusinessUseRatio decimal.Decimal `json:"business_use_ratio"`
}

// VehicleServicer defines the contract for vehicle tracking and the
// business-use vehicle deduction.
type VehicleServicer interface {
	AddTripLog(userID string, date time.Time, distanceKm decimal.Decimal, fromPlace, toPlace, purpose string) (*models.VehicleLog, error)
	GetTripLogs(userID string, year int) ([]models.VehicleLog, error)
	DeleteTripLog(userID, logID string) error
	UpsertMonthlySummary(userID string, year, month int, totalKm, businessKm decimal.Decimal, note string) (*models.MonthlyVehicleSummary, error)
	GetMonthlySummaries(userID string, year int) ([]models.MonthlyVehicleSummary, error)
	CalculateDeduction(userID string, year int) (*VehicleDeductionResult, error)
}

// DeductionBucket is one slice of the categorized deduction total.
type DeductionBucket struct {
	Amount decimal.Decimal `json:"amount"`
	// DeductiblePercent is the effective deductible share for display,
	// expressed 0-100.
	DeductiblePercent decimal.Decimal `json:"deductible_percent"`
}

// CategorizedDeductions merges the four non-overlapping deduction buckets for
// one year.
type CategorizedDeductions struct {
	Year            int             `json:"year"`
	Business        DeductionBucket `json:"business"`
	Parking         DeductionBucket `json:"parking"`
	Auto            DeductionBucket `json:"auto"`
	HomeOffice      DeductionBucket `json:"home_office"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}

// DeductionServicer defines the contract for deduction aggregation.
type DeductionServicer interface {
	GetCategorizedDeductions(userID string, year int) (*CategorizedDeductions, error)
}

// TaxEstimate is the year-to-date tax position for a user.
type TaxEstimate struct {
	Year            int             `json:"year"`
	NetIncome       decimal.Decimal `json:"net_income"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	tax.Result
	MarginalRate decimal.Decimal `json:"marginal_rate"`
}

// TaxServicer defines the contract for assembling a tax estimate from
// categorized transactions, deductions, and the user's tax settings.
type TaxServicer interface {
	GetTaxEstimate(userID string, year int) (*TaxEstimate, error)
}

// ProjectionResult extrapolates the year to date into full-year figures.
type ProjectionResult struct {
	AsOf                         time.Time       `json:"as_of"`
	ProjectedIncome              decimal.Decimal `json:"projected_income"`
	ProjectedExpenses            decimal.Decimal `json:"projected_expenses"`
	ProjectedTaxableIncome       decimal.Decimal `json:"projected_taxable_income"`
	ProjectedTax                 decimal.Decimal `json:"projected_tax"`
	ProjectedQuarterlyInstalment decimal.Decimal `json:"projected_quarterly_instalment"`
	EstimatedDeductionSavings    decimal.Decimal `json:"estimated_deduction_savings"`
}

// ProjectionServicer defines the contract for income/expense projection.
// asOf is always explicit so results are deterministic at any simulated date.
type ProjectionServicer interface {
	Project(userID string, asOf time.Time) (*ProjectionResult, error)
}

// InstalmentExtractionResult reports one extraction pass.
type InstalmentExtractionResult struct {
	Detected int `json:"detected"`
	Inserted int `json:"inserted"`
}

// InstalmentServicer defines the contract for detecting and listing historical
// tax instalment payments.
type InstalmentServicer interface {
	ExtractInstalments(userID string, year int) (*InstalmentExtractionResult, error)
	GetUserInstalments(userID string, year int) ([]models.TaxInstalment, error)
	RecordInstalment(userID string, amount decimal.Decimal, date time.Time) (*models.TaxInstalment, error)
}

// ProfileServicer defines the contract for vehicle/home-office settings and
// tax settings.
type ProfileServicer interface {
	GetProfile(userID string) (*models.Profile, error)
	UpdateProfile(userID string, update ProfileUpdate) (*models.Profile, error)
	GetTaxSettings(userID string) (*models.TaxSettings, error)
	UpdateTaxSettings(userID string, update TaxSettingsUpdate) (*models.TaxSettings, error)
}

// ProfileUpdate carries optional profile changes; nil fields are untouched.
type ProfileUpdate struct {
	VehicleTrackingMode    *models.VehicleTrackingMode
	VehicleDeductionMethod *models.VehicleDeductionMethod
	PerKmRate              *decimal.Decimal
	StartOfYearMileage     *decimal.Decimal
	CurrentMileage         *decimal.Decimal
	HomeOfficePercentage   *decimal.Decimal
}

// TaxSettingsUpdate carries optional tax settings changes; nil fields are untouched.
type TaxSettingsUpdate struct {
	Province                    *string
	PersonalTaxCreditAmount     *decimal.Decimal
	OtherCredits                *decimal.Decimal
	InstalmentMethod            *models.InstalmentMethod
	SafeHarbourTotalTaxLastYear *decimal.Decimal
}
