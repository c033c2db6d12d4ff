package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/period"
	"spendwise/internal/recurrence"
)

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name, icon, color string) (*models.Category, error)
	ListCategories(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, categoryID, name, icon, color string) (*models.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	SeedDefaults(ctx context.Context) (int, error)
}

// ExpenseUpdate holds the fields of an expense that should change. Nil
// fields are left untouched.
type ExpenseUpdate struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
	Date        *time.Time
}

// ExpenseFilter selects expenses inside the calendar window of Period that
// contains Date.
type ExpenseFilter struct {
	Period     period.Kind
	Date       time.Time
	CategoryID string
	Search     string
}

// FilteredExpenses is the result of a filtered listing with its window.
type FilteredExpenses struct {
	Transactions []models.Expense `json:"transactions"`
	Total        decimal.Decimal  `json:"total"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, amount decimal.Decimal, description, categoryID string, date *time.Time) (*models.Expense, error)
	GetExpenseByID(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expenseID string, update ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error
	ListRecentExpenses(ctx context.Context, limit int) ([]models.Expense, error)
	ListExpensesByCategory(ctx context.Context, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	FilterExpenses(ctx context.Context, filter ExpenseFilter) (*FilteredExpenses, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// UpcomingExpenseInput carries the fields of a new upcoming expense.
type UpcomingExpenseInput struct {
	Title       string
	Amount      decimal.Decimal
	CategoryID  string
	Icon        string
	Color       string
	DueDate     time.Time
	Frequency   models.Frequency
	Interval    int
	AutoConvert bool
}

// UpcomingExpenseUpdate holds the schedule fields that should change. Status
// is not editable here; it moves only through ConversionServicer.
type UpcomingExpenseUpdate struct {
	Title       *string
	Amount      *decimal.Decimal
	CategoryID  *string
	Icon        *string
	Color       *string
	DueDate     *time.Time
	Frequency   *models.Frequency
	Interval    *int
	AutoConvert *bool
}

// UpcomingExpenseFilter narrows an upcoming expense listing.
type UpcomingExpenseFilter struct {
	Frequency *models.Frequency
	Status    *models.UpcomingStatus
}

// UpcomingSummary is the dashboard snapshot of pending obligations.
type UpcomingSummary struct {
	recurrence.Summary
	AsOf time.Time `json:"as_of"`
}

// UpcomingExpenseServicer defines the contract for managing scheduled expenses.
type UpcomingExpenseServicer interface {
	CreateUpcomingExpense(ctx context.Context, input UpcomingExpenseInput) (*models.UpcomingExpense, error)
	GetUpcomingExpenseByID(ctx context.Context, id string) (*models.UpcomingExpense, error)
	UpdateUpcomingExpense(ctx context.Context, id string, update UpcomingExpenseUpdate) (*models.UpcomingExpense, error)
	DeleteUpcomingExpense(ctx context.Context, id string) error
	ListUpcomingExpenses(ctx context.Context, filter UpcomingExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.UpcomingExpense], error)
	ListPendingInRange(ctx context.Context, from, to time.Time) ([]models.UpcomingExpense, error)
	Summarize(ctx context.Context, asOf time.Time) (*UpcomingSummary, error)
}

// RealizedConversion is the committed result of converting one occurrence.
type RealizedConversion struct {
	Upcoming *models.UpcomingExpense `json:"upcoming_expense"`
	Expense  *models.Expense         `json:"expense"`
	Next     *models.UpcomingExpense `json:"next_occurrence,omitempty"`
}

// SweepFailure describes one candidate the auto-convert sweep could not convert.
type SweepFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SweepResult reports what a single auto-convert sweep did.
type SweepResult struct {
	AsOf      time.Time            `json:"as_of"`
	Converted []RealizedConversion `json:"converted"`
	Failed    []SweepFailure       `json:"failed"`
}

// ConversionServicer realizes upcoming expenses and drives their status machine.
type ConversionServicer interface {
	ConvertToExpense(ctx context.Context, id string) (*RealizedConversion, error)
	ProcessAutoConvertDue(ctx context.Context, asOf time.Time) (*SweepResult, error)
	MarkStatus(ctx context.Context, id string, status models.UpcomingStatus) (*models.UpcomingExpense, error)
}

// CategorySpending is one slice of the spend-by-category breakdown.
type CategorySpending struct {
	CategoryID string          `json:"category_id"`
	Category   string          `json:"category"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// MonthlyTotal is the spend for one calendar month.
type MonthlyTotal struct {
	Month  int             `json:"month"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DailyTotal is the spend for one calendar day, keyed as YYYY-MM-DD.
type DailyTotal struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// CategoryDetail is the wallet view of a single category.
type CategoryDetail struct {
	Category   models.Category  `json:"category"`
	Total      decimal.Decimal  `json:"total"`
	MonthTotal decimal.Decimal  `json:"month_total"`
	Daily      []DailyTotal     `json:"daily"`
	Recent     []models.Expense `json:"recent"`
}

// AnalysisServicer computes spending reports.
type AnalysisServicer interface {
	GetCategorySpending(ctx context.Context) ([]CategorySpending, error)
	GetMonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error)
	GetCategoryDetail(ctx context.Context, categoryID string, asOf time.Time) (*CategoryDetail, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
