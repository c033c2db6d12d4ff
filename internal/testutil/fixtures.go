package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, fmt.Sprintf("Test Category %d", nextID()))
}

// CreateTestCategoryWithName creates a category with the given name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  name,
		Icon:  "Tag",
		Color: "#3B82F6",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense of the given amount on date.
func CreateTestExpense(t *testing.T, db *gorm.DB, categoryID, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		Amount:      decimal.RequireFromString(amount),
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		CategoryID:  categoryID,
		Date:        date.UTC(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestUpcomingExpense creates a pending upcoming expense. Callers adjust
// auto-convert or status with opts before the row is inserted.
func CreateTestUpcomingExpense(
	t *testing.T,
	db *gorm.DB,
	categoryID string,
	frequency models.Frequency,
	amount string,
	due time.Time,
	opts ...func(*models.UpcomingExpense),
) *models.UpcomingExpense {
	t.Helper()

	upcoming := &models.UpcomingExpense{
		Title:      fmt.Sprintf("Test Upcoming %d", nextID()),
		Amount:     decimal.RequireFromString(amount),
		CategoryID: categoryID,
		Icon:       "Calendar",
		Color:      "#F59E0B",
		DueDate:    due.UTC(),
		Frequency:  frequency,
		Interval:   1,
		Status:     models.UpcomingStatusPending,
		Version:    1,
	}
	for _, opt := range opts {
		opt(upcoming)
	}
	if err := db.Create(upcoming).Error; err != nil {
		t.Fatalf("failed to create test upcoming expense: %v", err)
	}
	return upcoming
}

// AutoConvert marks a fixture for the auto-convert sweep.
func AutoConvert(u *models.UpcomingExpense) { u.AutoConvert = true }

// WithStatus sets a fixture's initial status.
func WithStatus(status models.UpcomingStatus) func(*models.UpcomingExpense) {
	return func(u *models.UpcomingExpense) { u.Status = status }
}
