package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/period"
	"spendwise/internal/testutil"
)

func TestCreateExpense(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, time.UTC)
		cat := testutil.CreateTestCategory(t, db)
		date := testutil.Date(2024, time.March, 3)

		expense, err := svc.CreateExpense(context.Background(), decimal.RequireFromString("42.50"), " Lunch ", cat.ID, &date)
		testutil.AssertNoError(t, err)

		if !expense.Amount.Equal(decimal.RequireFromString("42.5")) {
			t.Errorf("expected amount 42.50, got %s", expense.Amount)
		}
		if expense.Description != "Lunch" {
			t.Errorf("expected trimmed description, got %q", expense.Description)
		}
		if !expense.Date.Equal(date) {
			t.Errorf("expected date %v, got %v", date, expense.Date)
		}
		if expense.Category == nil || expense.Category.ID != cat.ID {
			t.Error("expected category to be loaded")
		}
	})

	t.Run("defaults_date_to_now", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, time.UTC)
		cat := testutil.CreateTestCategory(t, db)

		before := time.Now().Add(-time.Second)
		expense, err := svc.CreateExpense(context.Background(), decimal.NewFromInt(5), "", cat.ID, nil)
		testutil.AssertNoError(t, err)

		if expense.Date.Before(before) {
			t.Errorf("expected date near now, got %v", expense.Date)
		}
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, time.UTC)
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateExpense(context.Background(), decimal.Zero, "", cat.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("amount_must_fit_cents", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, time.UTC)
		cat := testutil.CreateTestCategory(t, db)

		for _, raw := range []string{"0.001", "12.345", "10000000000"} {
			_, err := svc.CreateExpense(context.Background(), decimal.RequireFromString(raw), "", cat.ID, nil)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}

		var count int64
		db.Model(&models.Expense{}).Count(&count)
		if count != 0 {
			t.Errorf("expected nothing stored, got %d rows", count)
		}

		expense, err := svc.CreateExpense(context.Background(), decimal.RequireFromString("12.300"), "", cat.ID, nil)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "trailing zeros", expense.Amount, "12.30")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, time.UTC)

		_, err := svc.CreateExpense(context.Background(), decimal.NewFromInt(5), "", "missing", nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)
	cat := testutil.CreateTestCategory(t, db)
	other := testutil.CreateTestCategory(t, db)
	expense := testutil.CreateTestExpense(t, db, cat.ID, "10", testutil.Date(2024, time.April, 1))

	amount := decimal.RequireFromString("12.75")
	updated, err := svc.UpdateExpense(context.Background(), expense.ID, ExpenseUpdate{Amount: &amount, CategoryID: &other.ID})
	testutil.AssertNoError(t, err)

	if !updated.Amount.Equal(amount) {
		t.Errorf("expected amount 12.75, got %s", updated.Amount)
	}
	if updated.CategoryID != other.ID {
		t.Errorf("expected category %s, got %s", other.ID, updated.CategoryID)
	}
	if updated.Description != expense.Description {
		t.Errorf("expected description to be unchanged, got %q", updated.Description)
	}

	missing := "missing"
	_, err = svc.UpdateExpense(context.Background(), expense.ID, ExpenseUpdate{CategoryID: &missing})
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

	negative := decimal.NewFromInt(-1)
	_, err = svc.UpdateExpense(context.Background(), expense.ID, ExpenseUpdate{Amount: &negative})
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	subCent := decimal.RequireFromString("0.001")
	_, err = svc.UpdateExpense(context.Background(), expense.ID, ExpenseUpdate{Amount: &subCent})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestDeleteExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)
	cat := testutil.CreateTestCategory(t, db)
	expense := testutil.CreateTestExpense(t, db, cat.ID, "10", time.Now())

	testutil.AssertNoError(t, svc.DeleteExpense(context.Background(), expense.ID))
	testutil.AssertAppError(t, svc.DeleteExpense(context.Background(), expense.ID), "EXPENSE_NOT_FOUND")
}

func TestListRecentExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)
	cat := testutil.CreateTestCategory(t, db)

	for day := 1; day <= 7; day++ {
		testutil.CreateTestExpense(t, db, cat.ID, "1", testutil.Date(2024, time.May, day))
	}

	recent, err := svc.ListRecentExpenses(context.Background(), 0)
	testutil.AssertNoError(t, err)

	if len(recent) != 5 {
		t.Fatalf("expected default limit of 5, got %d", len(recent))
	}
	if !recent[0].Date.Equal(testutil.Date(2024, time.May, 7)) {
		t.Errorf("expected newest first, got %v", recent[0].Date)
	}
}

func TestListExpensesByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)
	cat := testutil.CreateTestCategory(t, db)
	other := testutil.CreateTestCategory(t, db)

	testutil.CreateTestExpense(t, db, cat.ID, "1", time.Now())
	testutil.CreateTestExpense(t, db, cat.ID, "2", time.Now())
	testutil.CreateTestExpense(t, db, other.ID, "3", time.Now())

	result, err := svc.ListExpensesByCategory(context.Background(), cat.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 expenses, got %d", result.TotalItems)
	}

	_, err = svc.ListExpensesByCategory(context.Background(), "missing", pagination.PageRequest{})
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestFilterExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)
	food := testutil.CreateTestCategory(t, db)
	rent := testutil.CreateTestCategory(t, db)

	// Week of Monday 2024-06-10 .. Sunday 2024-06-16.
	mk := func(categoryID, amount, description string, date time.Time) *models.Expense {
		e := testutil.CreateTestExpense(t, db, categoryID, amount, date)
		testutil.AssertNoError(t, db.Model(e).Update("description", description).Error)
		return e
	}
	mk(food.ID, "10", "Coffee beans", testutil.Date(2024, time.June, 10))
	mk(food.ID, "20", "Weekly groceries", time.Date(2024, time.June, 16, 23, 30, 0, 0, time.UTC))
	mk(rent.ID, "500", "June rent", testutil.Date(2024, time.June, 12))
	mk(food.ID, "99", "Coffee last week", testutil.Date(2024, time.June, 9))

	wednesday := testutil.Date(2024, time.June, 12)

	t.Run("week", func(t *testing.T) {
		result, err := svc.FilterExpenses(context.Background(), ExpenseFilter{Period: period.Week, Date: wednesday})
		testutil.AssertNoError(t, err)

		if len(result.Transactions) != 3 {
			t.Fatalf("expected 3 expenses in week, got %d", len(result.Transactions))
		}
		testutil.AssertAmount(t, "week total", result.Total, "530")
		testutil.AssertInstant(t, "window start", result.StartDate, testutil.Date(2024, time.June, 10))
		if result.Transactions[0].Description != "Weekly groceries" {
			t.Errorf("expected newest first, got %q", result.Transactions[0].Description)
		}
	})

	t.Run("category_and_search", func(t *testing.T) {
		result, err := svc.FilterExpenses(context.Background(), ExpenseFilter{
			Period:     period.Month,
			Date:       wednesday,
			CategoryID: food.ID,
			Search:     "COFFEE",
		})
		testutil.AssertNoError(t, err)

		if len(result.Transactions) != 2 {
			t.Fatalf("expected 2 coffee expenses in June, got %d", len(result.Transactions))
		}
	})

	t.Run("wildcards_are_literal", func(t *testing.T) {
		result, err := svc.FilterExpenses(context.Background(), ExpenseFilter{Period: period.Year, Date: wednesday, Search: "%"})
		testutil.AssertNoError(t, err)

		if len(result.Transactions) != 0 {
			t.Errorf("expected no match for a literal %%, got %d", len(result.Transactions))
		}
	})

	t.Run("invalid_period", func(t *testing.T) {
		_, err := svc.FilterExpenses(context.Background(), ExpenseFilter{Period: "fortnight", Date: wednesday})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestTotalBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db, time.UTC)

	total, err := svc.TotalBalance(context.Background())
	testutil.AssertNoError(t, err)
	if !total.IsZero() {
		t.Errorf("expected zero on empty table, got %s", total)
	}

	cat := testutil.CreateTestCategory(t, db)
	testutil.CreateTestExpense(t, db, cat.ID, "10.25", time.Now())
	testutil.CreateTestExpense(t, db, cat.ID, "4.50", time.Now())

	total, err = svc.TotalBalance(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "balance", total, "14.75")
}
