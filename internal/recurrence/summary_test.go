package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
)

func pendingDue(amount string, due time.Time) models.UpcomingExpense {
	return models.UpcomingExpense{
		Amount:  decimal.RequireFromString(amount),
		DueDate: due,
		Status:  models.UpcomingStatusPending,
	}
}

func TestSummarizeOverdueCount(t *testing.T) {
	asOf := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
	items := []models.UpcomingExpense{
		pendingDue("10", asOf.AddDate(0, 0, -1)),
		pendingDue("20", time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)),
		pendingDue("30", asOf.AddDate(0, 0, 1)),
	}

	s := Summarize(items, asOf)

	if s.OverdueCount != 1 {
		t.Errorf("expected 1 overdue item, got %d", s.OverdueCount)
	}
	if !s.WeeklyTotal.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected weekly total 50, got %s", s.WeeklyTotal)
	}
}

func TestSummarizeWindows(t *testing.T) {
	asOf := time.Date(2024, time.June, 12, 8, 0, 0, 0, time.UTC)
	items := []models.UpcomingExpense{
		pendingDue("1.10", time.Date(2024, time.June, 19, 0, 0, 0, 0, time.UTC)),  // midnight of today+7, in week
		pendingDue("2.20", time.Date(2024, time.June, 19, 12, 0, 0, 0, time.UTC)), // later on today+7, past week
		pendingDue("3.30", time.Date(2024, time.June, 30, 23, 59, 0, 0, time.UTC)), // month end
		pendingDue("4.40", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)),    // next month
		pendingDue("5.50", time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC)),
		pendingDue("6.60", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}
	paid := pendingDue("100", time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC))
	paid.Status = models.UpcomingStatusPaid
	items = append(items, paid)

	s := Summarize(items, asOf)

	if !s.WeeklyTotal.Equal(decimal.RequireFromString("1.10")) {
		t.Errorf("expected weekly 1.10, got %s", s.WeeklyTotal)
	}
	if !s.MonthlyTotal.Equal(decimal.RequireFromString("6.60")) {
		t.Errorf("expected monthly 6.60, got %s", s.MonthlyTotal)
	}
	if !s.YearlyTotal.Equal(decimal.RequireFromString("16.50")) {
		t.Errorf("expected yearly 16.50, got %s", s.YearlyTotal)
	}
	if s.OverdueCount != 0 {
		t.Errorf("expected no overdue items, got %d", s.OverdueCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if !s.WeeklyTotal.IsZero() || !s.MonthlyTotal.IsZero() || !s.YearlyTotal.IsZero() || s.OverdueCount != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestWindowsHorizonCrossesYearEnd(t *testing.T) {
	w := WindowsFor(time.Date(2024, time.December, 28, 10, 0, 0, 0, time.UTC))

	if !w.Horizon().Equal(w.WeekEnd) {
		t.Errorf("expected horizon to be the week end in late December, got %v", w.Horizon())
	}
	if w.WeekEnd.Year() != 2025 {
		t.Errorf("expected week end in 2025, got %v", w.WeekEnd)
	}

	mid := WindowsFor(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	if !mid.Horizon().Equal(mid.YearEnd) {
		t.Errorf("expected horizon to be the year end, got %v", mid.Horizon())
	}
}
