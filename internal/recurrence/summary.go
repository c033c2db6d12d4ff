package recurrence

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/period"
)

// Summary aggregates pending upcoming expenses relative to a reference day.
type Summary struct {
	WeeklyTotal  decimal.Decimal `json:"weekly_total"`
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
	YearlyTotal  decimal.Decimal `json:"yearly_total"`
	OverdueCount int64           `json:"overdue_count"`
}

// SummaryWindows are the bounds used by Summarize. Today is the start of the
// reference day; the other fields are inclusive upper bounds.
type SummaryWindows struct {
	Today    time.Time
	WeekEnd  time.Time
	MonthEnd time.Time
	YearEnd  time.Time
}

// WindowsFor computes summary bounds for asOf in asOf's location.
func WindowsFor(asOf time.Time) SummaryWindows {
	today := period.StartOfDay(asOf)
	return SummaryWindows{
		Today:    today,
		WeekEnd:  today.AddDate(0, 0, 7),
		MonthEnd: period.EndOfMonth(today),
		YearEnd:  period.EndOfYear(today),
	}
}

// Horizon is the latest due date any of the totals can include. The weekly
// window crosses into January during the last week of December.
func (w SummaryWindows) Horizon() time.Time {
	if w.WeekEnd.After(w.YearEnd) {
		return w.WeekEnd
	}
	return w.YearEnd
}

// Summarize computes all totals from a single slice of rows so that every
// figure reflects the same snapshot. Non-pending rows are ignored.
func Summarize(items []models.UpcomingExpense, asOf time.Time) Summary {
	w := WindowsFor(asOf)
	s := Summary{
		WeeklyTotal:  decimal.Zero,
		MonthlyTotal: decimal.Zero,
		YearlyTotal:  decimal.Zero,
	}

	for _, item := range items {
		if item.Status != models.UpcomingStatusPending {
			continue
		}
		due := item.DueDate
		if due.Before(w.Today) {
			s.OverdueCount++
			continue
		}
		if !due.After(w.WeekEnd) {
			s.WeeklyTotal = s.WeeklyTotal.Add(item.Amount)
		}
		if !due.After(w.MonthEnd) {
			s.MonthlyTotal = s.MonthlyTotal.Add(item.Amount)
		}
		if !due.After(w.YearEnd) {
			s.YearlyTotal = s.YearlyTotal.Add(item.Amount)
		}
	}
	return s
}
