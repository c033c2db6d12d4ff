package recurrence

import (
	"fmt"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// Realization is the outcome of converting one due occurrence: the expense to
// record, the occurrence in its paid state, and the next occurrence when the
// series recurs.
type Realization struct {
	Expense models.Expense
	Paid    models.UpcomingExpense
	Next    *models.UpcomingExpense
}

// Realize computes the effects of converting u into an expense without
// touching any store. u must be pending. The paid row keeps its id and gets
// its version bumped; the next occurrence is a new row with no id.
func Realize(u models.UpcomingExpense) (Realization, error) {
	if err := Transition(u.Status, models.UpcomingStatusPaid); err != nil {
		return Realization{}, err
	}
	if !u.Frequency.Valid() {
		return Realization{}, apperrors.WithMessage(apperrors.ErrInvalidFrequency,
			fmt.Sprintf("unsupported frequency %q", u.Frequency))
	}

	r := Realization{
		Expense: models.Expense{
			Amount:      u.Amount,
			Description: u.Title,
			CategoryID:  u.CategoryID,
			Date:        u.DueDate,
		},
	}

	r.Paid = u
	r.Paid.Category = nil
	r.Paid.Status = models.UpcomingStatusPaid
	r.Paid.Version = u.Version + 1

	if !u.Frequency.Recurring() {
		return r, nil
	}

	nextDue, err := NextDueDate(u.DueDate, u.Frequency, u.Interval)
	if err != nil {
		return Realization{}, err
	}

	r.Next = &models.UpcomingExpense{
		Title:       u.Title,
		Amount:      u.Amount,
		CategoryID:  u.CategoryID,
		Icon:        u.Icon,
		Color:       u.Color,
		DueDate:     nextDue,
		Frequency:   u.Frequency,
		Interval:    NormalizeInterval(u.Frequency, u.Interval),
		AutoConvert: u.AutoConvert,
		Status:      models.UpcomingStatusPending,
		Version:     1,
	}
	return r, nil
}
