// Package recurrence holds the pure scheduling rules for upcoming expenses:
// next due date arithmetic, the status state machine, and the realization of
// a due occurrence into an expense plus its successor.
package recurrence

import (
	"fmt"
	"time"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// ParseFrequency converts s into a Frequency.
func ParseFrequency(s string) (models.Frequency, error) {
	f := models.Frequency(s)
	if !f.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFrequency, fmt.Sprintf("unsupported frequency %q", s))
	}
	return f, nil
}

// ParseStatus converts s into an UpcomingStatus.
func ParseStatus(s string) (models.UpcomingStatus, error) {
	st := models.UpcomingStatus(s)
	if !st.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidStatus, fmt.Sprintf("unsupported status %q", s))
	}
	return st, nil
}

// NormalizeInterval returns the effective multiplier for f. Intervals below
// one, and any interval on a one-time item, collapse to 1.
func NormalizeInterval(f models.Frequency, interval int) int {
	if f == models.FrequencyOneTime || interval < 1 {
		return 1
	}
	return interval
}

// NextDueDate returns the due date that follows current for a series with the
// given frequency and interval.
//
// Month arithmetic clamps to the last day of the target month, so Jan 31 plus
// one month is Feb 28 (Feb 29 in leap years) and Feb 29 plus one year is
// Feb 28. Clock time and location are preserved. One-time items have no
// successor and return current unchanged.
func NextDueDate(current time.Time, f models.Frequency, interval int) (time.Time, error) {
	n := NormalizeInterval(f, interval)

	switch f {
	case models.FrequencyWeekly:
		return current.AddDate(0, 0, 7*n), nil
	case models.FrequencyMonthly:
		return addMonthsClamped(current, n), nil
	case models.FrequencyYearly:
		return addMonthsClamped(current, 12*n), nil
	case models.FrequencyOneTime:
		return current, nil
	default:
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidFrequency, fmt.Sprintf("unsupported frequency %q", f))
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Day 1 never overflows, so this lands in the intended target month.
	first := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Transition validates a status change. pending may move to paid or skipped,
// and paid or skipped may only be reset to pending. Re-applying the current
// status is rejected.
func Transition(from, to models.UpcomingStatus) error {
	if !to.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidStatus, fmt.Sprintf("unsupported status %q", to))
	}

	allowed := false
	switch from {
	case models.UpcomingStatusPending:
		allowed = to == models.UpcomingStatusPaid || to == models.UpcomingStatusSkipped
	case models.UpcomingStatusPaid, models.UpcomingStatusSkipped:
		allowed = to == models.UpcomingStatusPending
	}

	if !allowed {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot change status from %s to %s", from, to))
	}
	return nil
}
