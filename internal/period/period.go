// Package period resolves calendar windows used to filter expenses by date.
package period

import (
	"fmt"
	"time"

	apperrors "spendwise/internal/errors"
)

// Kind is the size of a calendar window.
type Kind string

const (
	Day   Kind = "day"
	Week  Kind = "week"
	Month Kind = "month"
	Year  Kind = "year"
)

// Valid reports whether k is a known window kind.
func (k Kind) Valid() bool {
	switch k {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Window is an inclusive [Start, End] range. End is the last representable
// instant of the final day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve returns the window of the given kind containing ref, computed in
// ref's location. Weeks start on Monday.
func Resolve(kind Kind, ref time.Time) (Window, error) {
	start := StartOfDay(ref)

	switch kind {
	case Day:
		return Window{Start: start, End: EndOfDay(start)}, nil
	case Week:
		// time.Weekday has Sunday = 0; shift so Monday = 0.
		offset := (int(start.Weekday()) + 6) % 7
		monday := start.AddDate(0, 0, -offset)
		return Window{Start: monday, End: EndOfDay(monday.AddDate(0, 0, 6))}, nil
	case Month:
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		return Window{Start: first, End: EndOfMonth(first)}, nil
	case Year:
		first := time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, start.Location())
		return Window{Start: first, End: EndOfYear(first)}, nil
	default:
		return Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("invalid period %q, must be day, week, month, or year", kind))
	}
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// EndOfMonth returns the last nanosecond of t's calendar month.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// EndOfYear returns the last nanosecond of Dec 31 of t's year.
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}
