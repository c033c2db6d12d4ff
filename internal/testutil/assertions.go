package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
)

// AssertAppError fails unless err carries an *AppError with code. Wrapped and
// re-messaged errors are unwrapped first.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError with code %s, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAmount compares a money value with a decimal literal, ignoring
// trailing zeros.
func AssertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, got)
	}
}

// AssertInstant compares two times as instants, so the same moment in
// different locations is equal.
func AssertInstant(t *testing.T, label string, got, want time.Time) {
	t.Helper()

	if !got.Equal(want) {
		t.Errorf("%s: expected %s, got %s", label, want.UTC().Format(time.RFC3339Nano), got.UTC().Format(time.RFC3339Nano))
	}
}
