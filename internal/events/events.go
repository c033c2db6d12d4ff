// Package events publishes domain events about realized expenses to an AMQP
// exchange so downstream consumers can react to conversions.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRealizedEvent is emitted after an upcoming expense has been
// converted into an expense and the conversion committed.
type ExpenseRealizedEvent struct {
	UpcomingExpenseID string          `json:"upcoming_expense_id"`
	ExpenseID         string          `json:"expense_id"`
	NextOccurrenceID  string          `json:"next_occurrence_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	RealizedAt        time.Time       `json:"realized_at"`
}

// Marshal encodes the event body.
func (e ExpenseRealizedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishExpenseRealized(ctx context.Context, event ExpenseRealizedEvent) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishExpenseRealized(context.Context, ExpenseRealizedEvent) error { return nil }
func (nopPublisher) Close() error                                                   { return nil }
