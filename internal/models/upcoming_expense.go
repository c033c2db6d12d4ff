package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often an upcoming expense recurs.
type Frequency string

const (
	FrequencyOneTime Frequency = "one_time"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Recurring reports whether f produces further occurrences.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != FrequencyOneTime
}

// UpcomingStatus is the lifecycle state of a single occurrence.
type UpcomingStatus string

const (
	UpcomingStatusPending UpcomingStatus = "pending"
	UpcomingStatusPaid    UpcomingStatus = "paid"
	UpcomingStatusSkipped UpcomingStatus = "skipped"
)

// Valid reports whether s is one of the known statuses.
func (s UpcomingStatus) Valid() bool {
	switch s {
	case UpcomingStatusPending, UpcomingStatusPaid, UpcomingStatusSkipped:
		return true
	}
	return false
}

// UpcomingExpense is one scheduled occurrence of a future payment. A
// recurring series is a chain of rows: converting a pending row marks it paid
// and inserts a fresh pending row for the next due date.
type UpcomingExpense struct {
	Base
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CategoryID  string          `gorm:"type:char(36);not null;index" json:"category_id"`
	Icon        string          `gorm:"type:varchar(50)" json:"icon"`
	Color       string          `gorm:"type:varchar(7)" json:"color"`
	DueDate     time.Time       `gorm:"not null;index:idx_upcoming_status_due,priority:2" json:"due_date"`
	Frequency   Frequency       `gorm:"type:varchar(20);not null;default:one_time" json:"frequency"`
	Interval    int             `gorm:"column:recurrence_interval;not null;default:1" json:"interval"`
	AutoConvert bool            `gorm:"not null;default:false" json:"auto_convert"`
	Status      UpcomingStatus  `gorm:"type:varchar(20);not null;default:pending;index:idx_upcoming_status_due,priority:1" json:"status"`
	Version     int             `gorm:"not null;default:1" json:"version"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}
