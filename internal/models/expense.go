package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a realized spend, entered directly or converted from an
// UpcomingExpense.
type Expense struct {
	Base
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  string          `gorm:"type:char(36);not null;index" json:"category_id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}
