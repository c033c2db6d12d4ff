package models

// Category groups expenses and upcoming expenses for reporting.
type Category struct {
	Base
	Name  string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Icon  string `gorm:"type:varchar(50)" json:"icon"`
	Color string `gorm:"type:varchar(7)" json:"color"`
}
