package models

// AuditLog records mutating operations, including conversions performed by
// the auto-convert sweep.
type AuditLog struct {
	Base
	Action       string `gorm:"not null;index" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"type:char(36)" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	RequestID    string `gorm:"type:varchar(36);index" json:"request_id,omitempty"`
	Changes      string `gorm:"type:text" json:"changes,omitempty"`
}
