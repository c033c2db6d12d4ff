package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"spendwise/internal/logger"
	"spendwise/internal/models"
)

// auditService appends audit entries. Writes are best effort: a failed
// insert is logged and the calling operation still succeeds.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records action on a resource. The request ID carried by ctx, if any,
// is stored so an entry can be traced back to the HTTP call that caused it;
// sweep conversions share the ID of the pipeline request.
func (s *auditService) Log(ctx context.Context, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.FromContext(ctx)

	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		RequestID:    logger.RequestIDFrom(ctx),
		Changes:      encodeChanges(changes),
	}
	if entry.Changes == "" && changes != nil {
		log.Warnw("audit changes could not be encoded", "action", action, "resource_id", resourceID)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// encodeChanges renders changes as a JSON object. Nil and unencodable maps
// yield "".
func encodeChanges(changes map[string]interface{}) string {
	if changes == nil {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return ""
	}
	return string(data)
}
