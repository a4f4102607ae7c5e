package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// InventorySession is one count event for a list. The session lifecycle is
// owned by the counting UI; the dispatch engine only reads approved sessions.
type InventorySession struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	ListID           uuid.UUID           `gorm:"column:list_id;type:uuid;not null;index"`
	Status           enums.SessionStatus `gorm:"column:status;type:inventory_session_status;not null;default:'in_progress'"`
	ApprovedAt       *time.Time          `gorm:"column:approved_at;type:timestamptz"`
	ApprovedByUserID *uuid.UUID          `gorm:"column:approved_by_user_id;type:uuid"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
